package express

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pesaflow/internal/alerts"
	"pesaflow/internal/cache"
	"pesaflow/internal/mpesa"
	"pesaflow/internal/store"
)

// Pusher is the outbound side of the gateway: one synchronous push
// call returning the acknowledgment with the correlation id.
type Pusher interface {
	STKPush(ctx context.Context, token string, push mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
}

// TransactionStore is the slice of the ledger the engine appends to.
type TransactionStore interface {
	Create(ctx context.Context, txn *store.Transaction) error
}

// Config carries the merchant-side constants of the push envelope.
type Config struct {
	Shortcode       string
	Passkey         string
	CallbackURL     string
	TransactionType string
	TransactionDesc string
	PendingTTL      time.Duration
}

// SubmitRequest is a validated payment request. Shape and range checks
// (phone format, reference format, amount > 0) happen at the transport
// boundary before this is built.
type SubmitRequest struct {
	PhoneNumber      string
	AccountReference string
	Amount           float64
}

// Service reconciles push submissions with their asynchronous result
// callbacks. Each submission and each callback is an independent unit
// of work; the only state shared between them is the pending store and
// the ledger, and every mutation is scoped to one checkout request id.
type Service struct {
	cfg     Config
	tokens  mpesa.TokenProvider
	gateway Pusher
	pending cache.PendingStore
	ledger  TransactionStore
	alerts  alerts.Notifier
	logger  *zap.SugaredLogger

	now func() time.Time
}

func NewService(
	cfg Config,
	tokens mpesa.TokenProvider,
	gateway Pusher,
	pending cache.PendingStore,
	ledger TransactionStore,
	notifier alerts.Notifier,
	logger *zap.SugaredLogger,
) *Service {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = cache.DefaultTTL
	}
	if notifier == nil {
		notifier = alerts.Noop{}
	}
	return &Service{
		cfg:     cfg,
		tokens:  tokens,
		gateway: gateway,
		pending: pending,
		ledger:  ledger,
		alerts:  notifier,
		logger:  logger,
		now:     time.Now,
	}
}

// Submit initiates a push request and records it as pending. The
// pending record is written only after the gateway accepted the push,
// and before the acknowledgment is returned, so a callback can never
// race ahead of it. No retries; failures surface to the caller.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*mpesa.STKPushResponse, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}

	timestamp := mpesa.Timestamp(s.now())
	push := mpesa.STKPushRequest{
		BusinessShortCode: s.cfg.Shortcode,
		Password:          mpesa.Password(s.cfg.Shortcode, s.cfg.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   s.cfg.TransactionType,
		Amount:            req.Amount,
		PartyA:            req.PhoneNumber,
		PartyB:            s.cfg.Shortcode,
		PhoneNumber:       req.PhoneNumber,
		CallBackURL:       s.cfg.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   s.cfg.TransactionDesc,
	}

	resp, err := s.gateway.STKPush(ctx, token, push)
	if err != nil {
		return nil, err
	}

	pending := cache.PendingTransaction{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		Amount:            req.Amount,
		PhoneNumber:       req.PhoneNumber,
		Status:            string(store.StatusPending),
	}
	if err := s.pending.Put(ctx, pending, s.cfg.PendingTTL); err != nil {
		// The push went out but cannot be tracked; the submission is
		// failed so the caller does not treat it as reconciled.
		s.logger.Errorw("failed to cache pending transaction",
			"checkout_request_id", resp.CheckoutRequestID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	s.logger.Infow("push submitted",
		"checkout_request_id", resp.CheckoutRequestID,
		"merchant_request_id", resp.MerchantRequestID,
		"phone_number", req.PhoneNumber,
		"amount", req.Amount)

	return resp, nil
}

// HandleCallback finalizes the transaction a result callback refers to.
// The returned error is for logging only: the transport layer must
// acknowledge the gateway positively no matter what happened here.
//
// Idempotence falls out of the cache lifecycle: the first processed
// callback deletes the pending record, so a duplicate finds nothing
// and is treated the same as a callback for an unknown id.
func (s *Service) HandleCallback(ctx context.Context, env mpesa.CallbackEnvelope) error {
	cb := env.Body.STKCallback
	if cb.CheckoutRequestID == "" {
		return ErrMalformedCallback
	}

	pending, err := s.pending.Get(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.logger.Infow("callback for unknown or already finalized transaction",
				"checkout_request_id", cb.CheckoutRequestID,
				"result_code", cb.ResultCode.String())
			return ErrPendingNotFound
		}
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	meta := flattenMetadata(cb.CallbackMetadata)

	status := store.StatusFailed
	if cb.ResultCode.IsSuccess() {
		status = store.StatusCompleted
	}

	txn := store.Transaction{
		MerchantRequestID: pending.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode.String(),
		ResultDesc:        cb.ResultDesc,
		Amount:            pending.Amount,
		PhoneNumber:       pending.PhoneNumber,
		Status:            status,
	}
	if receipt := metadataString(meta["MpesaReceiptNumber"]); receipt != "" {
		txn.MpesaReceiptNumber = &receipt
	}
	if balance, ok := metadataFloat(meta["Balance"]); ok {
		txn.Balance = &balance
	}
	if date, ok := parseTransactionDate(meta["TransactionDate"]); ok {
		txn.TransactionDate = &date
	}

	if err := s.ledger.Create(ctx, &txn); err != nil {
		// The gateway will still be told "success"; this record can
		// only be recovered by an operator, so shout.
		s.logger.Errorw("LEDGER WRITE FAILED, callback result lost",
			"checkout_request_id", cb.CheckoutRequestID,
			"result_code", cb.ResultCode.String(),
			"amount", pending.Amount,
			"error", err)
		if alertErr := s.alerts.LedgerWriteFailed(cb.CheckoutRequestID, err); alertErr != nil {
			s.logger.Errorw("failed to send ledger alert",
				"checkout_request_id", cb.CheckoutRequestID, "error", alertErr)
		}
		// Pending record is kept: the TTL reclaims it, and its presence
		// marks the transaction as unreconciled in the meantime.
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}

	if err := s.pending.Delete(ctx, cb.CheckoutRequestID); err != nil {
		// Non-fatal, the TTL will reclaim it.
		s.logger.Warnw("failed to delete pending transaction",
			"checkout_request_id", cb.CheckoutRequestID, "error", err)
	}

	s.logger.Infow("transaction finalized",
		"checkout_request_id", cb.CheckoutRequestID,
		"status", string(status),
		"result_code", cb.ResultCode.String())

	return nil
}
