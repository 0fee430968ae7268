package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Transaction is the durable record of a finalized push request.
// Amount and PhoneNumber are the values captured at submission time,
// not whatever the callback echoed.
type Transaction struct {
	ID                 uuid.UUID  `json:"id"`
	MerchantRequestID  string     `json:"merchant_request_id"`
	CheckoutRequestID  string     `json:"checkout_request_id"`
	ResultCode         string     `json:"result_code"`
	ResultDesc         string     `json:"result_desc"`
	Amount             float64    `json:"amount"`
	PhoneNumber        string     `json:"phone_number"`
	Status             Status     `json:"status"`
	MpesaReceiptNumber *string    `json:"mpesa_receipt_number,omitempty"`
	Balance            *float64   `json:"balance,omitempty"`
	TransactionDate    *time.Time `json:"transaction_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type TransactionsStore struct {
	db *pgxpool.Pool
}

func (s *TransactionsStore) Create(ctx context.Context, txn *Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO transactions (
			id, merchant_request_id, checkout_request_id, result_code,
			result_desc, amount, phone_number, status,
			mpesa_receipt_number, balance, transaction_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`,
		txn.ID, txn.MerchantRequestID, txn.CheckoutRequestID, txn.ResultCode,
		txn.ResultDesc, txn.Amount, txn.PhoneNumber, txn.Status,
		txn.MpesaReceiptNumber, txn.Balance, txn.TransactionDate,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *TransactionsStore) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var txn Transaction
	err := s.db.QueryRow(ctx, `
		SELECT id, merchant_request_id, checkout_request_id, result_code,
		       result_desc, amount, phone_number, status,
		       mpesa_receipt_number, balance, transaction_date,
		       created_at, updated_at
		FROM transactions
		WHERE checkout_request_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, checkoutRequestID).Scan(
		&txn.ID, &txn.MerchantRequestID, &txn.CheckoutRequestID, &txn.ResultCode,
		&txn.ResultDesc, &txn.Amount, &txn.PhoneNumber, &txn.Status,
		&txn.MpesaReceiptNumber, &txn.Balance, &txn.TransactionDate,
		&txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &txn, nil
}
