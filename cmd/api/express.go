package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pesaflow/internal/express"
	"pesaflow/internal/mpesa"
	"pesaflow/internal/store"
)

type CreateExpressPayload struct {
	PhoneNumber      string  `json:"phone_number" validate:"required,kenyanphone"`
	AccountReference string  `json:"account_reference" validate:"required,accountref"`
	Amount           float64 `json:"amount" validate:"required,gt=0"`
}

type ExpressAck struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	MerchantRequestID string `json:"merchant_request_id"`
	ResponseCode      string `json:"response_code"`
	CustomerMessage   string `json:"customer_message"`
}

// callbackAck is the fixed body Daraja expects back from a callback
// delivery. The gateway treats anything else as a failed delivery and
// redelivers, so this is returned no matter what happened internally.
type callbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

var acceptedAck = callbackAck{
	ResultCode: 0,
	ResultDesc: "The service request is processed successfully.",
}

func (app *application) stkPushHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateExpressPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	resp, err := app.engine.Submit(r.Context(), express.SubmitRequest{
		PhoneNumber:      payload.PhoneNumber,
		AccountReference: payload.AccountReference,
		Amount:           payload.Amount,
	})
	if err != nil {
		var apiErr *mpesa.APIError
		switch {
		case errors.Is(err, express.ErrTokenUnavailable):
			app.unauthorizedErrorResponse(w, r, err)
		case errors.As(err, &apiErr):
			status := http.StatusBadGateway
			if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
				status = apiErr.StatusCode
			}
			app.upstreamErrorResponse(w, r, status, apiErr.Message, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	ack := ExpressAck{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		ResponseCode:      resp.ResponseCode,
		CustomerMessage:   resp.CustomerMessage,
	}
	if err := app.jsonResponse(w, http.StatusOK, ack); err != nil {
		app.internalServerError(w, r, err)
	}
}

// stkCallbackHandler is the inbound side of the gateway contract. Every
// internal failure is absorbed here: the delivery is acknowledged
// positively regardless, and problems surface only through logs and
// alerts.
func (app *application) stkCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var env mpesa.CallbackEnvelope
	if err := readCallbackJSON(w, r, &env); err != nil {
		app.logger.Warnw("undecodable gateway callback", "error", err.Error())
		writeJSON(w, http.StatusOK, acceptedAck)
		return
	}

	if err := app.engine.HandleCallback(r.Context(), env); err != nil {
		switch {
		case errors.Is(err, express.ErrPendingNotFound):
			// Duplicate, expired or foreign delivery. Already logged.
		case errors.Is(err, express.ErrMalformedCallback):
			app.logger.Warnw("malformed gateway callback",
				"checkout_request_id", env.Body.STKCallback.CheckoutRequestID)
		default:
			app.logger.Errorw("callback processing failed",
				"checkout_request_id", env.Body.STKCallback.CheckoutRequestID,
				"error", err.Error())
		}
	}

	writeJSON(w, http.StatusOK, acceptedAck)
}

func (app *application) getTransactionHandler(w http.ResponseWriter, r *http.Request) {
	checkoutRequestID := chi.URLParam(r, "checkoutRequestID")

	txn, err := app.store.Transactions.GetByCheckoutRequestID(r.Context(), checkoutRequestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, txn); err != nil {
		app.internalServerError(w, r, err)
	}
}
