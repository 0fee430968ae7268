package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_STKPush(t *testing.T) {
	ctx := context.Background()

	push := STKPushRequest{
		BusinessShortCode: "174379",
		Password:          Password("174379", "passkey", "20240115143022"),
		Timestamp:         "20240115143022",
		TransactionType:   "CustomerPayBillOnline",
		Amount:            500,
		PartyA:            "254712345678",
		PartyB:            "174379",
		PhoneNumber:       "254712345678",
		CallBackURL:       "https://example.com/callback",
		AccountReference:  "INV001",
		TransactionDesc:   "test",
	}

	t.Run("sends a bearer-authenticated push and parses the ack", func(t *testing.T) {
		var gotAuth string
		var gotBody STKPushRequest

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/mpesa/stkpush/v1/processrequest" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("decode push body: %v", err)
			}
			json.NewEncoder(w).Encode(STKPushResponse{
				MerchantRequestID:   "mr-1001",
				CheckoutRequestID:   "ws_CO_1001",
				ResponseCode:        "0",
				ResponseDescription: "Success. Request accepted for processing",
				CustomerMessage:     "Success. Request accepted for processing",
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		resp, err := client.STKPush(ctx, "token-abc", push)
		if err != nil {
			t.Fatalf("STKPush failed: %v", err)
		}

		if gotAuth != "Bearer token-abc" {
			t.Errorf("authorization header %q", gotAuth)
		}
		if gotBody.Password != push.Password || gotBody.CallBackURL != push.CallBackURL {
			t.Errorf("push envelope not sent verbatim: %+v", gotBody)
		}
		if resp.CheckoutRequestID != "ws_CO_1001" {
			t.Errorf("checkout request id %q", resp.CheckoutRequestID)
		}
	})

	t.Run("non-2xx becomes an APIError with the gateway message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"requestId":"1","errorCode":"400.002.02","errorMessage":"Bad Request - Invalid PhoneNumber"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.STKPush(ctx, "token", push)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusBadRequest {
			t.Errorf("status %d", apiErr.StatusCode)
		}
		if apiErr.Message != "Bad Request - Invalid PhoneNumber" {
			t.Errorf("message %q", apiErr.Message)
		}
	})

	t.Run("non-zero response code is a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(STKPushResponse{
				ResponseCode:        "1",
				ResponseDescription: "unable to lock subscriber",
			})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		_, err := client.STKPush(ctx, "token", push)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Message != "unable to lock subscriber" {
			t.Errorf("message %q", apiErr.Message)
		}
	})

	t.Run("missing checkout request id is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(STKPushResponse{ResponseCode: "0"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL)
		if _, err := client.STKPush(ctx, "token", push); err == nil {
			t.Fatal("expected error for ack without CheckoutRequestID")
		}
	})
}
