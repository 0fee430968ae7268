package mpesa

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// STKPushRequest is the envelope Daraja expects on
// POST /mpesa/stkpush/v1/processrequest.
type STKPushRequest struct {
	BusinessShortCode string  `json:"BusinessShortCode"`
	Password          string  `json:"Password"`
	Timestamp         string  `json:"Timestamp"`
	TransactionType   string  `json:"TransactionType"`
	Amount            float64 `json:"Amount"`
	PartyA            string  `json:"PartyA"`
	PartyB            string  `json:"PartyB"`
	PhoneNumber       string  `json:"PhoneNumber"`
	CallBackURL       string  `json:"CallBackURL"`
	AccountReference  string  `json:"AccountReference"`
	TransactionDesc   string  `json:"TransactionDesc"`
}

// STKPushResponse is Daraja's synchronous acknowledgment. The
// CheckoutRequestID is the correlation key the result callback will
// carry later.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// ResultCode is Daraja's outcome code. Different gateway environments
// encode it inconsistently (number 0 vs string "0"), so it unmarshals
// from either and normalizes to a canonical decimal string.
type ResultCode string

func (c *ResultCode) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid result code %q", s)
		}
		s = strconv.FormatInt(n, 10)
	}
	*c = ResultCode(s)
	return nil
}

// IsSuccess is the single place the success code is compared.
func (c ResultCode) IsSuccess() bool {
	return c == "0"
}

func (c ResultCode) String() string {
	return string(c)
}

// MetadataItem is one entry of the flat name/value list Daraja attaches
// to successful callbacks (Amount, MpesaReceiptNumber, Balance,
// TransactionDate, PhoneNumber).
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// STKCallback is the inner result payload of a callback delivery.
type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        ResultCode        `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackEnvelope mirrors the Body.stkCallback nesting Daraja posts to
// the registered callback URL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}
