package main

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Kenyan mobile numbers in international form: 2547 plus 8 digits.
	Validate.RegisterValidation("kenyanphone", func(fl validator.FieldLevel) bool {
		matched, _ := regexp.MatchString(`^2547\d{8}$`, fl.Field().String())
		return matched
	})

	// Daraja account references: alphanumeric, at most 12 characters.
	Validate.RegisterValidation("accountref", func(fl validator.FieldLevel) bool {
		matched, _ := regexp.MatchString(`^[a-zA-Z0-9]{1,12}$`, fl.Field().String())
		return matched
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1_048_578 //1mb
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(data)
}

// readCallbackJSON decodes gateway deliveries. Unlike API bodies,
// unknown fields are tolerated: Daraja adds fields without notice and
// a decode failure here must not bounce the delivery.
func readCallbackJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1_048_578 //1mb
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	return json.NewDecoder(r.Body).Decode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	type envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}

	return writeJSON(w, status, &envelope{
		Success: false,
		Message: message,
		Status:  status,
	})
}

func (app *application) jsonResponse(w http.ResponseWriter, status int, data any) error {
	type envelope struct {
		Data any `json:"data"`
	}
	return writeJSON(w, status, &envelope{Data: data})
}
