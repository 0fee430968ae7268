package mpesa

import (
	"encoding/base64"
	"time"
)

const timestampLayout = "20060102150405"

// Timestamp renders t in the compact YYYYMMDDHHmmss form Daraja uses
// both in the push envelope and in callback metadata.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Password derives the Lipa Na M-Pesa request credential. Daraja
// requires exactly base64(shortcode + passkey + timestamp); the same
// three inputs must always produce the same credential.
func Password(shortcode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
}
