// Package wire converts format-qualified string values between their wire
// form and their native form. It is shared by the validator's type checks,
// the coercion entry points and the typed codecs, so all three agree on what
// a given format accepts and emits.
package wire

import (
	"time"

	"github.com/cristalhq/base64"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// ParseBase64 decodes a standard base64 wire string into bytes.
func ParseBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// FormatBase64 encodes bytes into the standard base64 wire form.
func FormatBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// ParseBinary reinterprets a raw octet string as bytes. Every string is a
// valid binary wire value.
func ParseBinary(s string) []byte { return []byte(s) }

// FormatBinary reinterprets bytes as a raw octet string.
func FormatBinary(b []byte) string { return string(b) }

// ParseDate parses a full-date (YYYY-MM-DD) wire string. The result is
// midnight UTC of that date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// FormatDate renders the date component of t in the time's own location, so
// a caller-built local date does not shift across midnight.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDateTime parses an RFC3339 wire string, accepting optional fractional
// seconds (RFC3339Nano first, plain RFC3339 as fallback).
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// FormatDateTime renders t in canonical form: UTC, RFC3339Nano (Go trims
// trailing zeros).
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseUUID parses an RFC 4122 textual UUID.
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// FormatUUID renders the canonical lower-case textual UUID.
func FormatUUID(u uuid.UUID) string { return u.String() }
