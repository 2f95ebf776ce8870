package codec

import (
	"context"
	"time"

	oaskema "github.com/reoring/oaskema"
	"github.com/reoring/oaskema/internal/wire"
)

// TimeRFC3339 returns a Codec that converts between RFC 3339 strings and
// time.Time. Decode accepts nanosecond precision; Encode normalizes to UTC
// and trims trailing zeros, so decoding its output is lossless.
func TimeRFC3339() Codec[string, time.Time] {
	return rfc3339Codec{}
}

type rfc3339Codec struct{}

func (rfc3339Codec) Decode(ctx context.Context, w string) (time.Time, error) {
	t, err := wire.ParseDateTime(w)
	if err != nil {
		return time.Time{}, oaskema.NewException(oaskema.Issue{Code: oaskema.CodeInvalidType, Message: "expected a date-time"})
	}
	return t, nil
}

func (rfc3339Codec) Encode(ctx context.Context, n time.Time) (string, error) {
	return wire.FormatDateTime(n), nil
}

// Date returns a Codec for full-date strings (RFC 3339 full-date, the date
// format). Encode renders the time's own calendar date; it does not shift
// zones.
func Date() Codec[string, time.Time] {
	return dateCodec{}
}

type dateCodec struct{}

func (dateCodec) Decode(ctx context.Context, w string) (time.Time, error) {
	t, err := wire.ParseDate(w)
	if err != nil {
		return time.Time{}, oaskema.NewException(oaskema.Issue{Code: oaskema.CodeInvalidType, Message: "expected a date"})
	}
	return t, nil
}

func (dateCodec) Encode(ctx context.Context, n time.Time) (string, error) {
	return wire.FormatDate(n), nil
}
