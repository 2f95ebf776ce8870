package codec

import (
	"context"

	oaskema "github.com/reoring/oaskema"
	"github.com/reoring/oaskema/internal/wire"
)

// Base64 returns a Codec between standard-alphabet base64 text and raw bytes
// (the byte format).
func Base64() Codec[string, []byte] {
	return base64Codec{}
}

type base64Codec struct{}

func (base64Codec) Decode(ctx context.Context, w string) ([]byte, error) {
	b, err := wire.ParseBase64(w)
	if err != nil {
		return nil, oaskema.NewException(oaskema.Issue{Code: oaskema.CodeInvalidType, Message: "expected a base64 string"})
	}
	return b, nil
}

func (base64Codec) Encode(ctx context.Context, n []byte) (string, error) {
	return wire.FormatBase64(n), nil
}

// Binary returns a Codec between raw octet text and bytes (the binary
// format). Both directions are plain conversions and never fail.
func Binary() Codec[string, []byte] {
	return binaryCodec{}
}

type binaryCodec struct{}

func (binaryCodec) Decode(ctx context.Context, w string) ([]byte, error) {
	return wire.ParseBinary(w), nil
}

func (binaryCodec) Encode(ctx context.Context, n []byte) (string, error) {
	return wire.FormatBinary(n), nil
}
