package codec

import (
	"context"

	"github.com/google/uuid"

	oaskema "github.com/reoring/oaskema"
	"github.com/reoring/oaskema/internal/wire"
)

// UUID returns a Codec between canonical UUID text and uuid.UUID.
func UUID() Codec[string, uuid.UUID] {
	return uuidCodec{}
}

type uuidCodec struct{}

func (uuidCodec) Decode(ctx context.Context, w string) (uuid.UUID, error) {
	id, err := wire.ParseUUID(w)
	if err != nil {
		return uuid.UUID{}, oaskema.NewException(oaskema.Issue{Code: oaskema.CodeInvalidType, Message: "expected a uuid"})
	}
	return id, nil
}

func (uuidCodec) Encode(ctx context.Context, n uuid.UUID) (string, error) {
	return wire.FormatUUID(n), nil
}
