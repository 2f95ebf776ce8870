// Package codec provides the standalone format converters behind the schema
// coercion engine: one typed wire/native pair per OpenAPI string format.
package codec

import "context"

// Codec converts between a wire representation W and a native value N.
// Decode goes wire to native, Encode native to wire; Encode output feeds back
// through Decode unchanged.
type Codec[W, N any] interface {
	Decode(ctx context.Context, w W) (N, error)
	Encode(ctx context.Context, n N) (W, error)
}
