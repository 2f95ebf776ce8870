package oaskema

import "errors"

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType          = "invalid_type"
	CodeTooSmall             = "too_small"
	CodeTooBig               = "too_big"
	CodeMultipleOf           = "multiple_of"
	CodeTooShort             = "too_short"
	CodeTooLong              = "too_long"
	CodeUniqueItems          = "unique_items"
	CodeTooFewProperties     = "too_few_properties"
	CodeTooManyProperties    = "too_many_properties"
	CodeRequired             = "required"
	CodeInvalidEnum          = "invalid_enum"
	CodePattern              = "pattern"
	CodeAnyOfMismatch        = "any_of_mismatch"
	CodeOneOfMismatch        = "one_of_mismatch"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
)

// Issue represents a single validation finding.
type Issue struct {
	Path    string // Dotted/indexed location (for example: items[2].price); empty at the root.
	Code    string // One of the codes listed above.
	Message string
}

// Resolution-time failures. These abort building a schema graph and are
// returned as wrapped errors, never collected as validation findings.
var (
	ErrUnresolvableReference = errors.New("oaskema: unresolvable reference")
	ErrInvalidSchema         = errors.New("oaskema: invalid schema definition")
	ErrNoLoader              = errors.New("oaskema: external reference requires a loader")
	ErrNoRootSchema          = errors.New("oaskema: document has no root schema")
)
