package oaskema

// Package oaskema provides:
//
// - Reference resolution for OpenAPI 3.x / Swagger 2.0 schema documents ($ref expansion into a shared node graph)
// - Validation of decoded values with ordered, path-qualified findings via Exception/Issue
// - Bidirectional coercion between wire and native forms (base64, date, date-time, uuid)
// - Discriminator-based polymorphic dispatch against the document's named-schema registry
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place format codecs under codec/, loaders under loader/, and the CLI under cmd/oaskema.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  doc, err := oaskema.ParseDocument(ctx, data)
//  s, _ := doc.Schema("Pet")
//
//  if err := oaskema.Validate(ctx, s, value); err != nil { ... }
//  msgs := oaskema.Errors(ctx, s, value)
//
//  native, err := oaskema.ToNative(s, value)
//  wire, err := oaskema.ToWire(s, native)
//
