// Package record maps rows of a table to typed Go records and back, with no
// schema written by hand: the schema is whatever the record type reads.
//
// Decode pipeline:
//  1. Introspect → probe-decode T against placeholder cells until the set of
//     nilable fields stops growing
//  2. Resolve → map schema positions to physical columns once per session
//     (identity, permutation or name map)
//  3. DecodeRow → decode each row through the shared mapping
//
// Encode mirrors it: the first record's MarshalRow records the schema, the
// override header is resolved once, and every record is written into
// row-major or column-major storage.
//
// Record types either implement Unmarshaler and Marshaler or are walked by
// reflection using `csv` struct tags. A type extending another calls the base
// type's method with the same Decoder, so both share one Cursor.
package record
