// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides henix's standard CBOR encoding configuration.
//
// henix uses two serialization formats with a clear boundary:
//
//   - JSON and YAML for inputs a person writes or Nix produces: the
//     node map from "nix eval --json" and nodes files.
//   - CBOR for state henix writes for itself: the run journal read
//     back by "henix status".
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. Same
// logical data always produces identical bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types that are only ever CBOR carry `cbor` struct tags. fxamacker/cbor
// falls back to `json` tags when `cbor` tags are absent; never put both
// on the same field.
package codec
