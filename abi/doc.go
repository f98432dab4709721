// Package abi defines the closed set of marshalable C types, the
// boundary-encoded value representation exchanged with generated shims, and
// the signature forms (by name, by numeric id, and on the CBOR wire) the
// rest of the bridge consumes.
package abi
