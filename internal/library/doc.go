// Package library describes the LibraryService contract the gateway speaks
// to: the library.proto messages and the nine RPC methods.
//
// The descriptors are assembled at init from a declarative table, so the
// gateway needs no generated code to encode requests or decode responses.
// Messages are created with dynamicpb from these descriptors.
package library
