// Package model defines stable boundary types for API layers.
//
// Record identity (canonical record bytes, names, routing keys) is
// unaffected by any projection. These structs are the only types intended
// for direct JSON serialization by consumers; failures cross the boundary
// as CodedError values, never panics.
package model
