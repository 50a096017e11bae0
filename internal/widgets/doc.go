// Package widgets contains dumb render primitives.
//
// Allowed here:
// - stateless drawing helpers (tables, framed boxes, bars, inputs)
//
// Not allowed here:
// - key handling, app state transitions, or gateway calls
package widgets
