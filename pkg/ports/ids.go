package ports

// IDSource produces the opaque unique tokens used as correlation ids.
// Implementations need no coordination across processes beyond the
// collision bounds of their randomness source.
type IDSource interface {
	NewID() string
}
