package server

import "context"

// Server is a network listener whose lifetime is driven by the fx lifecycle.
// Start must return once the server is accepting connections.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() string
}
