package metrics

import (
	"net/http"
)

// Registry defines the interface for metrics collection
type Registry interface {
	// HTTP Metrics
	RecordHTTPRequest(method, path, statusCode string, duration float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()

	// Business Metrics
	IncURLsCreated()
	IncURLsDeduplicated()
	IncURLsResolved(source string)
	RecordCacheLookup(namespace, result string)
	IncAliasCollisions()
	IncAliasGenerationExhausted()

	// GetHandler serves the scrape endpoint; nil when metrics are disabled
	GetHandler() http.Handler
}

// NoOpRegistry provides a no-op implementation for when metrics are disabled
type NoOpRegistry struct{}

func NewNoOpRegistry() Registry {
	return &NoOpRegistry{}
}

func (n *NoOpRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {}
func (n *NoOpRegistry) IncHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) DecHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) IncURLsCreated()                                                     {}
func (n *NoOpRegistry) IncURLsDeduplicated()                                                {}
func (n *NoOpRegistry) IncURLsResolved(source string)                                       {}
func (n *NoOpRegistry) RecordCacheLookup(namespace, result string)                          {}
func (n *NoOpRegistry) IncAliasCollisions()                                                 {}
func (n *NoOpRegistry) IncAliasGenerationExhausted()                                        {}
func (n *NoOpRegistry) GetHandler() http.Handler                                            { return nil }

// Common label names as constants
const (
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatusCode = "status_code"
	LabelSource     = "source"
	LabelNamespace  = "namespace"
	LabelResult     = "result"
)
