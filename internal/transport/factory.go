package transport

import (
	"fmt"

	"github.com/iksnae/agrichat/internal"
)

// New creates the responder selected by the transport configuration
func New(cfg internal.TransportConfig) (internal.Responder, error) {
	switch cfg.Mode {
	case internal.TransportCanned, "":
		internal.LogDebug("Using canned replies (delay %s)", cfg.CannedDelay)
		return NewCannedResponder(cfg.CannedDelay), nil
	case internal.TransportHTTP:
		internal.LogDebug("Using completions endpoint %s (model %s)", cfg.Endpoint, cfg.Model)
		return NewCompletionClient(cfg.Endpoint, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported transport: %s (supported: canned, http)", cfg.Mode)
	}
}
