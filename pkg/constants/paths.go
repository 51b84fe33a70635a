package constants

// Route paths shared between the router and external docs.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
	PathWS     = "/ws"
)
