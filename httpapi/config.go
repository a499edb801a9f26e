package httpapi

// Config defines HTTP API settings.
type Config struct {
	Addr     string
	BasePath string
	// BaseURL prefixes share links; empty uses the request host.
	BaseURL string
	// HubHistory bounds the SSE replay buffer.
	HubHistory int
}
