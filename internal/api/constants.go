package api

// API limits.
const (
	// MaxUploadSize is the maximum allowed size for cover photos and CSV uploads (10 MB).
	MaxUploadSize = 10 << 20

	// apiPrefix is the root of the versioned API.
	apiPrefix = "/api/v1"
)
