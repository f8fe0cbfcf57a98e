package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// backupCheckInterval is how often the scheduler asks whether a backup is due.
	backupCheckInterval = time.Hour
)
