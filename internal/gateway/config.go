package gateway

import "time"

// Config holds HTTP gateway configuration.
type Config struct {
	Bind            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// HistoryLimit is the default transcript read window.
	HistoryLimit int

	// DeleteRecentBatch is the default batch for the delete-recent route.
	DeleteRecentBatch int
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		// Chat turns block on the model backend plus its retry budget.
		c.WriteTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 20
	}
	if c.DeleteRecentBatch <= 0 {
		c.DeleteRecentBatch = 3
	}
}
