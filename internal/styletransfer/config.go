package styletransfer

import "time"

// Config holds the configuration for the style-transfer client
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultConfig returns a Config with the service's documented limits
func DefaultConfig() Config {
	return Config{
		Timeout:      45 * time.Second,
		PollInterval: 3 * time.Second,
		MaxAttempts:  5,
	}
}
