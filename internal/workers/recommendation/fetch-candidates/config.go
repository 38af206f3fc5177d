// internal/workers/recommendation/fetch-candidates/config.go
package fetchcandidates

import "time"

type Config struct {
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		MaxResults: 20,
	}
}
