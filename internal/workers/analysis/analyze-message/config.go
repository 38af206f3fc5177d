// internal/workers/analysis/analyze-message/config.go
package analyzemessage

import "time"

type Config struct {
	Timeout time.Duration

	// UpdateThreshold is the overall-relevance bar for merging a message
	// into preferences; MinConfidence additionally gates on the member's
	// resulting confidence.
	UpdateThreshold float64
	MinConfidence   float64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		UpdateThreshold: 0.5,
		MinConfidence:   0.3,
	}
}
