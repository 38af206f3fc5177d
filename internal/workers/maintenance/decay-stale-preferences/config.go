// internal/workers/maintenance/decay-stale-preferences/config.go
package decaystalepreferences

import "time"

type Config struct {
	Timeout        time.Duration
	StaleAfterDays int
	DecayFactor    float64
	DecayFloor     float64
	BatchSize      int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        60 * time.Second,
		StaleAfterDays: 30,
		DecayFactor:    0.8,
		DecayFloor:     0.3,
		BatchSize:      100,
	}
}
