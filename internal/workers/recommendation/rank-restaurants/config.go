// internal/workers/recommendation/rank-restaurants/config.go
package rankrestaurants

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
