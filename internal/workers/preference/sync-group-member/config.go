// internal/workers/preference/sync-group-member/config.go
package syncgroupmember

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
