package common

import (
	"github.com/lmring/lmring/internal/config"
)

// LoadEnvFile loads the tool's env file before config.Load runs. Variables
// already present in the process environment win.
func LoadEnvFile(path string) error {
	return config.LoadDotEnv(path)
}

// LoadConfig is LoadEnvFile followed by config.Load.
func LoadConfig(envFile string) (*config.Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}
