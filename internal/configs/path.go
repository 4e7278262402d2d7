package configs

import (
	"os"

	"github.com/hilthontt/chatkit/internal/env"
)

var candidates = []string{
	"./config.yaml",
	"./config.yml",
	"/etc/chatkit/config.yaml",
	"/app/config.yaml",
}

// DetermineConfigPath picks the config file: the explicit flag value, then
// CHATKIT_CONFIG, then the first candidate that exists. An empty result
// means configuration comes from the environment alone.
func DetermineConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := env.GetString("CHATKIT_CONFIG", ""); path != "" {
		return path
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
