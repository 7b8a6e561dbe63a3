package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_HTTP_ADDR targets a running inbox; empty starts one in process
	HTTPAddr string `envconfig:"E2E_HTTP_ADDR"`
	// E2E_HEALTH_ADDR targets a running gRPC health server
	HealthAddr string `envconfig:"E2E_HEALTH_ADDR"`
	Username   string `envconfig:"E2E_USERNAME" default:"alice"`
	Password   string `envconfig:"E2E_PASSWORD" default:"pw-a"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
