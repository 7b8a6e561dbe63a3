package main

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	HealthPort        int           `env:"HEALTH_PORT,default=8081"`
	CredentialBackend string        `env:"CREDENTIAL_BACKEND,default=badger"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/credentials"`
	SessionDir        string        `env:"SESSION_DIR,default=./sessions"`
	CredentialSecret  string        `env:"CREDENTIAL_SECRET"`
	AuthTokenSecret   string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	RemoteTimeout     time.Duration `env:"REMOTE_TIMEOUT,default=30s"`
	PollUnit          time.Duration `env:"POLL_UNIT,default=1s"`
	PollFloor         int           `env:"POLL_FLOOR,default=10"`
	PollCeiling       int           `env:"POLL_CEILING,default=300"`
	ThreadLimit       int           `env:"THREAD_LIMIT,default=10"`
	MessageLimit      int           `env:"MESSAGE_LIMIT,default=20"`
	MaxMessageLength  int           `env:"MAX_MESSAGE_LENGTH,default=1000"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=5s"`
	DirectoryMode     string        `env:"DIRECTORY_MODE,default=sandbox"`
	GatewayURL        string        `env:"GATEWAY_URL"`
	SandboxAccounts   string        `env:"SANDBOX_ACCOUNTS"`
}

func (c Config) validate() error {
	if c.PollFloor <= 0 || c.PollCeiling < c.PollFloor {
		return fmt.Errorf("invalid poll bounds: floor=%d ceiling=%d", c.PollFloor, c.PollCeiling)
	}
	switch c.CredentialBackend {
	case "badger", "file":
	default:
		return fmt.Errorf("unknown CREDENTIAL_BACKEND %q", c.CredentialBackend)
	}
	switch c.DirectoryMode {
	case "sandbox":
	case "gateway":
		if c.GatewayURL == "" {
			return fmt.Errorf("GATEWAY_URL is required in gateway mode")
		}
	default:
		return fmt.Errorf("unknown DIRECTORY_MODE %q", c.DirectoryMode)
	}
	return nil
}

type sandboxAccount struct {
	username string
	password string
}

// parseAccounts reads "alice:pw,bob:pw".
func parseAccounts(raw string) ([]sandboxAccount, error) {
	var accounts []sandboxAccount
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, password, ok := strings.Cut(entry, ":")
		if !ok || username == "" || password == "" {
			return nil, fmt.Errorf("SANDBOX_ACCOUNTS entry %q must be username:password", entry)
		}
		accounts = append(accounts, sandboxAccount{username: username, password: password})
	}
	return accounts, nil
}
