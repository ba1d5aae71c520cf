package main

import (
	skcrypto "github.com/skybridge-project/skybridge/crypto"
	"github.com/skybridge-project/skybridge/config"
	"github.com/skybridge-project/skybridge/identity"
	"github.com/skybridge-project/skybridge/internal/logger"
)

// loadConfig loads the process configuration from configDir, failing
// loudly on anything that would make a handshake endpoint unsafe to
// run (identity paths, transport address).
func loadConfig() (*config.Config, error) {
	return config.Load(config.LoaderOptions{ConfigDir: configDir})
}

// openTrustStore opens the file-backed trust store named by the
// configuration's identity section, creating it on first use.
func openTrustStore(cfg *config.Config) (*identity.FileTrustStore, error) {
	return identity.OpenFileTrustStore(cfg.Identity.TrustStorePath)
}

// newIdentityManager builds an in-process identity key manager over a
// fresh in-memory signing-key store (spec: "a single in-process
// identity manager" — protocol/SE-PoP/KEM keys live for the lifetime
// of one process; only trust records persist across restarts).
func newIdentityManager(sink identity.EventSink) *identity.Manager {
	return identity.NewManager(skcrypto.NewDefaultStorage(), sink)
}

// configureLogger sets the package-default logger's level from the
// loaded configuration.
func configureLogger(cfg *config.Config) {
	level := logger.InfoLevel
	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = logger.DebugLevel
		case "warn":
			level = logger.WarnLevel
		case "error":
			level = logger.ErrorLevel
		}
	}
	logger.GetDefaultLogger().SetLevel(level)
}
