package providers

import (
	"github.com/samber/do/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/config"
	"github.com/chaptrailapp/chaptrail-server/internal/logger"
)

// ProvideConfig loads configuration from flags, environment, and .env file.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger configured from the
// environment.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})

	log.Info("Logger initialized",
		"environment", cfg.App.Environment,
		"level", cfg.Logger.Level,
	)
	return log, nil
}
