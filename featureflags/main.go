package featureflags

import (
	"net/http"
	"time"

	"github.com/Unleash/unleash-client-go/v3"
	"github.com/rs/zerolog/log"
)

// Config for the unleash connection
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	URL         string `mapstructure:"url"`
	AppName     string `mapstructure:"app_name"`
	InstanceID  string `mapstructure:"instance_id"`
	Environment string `mapstructure:"environment"`
}

var initialized bool

// Init connects the unleash client. When the flag service is disabled every
// lookup falls back to the value passed by the caller.
func Init(cfg Config) {
	if !cfg.Enabled {
		return
	}
	err := unleash.Initialize(
		unleash.WithListener(&listener{}),
		unleash.WithAppName(cfg.AppName),
		unleash.WithInstanceId(cfg.InstanceID),
		unleash.WithUrl(cfg.URL),
		unleash.WithEnvironment(cfg.Environment),
		unleash.WithRefreshInterval(15*time.Second),
		unleash.WithHttpClient(&http.Client{Timeout: 5 * time.Second}),
	)
	if err != nil {
		log.Error().Err(err).
			Str("section", "featureflags").
			Str("action", "init").
			Msg("Unable to initialize feature flags, using fallbacks")
		return
	}
	initialized = true
}

// IsEnabled checks a flag, returning the fallback when the flag service is
// not connected.
func IsEnabled(name string, fallback bool) bool {
	if !initialized {
		return fallback
	}
	return unleash.IsEnabled(name, unleash.WithFallback(fallback))
}

type listener struct{}

func (l *listener) OnError(err error) {
	log.Warn().Err(err).Str("section", "featureflags").Msg("Feature flag client error")
}

func (l *listener) OnWarning(err error) {
	log.Warn().Err(err).Str("section", "featureflags").Msg("Feature flag client warning")
}

func (l *listener) OnReady() {
	log.Info().Str("section", "featureflags").Msg("Feature flag client ready")
}

func (l *listener) OnCount(name string, enabled bool) {}

func (l *listener) OnSent(payload unleash.MetricsData) {}

func (l *listener) OnRegistered(payload unleash.ClientData) {}
