package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iamwavecut/tool"
	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "DARKROOM_"

type (
	Config struct {
		TelegramAPIToken string `env:"TOKEN"`
		DefaultLanguage  string `env:"LANG,default=en"`
		LogLevel         int    `env:"LOG_LEVEL,default=4"`
		DotPath          string `env:"DOT_PATH,default=~/.darkroom"`
		DBName           string `env:"DB_NAME,default=darkroom.db"`
		MetricsAddr      string `env:"METRICS_ADDR"`
		Moderation       Moderation
	}

	// Moderation holds the dark room policy knobs.
	Moderation struct {
		TriggerCount             int           `env:"TRIGGER_COUNT,default=3"`
		MessageTimeFrame         time.Duration `env:"MESSAGE_TIME_FRAME,default=5m"`
		IntervalToPreventShaking time.Duration `env:"INTERVAL_TO_PREVENT_SHAKING,default=1s"`
		DurationOfBan            time.Duration `env:"DURATION_OF_BAN,default=10m"`
		CheckProhibitedWords     bool          `env:"CHECK_PROHIBITED_WORDS,default=true"`
		ProhibitedWords          []string      `env:"PROHIBITED_WORDS"`
		AdminPassword            string        `env:"ADMIN_PASSWORD"`
		AdminList                []string      `env:"ADMIN_LIST"`
		CommandMarker            string        `env:"COMMAND_MARKER,default=/"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Load reads the process configuration from DARKROOM_* environment variables once.
func Load() (Config, error) {
	once.Do(func() {
		cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

// LoadWith builds a config from an arbitrary lookuper, bypassing the process-wide cache.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.LogLevel < int(log.PanicLevel) || c.LogLevel > int(log.TraceLevel) {
		return fmt.Errorf("log level %d out of range", c.LogLevel)
	}
	if c.DBName == "" {
		return fmt.Errorf("db name is empty")
	}
	return c.Moderation.Validate()
}

func (m *Moderation) Validate() error {
	switch {
	case m.TriggerCount < 1:
		return fmt.Errorf("trigger count must be positive, got %d", m.TriggerCount)
	case !wholeMinutes(m.MessageTimeFrame):
		return fmt.Errorf("message time frame must be a whole number of minutes, got %s", m.MessageTimeFrame)
	case m.IntervalToPreventShaking < 0:
		return fmt.Errorf("debounce interval must not be negative, got %s", m.IntervalToPreventShaking)
	case !wholeMinutes(m.DurationOfBan):
		return fmt.Errorf("ban duration must be a whole number of minutes, got %s", m.DurationOfBan)
	case m.CommandMarker == "":
		return fmt.Errorf("command marker is empty")
	}
	return nil
}

func wholeMinutes(d time.Duration) bool {
	return d >= time.Minute && d%time.Minute == 0
}

// IsPreAuthorized reports whether the sender id is listed in ADMIN_LIST.
// Display names are never matched, users can set them freely.
func (m *Moderation) IsPreAuthorized(userID string) bool {
	return userID != "" && tool.In(userID, m.AdminList...)
}
