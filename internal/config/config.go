// Copyright (c) 2025 ariusbronte

package config

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ariusbronte/vkbot/userbot"
)

const (
	DefaultConfigPath = "vkbot.toml"
	DefaultRulesPath  = "rules.yaml"
	DefaultName       = "userbot"
	DefaultSendBurst  = 1
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Auth     AuthConfig     `toml:"auth"`
	LongPoll LongPollConfig `toml:"longpoll"`
	Send     SendConfig     `toml:"send"`
	Rules    RulesConfig    `toml:"rules"`
}

type LogConfig struct {
	Name   string `toml:"name"`
	Level  string `toml:"level" validate:"oneof=trace debug info warn error disable"`
	Format string `toml:"format" validate:"oneof=text json"`
}

type AuthConfig struct {
	AppID       uint64 `toml:"app_id"`
	AccessToken string `toml:"access_token"`
	Login       string `toml:"login" validate:"required_with=Password"`
	Password    string `toml:"password"`
}

type LongPollConfig struct {
	userbot.RunConfig
	// Pause after a failed fetch, e.g. "2s".
	ErrorDelay time.Duration `toml:"error_delay" validate:"gte=0"`
}

type SendConfig struct {
	// Messages per second; 0 disables limiting.
	Rate  float64 `toml:"rate" validate:"gte=0"`
	Burst int     `toml:"burst" validate:"gte=1"`
}

type RulesConfig struct {
	Path string `toml:"path"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the configuration used for every key the file leaves out.
func Default() Config {
	return Config{
		Log: LogConfig{
			Name:   DefaultName,
			Level:  userbot.LogInfo,
			Format: "text",
		},
		LongPoll: LongPollConfig{
			RunConfig: userbot.DefaultRunConfig(),
		},
		Send: SendConfig{
			Burst: DefaultSendBurst,
		},
		Rules: RulesConfig{
			Path: DefaultRulesPath,
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "[Config] stat")
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "[Config] decoding %s", path)
	}

	return cfg, cfg.Validate()
}

// Parse decodes TOML text over the defaults.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "[Config] decoding")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.Errorf("[Config] %s failed on '%s'", verrs[0].Namespace(), verrs[0].Tag())
		}
		return errors.Wrap(err, "[Config] validating")
	}
	return errors.Wrap(c.LongPoll.RunConfig.Validate(), "[Config] longpoll")
}

// Credentials returns the [auth] section as bot credentials.
func (c Config) Credentials() userbot.Credentials {
	return userbot.Credentials{
		AppID:       c.Auth.AppID,
		AccessToken: c.Auth.AccessToken,
		Login:       c.Auth.Login,
		Password:    c.Auth.Password,
	}
}

// ClientConfig returns the options for userbot.New, logging to out.
func (c Config) ClientConfig(out io.Writer) userbot.ClientConfig {
	run := c.LongPoll.RunConfig.Clone()
	return userbot.ClientConfig{
		Name:       c.Log.Name,
		LogLevel:   c.Log.Level,
		LogOutput:  out,
		JSONLogs:   c.Log.Format == "json",
		ErrorDelay: c.LongPoll.ErrorDelay,
		RunConfig:  &run,
	}
}
