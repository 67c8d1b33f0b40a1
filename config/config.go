// Package config holds the viper keys used by the panel and the typed view
// of them loaded at startup.
package config

import (
	"github.com/BenB289/BMGPanel/acl"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// DataPath is the root directory of the YAML entity store.
	DataPath = "data"
	// APIHost is the address the HTTP API binds to.
	APIHost = "api.host"
	// APIPort is the port the HTTP API listens on.
	APIPort = "api.port"
	// APIKeys is the list of application API keys and their permissions.
	APIKeys = "api.keys"
	// ClientURL is the base URL used by the variable commands.
	ClientURL = "client.url"
	// ClientToken is the API key used by the variable commands.
	ClientToken = "client.token"
	// LogLevel is the logrus level name.
	LogLevel = "log.level"
)

// Config is the typed form of the configuration file.
type Config struct {
	Data   string       `mapstructure:"data"`
	API    APIConfig    `mapstructure:"api"`
	Client ClientConfig `mapstructure:"client"`
	Log    LogConfig    `mapstructure:"log"`
}

type APIConfig struct {
	Host string   `mapstructure:"host"`
	Port int      `mapstructure:"port"`
	Keys []APIKey `mapstructure:"keys"`
}

// APIKey is a bearer token and the capabilities it grants.
type APIKey struct {
	Token       string   `mapstructure:"token"`
	Permissions []string `mapstructure:"permissions"`
}

type ClientConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault(DataPath, "./data")
	viper.SetDefault(APIHost, "0.0.0.0")
	viper.SetDefault(APIPort, 8080)
	viper.SetDefault(ClientURL, "http://127.0.0.1:8080")
	viper.SetDefault(LogLevel, "info")
}

// Load unmarshals the current viper state into a Config and checks that
// every configured permission is a known capability.
func Load() (*Config, error) {
	SetDefaults()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "config: could not unmarshal configuration")
	}

	for _, k := range cfg.API.Keys {
		if k.Token == "" {
			return nil, errors.New("config: api key with an empty token")
		}
		if _, err := k.Capabilities(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Capabilities parses the permissions of the key.
func (k APIKey) Capabilities() ([]acl.Capability, error) {
	out := make([]acl.Capability, 0, len(k.Permissions))
	for _, p := range k.Permissions {
		c, err := acl.Parse(p)
		if err != nil {
			return nil, errors.Wrapf(err, "config: api key %s", redact(k.Token))
		}
		out = append(out, c)
	}
	return out, nil
}

// FindKey returns the configured key matching token.
func (c *Config) FindKey(token string) (APIKey, bool) {
	if token == "" {
		return APIKey{}, false
	}
	for _, k := range c.API.Keys {
		if k.Token == token {
			return k, true
		}
	}
	return APIKey{}, false
}

// ContainsAuthKey reports whether token is a configured API key.
func (c *Config) ContainsAuthKey(token string) bool {
	_, ok := c.FindKey(token)
	return ok
}

func redact(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
