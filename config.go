package main

import (
	"strings"

	"github.com/BenB289/BMGPanel/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var cfgFile string

// initConfig points viper at the configuration file and the PANEL_
// environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("panel")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.WithError(err).Error("Issue reading the configuration file.")
		}
	}

	level, err := logrus.ParseLevel(viper.GetString(config.LogLevel))
	if err != nil {
		log.WithField("level", viper.GetString(config.LogLevel)).Warn("Unknown log level, using info.")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	logrus.SetLevel(level)
}

// loadConfig returns the typed configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Issue loading the configuration.")
	}
	return cfg
}
