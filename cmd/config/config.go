package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/mattsolo1/grove-campus/pkg/service"
	"github.com/mattsolo1/grove-campus/pkg/sync"
)

var (
	cfgFile string
	verbose bool
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "campus")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CAMPUS")

	// Set defaults
	viper.SetDefault("host", "")
	viper.SetDefault("data_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "campus"))
	viper.SetDefault("locale", "de")
	viper.SetDefault("timezone", "Europe/Berlin")
	viper.SetDefault("sync.root", "")
	viper.SetDefault("sync.max_downloads", 4)
	viper.SetDefault("watch.schedule", "@every 30m")

	if err := viper.ReadInConfig(); err == nil {
		// Do not print this in normal operation, it's noisy.
		// fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Load builds the service configuration from viper.
func Load() (*service.Config, error) {
	loc, err := time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	tag, err := language.Parse(viper.GetString("locale"))
	if err != nil {
		return nil, fmt.Errorf("invalid locale: %w", err)
	}
	targets, err := sync.DecodeTargets(viper.Get("targets"))
	if err != nil {
		return nil, err
	}

	return &service.Config{
		Host:         viper.GetString("host"),
		DataDir:      viper.GetString("data_dir"),
		SyncRoot:     viper.GetString("sync.root"),
		Language:     tag,
		Location:     loc,
		MaxDownloads: viper.GetInt("sync.max_downloads"),
		Targets:      targets,
	}, nil
}

// NewLogger returns the logger handed to the libraries.
func NewLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel) // Keep it quiet unless there are issues.
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(logger).WithField("component", "campus")
}

func InitService() (*service.Service, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	return service.New(config, service.WithLogger(NewLogger()))
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/campus/config.yaml)")
	cmd.PersistentFlags().BoolVar(&verbose, "debug", false, "Log portal requests to stderr")
}
