package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/classify"
	"github.com/jadenpxrk/monofile/pkg/export"
	"github.com/jadenpxrk/monofile/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const appName = "monofile"

// logger is replaced in initLogger once flags and config are known.
var logger = zap.NewNop()

// configDirs are searched in order for config.toml and languages.yml.
func configDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", appName))
	}
	return append(dirs, ".")
}

// initConfig loads .env, then the config file, then MONOFILE_* environment variables.
func initConfig() {
	envErr := godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configDirs() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("MONOFILE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Unprefixed names used by the web app's .env files.
	_ = viper.BindEnv("gemini_api_key", "MONOFILE_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY")
	_ = viper.BindEnv("database_dsn", "MONOFILE_DATABASE_DSN", "DATABASE_URL")

	err := viper.ReadInConfig()
	initLogger()
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("Error loading .env file", zap.Error(envErr))
	}
	switch {
	case err == nil:
		logger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	case errors.As(err, new(viper.ConfigFileNotFoundError)):
		logger.Debug("No config file found, using defaults and flags")
	default:
		logger.Warn("Error reading config file", zap.Error(err))
	}
}

func initLogger() {
	l, err := logging.New(viper.GetBool("debug"), appName, version)
	logger = l
	if err != nil {
		logger.Warn("Falling back to example logger", zap.Error(err))
	}
}

// loadClassifier builds the classifier from --classifier-config, or the default lists.
func loadClassifier() (*classify.Classifier, error) {
	path := viper.GetString("classifier_config")
	if path == "" {
		return classify.Default(), nil
	}
	cfg, err := classify.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded classifier config", zap.String("path", path))
	return classify.New(cfg), nil
}

// loadLanguages reads --languages or the first languages.yml in the config dirs. Languages
// only refine PDF highlighting, so a missing file yields nil.
func loadLanguages() *export.Languages {
	path := viper.GetString("languages")
	if path == "" {
		for _, dir := range configDirs() {
			candidate := filepath.Join(dir, "languages.yml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return nil
	}
	langs, err := export.LoadLanguages(path)
	if err != nil {
		logger.Warn("Could not load language definitions", zap.Error(err))
		return nil
	}
	logger.Debug("Loaded language definitions", zap.String("path", path))
	return langs
}

// defaultDSN is a SQLite file next to the config file.
func defaultDSN() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appName, "monofile.db")
	}
	return "monofile.db"
}

func init() {
	cobra.OnInitialize(initConfig)
}
