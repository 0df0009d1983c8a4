package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"autopost/internal/config"
	"autopost/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	logLevel string
	appCfg   config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "autopost",
	Short: "AutoPost AI CLI",
	Long:  "Collects trending topics, lets a language model pick and draft posts, and schedules them on WordPress.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override app.log_level (debug, info, warn, error)")
}

// envBindings maps config keys to the conventional variable names.
var envBindings = map[string]string{
	"llm.openai_api_key":      "OPENAI_API_KEY",
	"llm.anthropic_api_key":   "ANTHROPIC_API_KEY",
	"sources.newsapi.api_key": "NEWS_API_KEY",
	"wordpress.token":         "WORDPRESS_TOKEN",
	"susanoo.api_key":         "SUSANOO_API_KEY",
	"redis.addr":              "REDIS_ADDR",
}

func initConfig() {
	loadDotenv(".env", false)
	loadDotenv(".env.local", true)

	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/autopost")
		v.AddConfigPath("configs")
	}
	v.SetEnvPrefix("AUTOPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, "AUTOPOST_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	appCfg.FillDefaults()
	if logLevel != "" {
		appCfg.App.LogLevel = logLevel
	}
	slog.SetDefault(logging.New(appCfg.App.LogLevel))
}

// loadDotenv reads a .env style file if present. Later files win when override is set.
func loadDotenv(path string, override bool) {
	load := godotenv.Load
	if override {
		load = godotenv.Overload
	}
	if err := load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
	}
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}
