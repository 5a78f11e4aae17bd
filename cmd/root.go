package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "matchmate"
	envPrefix = "MATCHMATE"
)

type Config struct {
	APIURL    string         `mapstructure:"api-url"`
	WSURL     string         `mapstructure:"ws-url"`
	UserAgent string         `mapstructure:"user-agent"`
	Timeout   time.Duration  `mapstructure:"timeout"`
	Session   *SessionConfig `mapstructure:"session"`
	Matches   *MatchesConfig `mapstructure:"matches"`
	AI        *AIConfig      `mapstructure:"ai"`
}

type SessionConfig struct {
	// Backend is "file" or "redis".
	Backend string       `mapstructure:"backend"`
	File    string       `mapstructure:"file"`
	Redis   *RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type MatchesConfig struct {
	MinScore    float64 `mapstructure:"min-score"`
	ExcludeFile string  `mapstructure:"exclude-file"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "matchmate is a terminal client for the matchmaking service",
		Long: "matchmate registers you, signs you in, shows the people the service matched you with,\n" +
			"compares two profiles and opens a chat with a match.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// errNotified marks failures the user has already been told about.
var errNotified = errors.New("already reported")

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errNotified) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is matchmate.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("api-url", "", "backend base url")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("api-url", "http://localhost:8000")
	viper.SetDefault("ws-url", "")
	viper.SetDefault("user-agent", "")
	viper.SetDefault("timeout", 10*time.Second)
	viper.SetDefault("session.backend", "file")
	viper.SetDefault("session.file", "")
	viper.SetDefault("session.redis.addr", "localhost:6379")
	viper.SetDefault("session.redis.password", "")
	viper.SetDefault("session.redis.db", 0)
	viper.SetDefault("session.redis.prefix", "")
	viper.SetDefault("matches.min-score", 0)
	viper.SetDefault("matches.exclude-file", "")
	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "")
	viper.SetDefault("ai.gemini.max-log-length", 0)
}

func initConfig() {
	// .env is optional, variables already set win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// An explicit config must be readable.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.SetConfigName(app)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, app))
	}

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config == nil {
		config = &Config{}
	}
	if config.Session == nil {
		config.Session = &SessionConfig{}
	}
	if config.Session.Redis == nil {
		config.Session.Redis = &RedisConfig{}
	}
	if config.Matches == nil {
		config.Matches = &MatchesConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}

// chatURL is the websocket base. Without ws-url the api url is reused.
func (c *Config) chatURL() string {
	if strings.TrimSpace(c.WSURL) != "" {
		return c.WSURL
	}
	return c.APIURL
}
