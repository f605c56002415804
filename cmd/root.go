package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "resume-analyzer"
)

type Config struct {
	Server *ServerConfig `mapstructure:"server"`
	Store  *StoreConfig  `mapstructure:"store"`
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type StoreConfig struct {
	URL        string `mapstructure:"url"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type GeminiConfig struct {
	APIKey        string        `mapstructure:"api-key"`
	APIKeyFile    string        `mapstructure:"api-key-file"`
	Backend       string        `mapstructure:"backend"`
	Project       string        `mapstructure:"project"`
	Location      string        `mapstructure:"location"`
	Model         string        `mapstructure:"model"`
	FallbackModel string        `mapstructure:"fallback-model"`
	RetryBackoff  time.Duration `mapstructure:"retry-backoff"`
	MaxLogLength  int           `mapstructure:"max-log-length"`
}

var envBindings = map[string]string{
	"server.addr":             "SERVER_ADDR",
	"server.read-timeout":     "SERVER_READ_TIMEOUT",
	"server.shutdown-timeout": "SERVER_SHUTDOWN_TIMEOUT",
	"store.url":               "STORE_URL",
	"store.database":          "STORE_DB_NAME",
	"store.collection":        "COLLECTION_NAME",
	"gemini.api-key":          "GEMINI_API_KEY",
	"gemini.api-key-file":     "GEMINI_API_KEY_FILE",
	"gemini.backend":          "GEMINI_BACKEND",
	"gemini.project":          "GOOGLE_CLOUD_PROJECT",
	"gemini.location":         "GOOGLE_CLOUD_LOCATION",
	"gemini.model":            "GEMINI_MODEL",
	"gemini.fallback-model":   "GEMINI_FALLBACK_MODEL",
	"gemini.retry-backoff":    "GEMINI_RETRY_BACKOFF",
	"gemini.max-log-length":   "GEMINI_MAX_LOG_LENGTH",
}

var defaults = map[string]any{
	"server.addr":             ":8000",
	"server.read-timeout":     15 * time.Second,
	"server.shutdown-timeout": 10 * time.Second,
	"store.url":               "sqlite://resume_analysis.db",
	"store.database":          "resume_analysis_db",
	"store.collection":        "analyses",
	"gemini.backend":          "gemini",
	"gemini.location":         "us-central1",
	"gemini.model":            "gemini-2.5-flash",
	"gemini.retry-backoff":    time.Second,
	"gemini.max-log-length":   200,
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-analyzer scores a resume against a job description with Gemini and keeps every analysis",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-analyzer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only the implicit config may be absent; everything has env and defaults.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Store == nil {
		config.Store = &StoreConfig{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}

	return config, nil
}
