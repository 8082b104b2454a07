package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type Config struct {
	Dev     bool         `mapstructure:"dev"`
	LogPath string       `mapstructure:"log_path"`
	Server  ServerConfig `mapstructure:"server"`
	Text    TextConfig   `mapstructure:"text"`
	Image   ImageConfig  `mapstructure:"image"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type TextConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ImageConfig struct {
	AccountID string        `mapstructure:"account_id"`
	APIToken  string        `mapstructure:"api_token"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	Width     int           `mapstructure:"width"`
	Height    int           `mapstructure:"height"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// providerKeys lists the conventional env var holding each provider's key.
var providerKeys = map[string]string{
	ProviderGroq:   "GROQ_API_KEY",
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dev", false)
	v.SetDefault("log_path", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)

	v.SetDefault("text.provider", ProviderGroq)
	v.SetDefault("text.model", "")
	v.SetDefault("text.base_url", "")
	v.SetDefault("text.temperature", 0.7)
	v.SetDefault("text.max_tokens", 1024)
	v.SetDefault("text.timeout", 60*time.Second)

	v.SetDefault("image.model", "@cf/stabilityai/stable-diffusion-xl-base-1.0")
	v.SetDefault("image.base_url", "")
	v.SetDefault("image.width", 1024)
	v.SetDefault("image.height", 1024)
	v.SetDefault("image.timeout", 60*time.Second)
}

// Flags registers the command line overrides understood by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (default ./scribe.yaml)")
	fs.Bool("dev", false, "Development mode")
	fs.String("log-path", "", "Directory to save the log file in")
	fs.String("host", "localhost", "API server host")
	fs.Int("port", 8080, "API server port")
	fs.String("provider", ProviderGroq, "Text backend: groq, openai, ollama or gemini")
	fs.String("model", "", "Text model (provider default when empty)")
}

var flagKeys = map[string]string{
	"dev":      "dev",
	"log-path": "log_path",
	"host":     "server.host",
	"port":     "server.port",
	"provider": "text.provider",
	"model":    "text.model",
}

// Load reads .env, an optional config file, SCRIBE_* environment variables
// and flags, in increasing order of precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	configFile := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("scribe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("image.account_id", "SCRIBE_IMAGE_ACCOUNT_ID", "CLOUDFLARE_ACCOUNT_ID"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("image.api_token", "SCRIBE_IMAGE_API_TOKEN", "CLOUDFLARE_API_TOKEN"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("text.api_key", "SCRIBE_TEXT_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Text.Provider = strings.ToLower(strings.TrimSpace(cfg.Text.Provider))
	if cfg.Text.APIKey == "" {
		if name, ok := providerKeys[cfg.Text.Provider]; ok {
			cfg.Text.APIKey = os.Getenv(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that would make the process unusable. Missing
// credentials are not an error here; the gateway reports them per capability.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Text.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unknown text provider %q", c.Text.Provider)
	}
	if c.Text.Temperature < 0 || c.Text.Temperature > 2 {
		return fmt.Errorf("text.temperature must be between 0 and 2, got %v", c.Text.Temperature)
	}
	if c.Text.MaxTokens <= 0 {
		return fmt.Errorf("text.max_tokens must be positive, got %d", c.Text.MaxTokens)
	}
	if c.Image.Width <= 0 || c.Image.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", c.Image.Width, c.Image.Height)
	}
	return nil
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerURL is the base URL clients of the API server should use.
func (c *Config) ServerURL() string {
	return "http://" + c.ServerAddr()
}
