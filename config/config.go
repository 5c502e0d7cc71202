package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultPath = "./config/config.yaml"

type Server struct {
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	MaxUploadBytes int64    `mapstructure:"maxUploadBytes"`
	CorsOrigins    []string `mapstructure:"corsOrigins"`
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LLM struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"apiKey"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
}

type Ollama struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Model string `mapstructure:"model"`
}

func (o *Ollama) Address() string {
	return fmt.Sprintf("http://%s:%s", o.Host, o.Port)
}

type Nats struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	Stream    string `mapstructure:"stream"`
	Subject   string `mapstructure:"subject"`
	Workers   int    `mapstructure:"workers"`
	QueueSize int    `mapstructure:"queueSize"`
}

func (n Nats) ConnStr() string {
	return fmt.Sprintf("nats://%s:%s", n.Host, n.Port)
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server Server `mapstructure:"server"`
	LLM    LLM    `mapstructure:"llm"`
	Ollama Ollama `mapstructure:"ollama"`
	Nats   Nats   `mapstructure:"nats"`
	Log    Log    `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.maxUploadBytes", 10<<20)
	v.SetDefault("server.corsOrigins", []string{"*"})

	v.SetDefault("llm.provider", "googleai")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", 45*time.Second)
	v.SetDefault("llm.temperature", 0.5)

	v.SetDefault("ollama.host", "localhost")
	v.SetDefault("ollama.port", "11434")
	v.SetDefault("ollama.model", "llava")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.host", "localhost")
	v.SetDefault("nats.port", "4222")
	v.SetDefault("nats.stream", "CITIASSIST")
	v.SetDefault("nats.subject", "citiassist.issues.drafted")
	v.SetDefault("nats.workers", 2)
	v.SetDefault("nats.queueSize", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads the YAML file at path when it exists and overlays the
// environment on top. The Gemini key is read from GEMINI_API_KEY (or
// GOOGLE_API_KEY); a missing key is not an error here.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.BindEnv("llm.apiKey", "GEMINI_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}
