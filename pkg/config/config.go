package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Server      ServerConfig      `mapstructure:"server"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Render      RenderConfig      `mapstructure:"render"`
	Notices     NoticesConfig     `mapstructure:"notices"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// ServerConfig holds the real-time transport configuration
type ServerConfig struct {
	URL               string        `mapstructure:"url"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectDelay time.Duration `mapstructure:"max_reconnect_delay"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
}

// AgentConfig is sent with every outgoing message as the per-turn agent config
type AgentConfig struct {
	Tools      map[string]bool `mapstructure:"tools"`
	UseMemory  bool            `mapstructure:"use_memory"`
	Deepsearch bool            `mapstructure:"deepsearch"`
}

// RenderConfig holds markdown and diagram rendering options
type RenderConfig struct {
	CodeStyle        string   `mapstructure:"code_style"`
	DiagramLanguages []string `mapstructure:"diagram_languages"`
	DiagramPadding   float64  `mapstructure:"diagram_padding"`
}

// NoticesConfig holds notification display options
type NoticesConfig struct {
	Duration time.Duration `mapstructure:"duration"`
}

// AttachmentsConfig holds limits for files attached to outgoing messages
type AttachmentsConfig struct {
	MaxInlineBytes int `mapstructure:"max_inline_bytes"`
}

// Load loads configuration from file and environment.
// An empty cfgFile searches ./.tessera and the XDG config directory.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := SettingsDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath("./.tessera")
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("settings")
	}

	v.SetEnvPrefix("TESSERA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvironmentVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing search-path file is fine; an explicit file must exist.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading files or env
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	// Defaults are static and always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate checks values that would leave the client unusable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("invalid server.url: must not be empty")
	}
	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("invalid server.reconnect_delay: %s", c.Server.ReconnectDelay)
	}
	if c.Server.MaxReconnectDelay < c.Server.ReconnectDelay {
		return fmt.Errorf("invalid server.max_reconnect_delay: %s is below reconnect_delay %s",
			c.Server.MaxReconnectDelay, c.Server.ReconnectDelay)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	return nil
}

// ToolFlags returns a copy of the per-tool enable flags
func (c *Config) ToolFlags() map[string]bool {
	flags := make(map[string]bool, len(c.Agent.Tools))
	for name, enabled := range c.Agent.Tools {
		flags[name] = enabled
	}
	return flags
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.log_file", "./.tessera/system.log")
	v.SetDefault("logging.preserve", false)
	v.SetDefault("logging.level", "info")

	// Transport defaults
	v.SetDefault("server.url", "ws://localhost:5000/ws")
	v.SetDefault("server.reconnect_delay", "1s")
	v.SetDefault("server.max_reconnect_delay", "30s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.ping_interval", "25s")

	// Agent defaults
	v.SetDefault("agent.tools", map[string]bool{
		"web_search":       true,
		"sandbox":          true,
		"image_generation": true,
		"browser":          true,
		"github":           true,
		"google_drive":     true,
		"email":            true,
	})
	v.SetDefault("agent.use_memory", true)
	v.SetDefault("agent.deepsearch", false)

	// Rendering defaults
	v.SetDefault("render.code_style", "monokai")
	v.SetDefault("render.diagram_languages", []string{"mermaid"})
	v.SetDefault("render.diagram_padding", 16)

	v.SetDefault("notices.duration", "4s")
	v.SetDefault("attachments.max_inline_bytes", 256*1024)
}

// bindEnvironmentVariables binds the short env names used in deployments
func bindEnvironmentVariables(v *viper.Viper) {
	_ = v.BindEnv("server.url", "TESSERA_SERVER_URL", "TESSERA_URL")
	_ = v.BindEnv("logging.level", "TESSERA_LOG_LEVEL")
	_ = v.BindEnv("logging.log_file", "TESSERA_LOG_FILE")
	_ = v.BindEnv("agent.deepsearch", "TESSERA_DEEPSEARCH")
}
