package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Topics overrides the transport's feed and destination names. Empty fields keep the
// transport defaults; "{identity}" is replaced by the local identity.
type Topics struct {
	Public      string `mapstructure:"public" yaml:"public"`
	Private     string `mapstructure:"private" yaml:"private"`
	Login       string `mapstructure:"login" yaml:"login"`
	Chat        string `mapstructure:"chat" yaml:"chat"`
	PrivateChat string `mapstructure:"private_chat" yaml:"private_chat"`
}

// Config holds client configuration values.
type Config struct {
	Identity        string        `mapstructure:"identity" yaml:"identity" validate:"required,max=64"`
	Transport       string        `mapstructure:"transport" yaml:"transport" validate:"oneof=stomp nats memory"`
	ServerURL       string        `mapstructure:"server_url" yaml:"server_url" validate:"omitempty,url"`
	NATSURL         string        `mapstructure:"nats_url" yaml:"nats_url" validate:"omitempty,url"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout" validate:"gt=0"`
	HeartBeat       time.Duration `mapstructure:"heartbeat" yaml:"heartbeat" validate:"gte=0"`
	InboundBuffer   int           `mapstructure:"inbound_buffer" yaml:"inbound_buffer" validate:"gt=0"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error"`
	HistoryPath     string        `mapstructure:"history_path" yaml:"history_path" validate:"required"`
	HistoryLimit    int           `mapstructure:"history_limit" yaml:"history_limit" validate:"gt=0"`
	StatusAddr      string        `mapstructure:"status_addr" yaml:"status_addr" validate:"omitempty,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	Topics          Topics        `mapstructure:"topics" yaml:"topics"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Transport:       "stomp",
		ServerURL:       "ws://localhost:8080/ws/websocket",
		NATSURL:         "nats://127.0.0.1:4222",
		DialTimeout:     10 * time.Second,
		HeartBeat:       0,
		InboundBuffer:   64,
		LogLevel:        "info",
		HistoryPath:     ":memory:",
		HistoryLimit:    50,
		ShutdownTimeout: 5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Identity != "" {
		c.Identity = other.Identity
	}
	if other.Transport != "" {
		c.Transport = other.Transport
	}
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.NATSURL != "" {
		c.NATSURL = other.NATSURL
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.HeartBeat != 0 {
		c.HeartBeat = other.HeartBeat
	}
	if other.InboundBuffer != 0 {
		c.InboundBuffer = other.InboundBuffer
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.HistoryPath != "" {
		c.HistoryPath = other.HistoryPath
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.StatusAddr != "" {
		c.StatusAddr = other.StatusAddr
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	c.Topics.updateFrom(other.Topics)
}

func (t *Topics) updateFrom(other Topics) {
	if other.Public != "" {
		t.Public = other.Public
	}
	if other.Private != "" {
		t.Private = other.Private
	}
	if other.Login != "" {
		t.Login = other.Login
	}
	if other.Chat != "" {
		t.Chat = other.Chat
	}
	if other.PrivateChat != "" {
		t.PrivateChat = other.PrivateChat
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
