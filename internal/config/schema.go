// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for mikasa.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("2s", "1h30m") as well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!int":
		var ns int64
		if err := value.Decode(&ns); err != nil {
			return err
		}
		*d = Duration(ns)
		return nil
	case "!!str":
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("cannot parse %q as duration", value.Value)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Model     ModelConfig     `yaml:"model"`
	Chat      ChatConfig      `yaml:"chat"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig holds HTTP gateway settings.
type ServerConfig struct {
	Bind            string   `yaml:"bind"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds SQLite store settings. Durable memory and session
// state live in separate database files.
type StorageConfig struct {
	// MemoryPath is the durable memory database file. Defaults to
	// {data_dir}/memory.db.
	MemoryPath string `yaml:"memory_path"`

	// SessionsPath is the transcript/mode database file. Defaults to
	// {data_dir}/sessions.db.
	SessionsPath string `yaml:"sessions_path"`

	// DataDir is the base directory for default database paths.
	DataDir string `yaml:"data_dir"`

	// WAL enables WAL journal mode for concurrent reads. Defaults to true.
	WAL *bool `yaml:"wal"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout"`
}

// ModelConfig holds the Ollama backend settings.
type ModelConfig struct {
	// Endpoint is the base URL of the Ollama server.
	Endpoint string `yaml:"endpoint"`

	// Name is the model identifier passed to the backend.
	Name string `yaml:"name"`

	// MaxAttempts caps the synchronous retry loop around a completion call.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is the fixed pause between attempts.
	RetryDelay Duration `yaml:"retry_delay"`

	// Timeout bounds a single completion round trip.
	Timeout Duration `yaml:"timeout"`
}

// ChatConfig holds conversation pipeline settings.
type ChatConfig struct {
	// Owner is the durable-memory owner identity. Single-tenant for now;
	// a multi-user deployment would thread this from authentication.
	Owner string `yaml:"owner"`

	// HistoryLimit is the default transcript window for reads and prompts.
	HistoryLimit int `yaml:"history_limit"`

	// DeleteRecentBatch is how many entries "del prev" removes.
	DeleteRecentBatch int `yaml:"delete_recent_batch"`
}

// RetentionConfig controls the scheduled transcript pruning job.
type RetentionConfig struct {
	Enabled bool `yaml:"enabled"`

	// Schedule is a five-field cron expression. Defaults to daily at 03:00.
	Schedule string `yaml:"schedule"`

	// MaxAge is how long transcript entries are kept. Defaults to 30 days.
	MaxAge Duration `yaml:"max_age"`
}

// Defaults fills zero values with sensible defaults.
func (c *Config) Defaults() {
	if c.Server.Bind == "" {
		c.Server.Bind = "127.0.0.1:8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = Duration(120 * time.Second)
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = Duration(5 * time.Second)
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.MemoryPath == "" {
		c.Storage.MemoryPath = filepath.Join(c.Storage.DataDir, "memory.db")
	}
	if c.Storage.SessionsPath == "" {
		c.Storage.SessionsPath = filepath.Join(c.Storage.DataDir, "sessions.db")
	}
	if c.Storage.WAL == nil {
		t := true
		c.Storage.WAL = &t
	}
	if c.Storage.BusyTimeout == 0 {
		c.Storage.BusyTimeout = 5000
	}

	if c.Model.Endpoint == "" {
		c.Model.Endpoint = "http://127.0.0.1:11434"
	}
	if c.Model.Name == "" {
		c.Model.Name = "openchat:7b"
	}
	if c.Model.MaxAttempts <= 0 {
		c.Model.MaxAttempts = 3
	}
	if c.Model.RetryDelay <= 0 {
		c.Model.RetryDelay = Duration(2 * time.Second)
	}
	if c.Model.Timeout <= 0 {
		c.Model.Timeout = Duration(2 * time.Minute)
	}

	if c.Chat.Owner == "" {
		c.Chat.Owner = "Player"
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = 20
	}
	if c.Chat.DeleteRecentBatch <= 0 {
		c.Chat.DeleteRecentBatch = 3
	}

	if c.Retention.Schedule == "" {
		c.Retention.Schedule = "0 3 * * *"
	}
	if c.Retention.MaxAge <= 0 {
		c.Retention.MaxAge = Duration(30 * 24 * time.Hour)
	}
}
