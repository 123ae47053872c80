package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all flow-diagram server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	Transport       string `json:"transport"`
	ListenAddr      string `json:"listen_addr"`
	BaseURL         string `json:"base_url"`
	LogLevel        string `json:"log_level"`
	PoolSize        int    `json:"pool_size"`
	Panel           bool   `json:"panel"`
	PanelAddr       string `json:"panel_addr"`
	JanitorSchedule string `json:"janitor_schedule"`
	MaxIdleMinutes  int    `json:"max_idle_minutes"`
}

// MaxIdle returns the idle eviction threshold as a duration.
func (c Config) MaxIdle() time.Duration {
	return time.Duration(c.MaxIdleMinutes) * time.Minute
}

func defaultConfig() Config {
	return Config{
		Transport:       "stdio",
		ListenAddr:      ":4700",
		LogLevel:        "info",
		PoolSize:        4,
		PanelAddr:       ":4701",
		JanitorSchedule: "*/10 * * * *",
		MaxIdleMinutes:  120,
	}
}

func flowDiagramDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flow-diagram"
	}
	return filepath.Join(home, ".flow-diagram")
}

func settingsPath() string {
	return filepath.Join(flowDiagramDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FLOWDIAGRAM_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("FLOWDIAGRAM_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FLOWDIAGRAM_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("FLOWDIAGRAM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLOWDIAGRAM_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolSize = n
		}
	}
	if v := os.Getenv("FLOWDIAGRAM_PANEL"); v != "" {
		cfg.Panel = v == "true" || v == "1"
	}
	if v := os.Getenv("FLOWDIAGRAM_PANEL_ADDR"); v != "" {
		cfg.PanelAddr = v
	}
	if v := os.Getenv("FLOWDIAGRAM_JANITOR_SCHEDULE"); v != "" {
		cfg.JanitorSchedule = v
	}
	if v := os.Getenv("FLOWDIAGRAM_MAX_IDLE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxIdleMinutes = n
		}
	}

	// Derive base_url from listen_addr if empty.
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost" + cfg.ListenAddr
	}

	return cfg
}
