package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	Records  struct {
		ResultsDir string `json:"results_dir"`
		AudioDir   string `json:"audio_dir"`
	} `json:"records"`
	Timeline struct {
		WindowMinutes  int    `json:"window_minutes"`
		MaxSample      int    `json:"max_sample"`
		SampleStrategy string `json:"sample_strategy"`
		Mode           string `json:"mode"`
		PeakTopK       int    `json:"peak_top_k"`
		AverageTopK    int    `json:"average_top_k"`
		Label          string `json:"label"`
	} `json:"timeline"`
	LLM struct {
		BaseURL         string   `json:"base_url"`
		APIKey          string   `json:"api_key"`
		Models          []string `json:"models"`
		MaxTokens       int      `json:"max_tokens"`
		Temperature     float32  `json:"temperature"`
		MaxPromptTokens int      `json:"max_prompt_tokens"`
		ExtractMode     string   `json:"extract_mode"`
	} `json:"llm"`
	Insight struct {
		Schedule string `json:"schedule"`
		Deliver  string `json:"deliver"`
	} `json:"insight"`
	HTTP struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

// Defaults returns a Config populated with the reference policy: 20-minute
// windows, 5-record samples with even-stride selection, intensity mode with
// the top 3 emotions, bucket labels at the window floor.
func Defaults() *Config {
	cfg := &Config{
		DataDir:  filepath.Join(os.Getenv("HOME"), ".moodline"),
		LogLevel: "info",
	}
	cfg.Records.ResultsDir = filepath.Join(cfg.DataDir, "emotion_results")
	cfg.Records.AudioDir = filepath.Join(cfg.DataDir, "audio_files")
	cfg.Timeline.WindowMinutes = 20
	cfg.Timeline.MaxSample = 5
	cfg.Timeline.SampleStrategy = "stride"
	cfg.Timeline.Mode = "intensity"
	cfg.Timeline.PeakTopK = 3
	cfg.Timeline.AverageTopK = 5
	cfg.Timeline.Label = "floor"
	cfg.LLM.BaseURL = "https://api.anthropic.com"
	cfg.LLM.Models = []string{
		"claude-3-5-sonnet-latest",
		"claude-3-sonnet-20240229",
		"claude-3-haiku-20240307",
	}
	cfg.LLM.MaxTokens = 500
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxPromptTokens = 6000
	cfg.LLM.ExtractMode = "json"
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8000"
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("ANTHROPIC_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

// Save writes the config to path atomically, creating the parent directory
// if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
