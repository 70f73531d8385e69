package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Exchange    ExchangeConfig     `json:"exchange"`
	Instruments []string           `json:"instruments"`
	Submit      SubmitConfig       `json:"submit"`
	Queue       QueueConfig        `json:"queue"`
	Journal     JournalConfig      `json:"journal"`
	Features    FeatureFlagsConfig `json:"features"`
}

// ExchangeConfig describes the exchange endpoints and credentials.
type ExchangeConfig struct {
	RestURL   string `json:"restUrl"`
	StreamURL string `json:"streamUrl"`
	AccessID  string `json:"accessId"`
	SecretKey string `json:"secretKey"`
}

// SubmitConfig describes the order submission retry policy.
type SubmitConfig struct {
	MaxAttempts  int `json:"maxAttempts"`
	RetryDelayMs int `json:"retryDelayMs"`
}

// QueueConfig describes the per-instrument event queue.
type QueueConfig struct {
	Capacity int `json:"capacity"`
}

// JournalConfig describes the optional PostgreSQL journal.
type JournalConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	EnableJournal   *bool `json:"enableJournal"`
	EnablePositions *bool `json:"enablePositions"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	EnableJournal   bool
	EnablePositions bool
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Exchange    ExchangeConfig
	Instruments []string
	Submit      SubmitSpec
	Queue       QueueConfig
	Journal     JournalConfig
	Features    FeatureFlags
}

// SubmitSpec is the resolved submission retry policy.
type SubmitSpec struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	if err := validateExchange(cfg.Exchange); err != nil {
		return Loaded{}, err
	}
	instruments, err := resolveInstruments(cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}
	submit, err := resolveSubmit(cfg.Submit)
	if err != nil {
		return Loaded{}, err
	}
	features := resolveFeatures(cfg.Features)
	if features.EnableJournal {
		if err := validateJournal(cfg.Journal); err != nil {
			return Loaded{}, err
		}
	}
	return Loaded{
		Exchange:    cfg.Exchange,
		Instruments: instruments,
		Submit:      submit,
		Queue:       cfg.Queue,
		Journal:     cfg.Journal,
		Features:    features,
	}, nil
}

func validateExchange(cfg ExchangeConfig) error {
	if cfg.RestURL == "" {
		return fmt.Errorf("exchange restUrl is empty")
	}
	if cfg.StreamURL == "" {
		return fmt.Errorf("exchange streamUrl is empty")
	}
	if cfg.AccessID == "" || cfg.SecretKey == "" {
		return fmt.Errorf("exchange credentials are empty")
	}
	return nil
}

func resolveInstruments(instruments []string) ([]string, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("instruments is empty")
	}
	seen := make(map[string]struct{}, len(instruments))
	for _, instrument := range instruments {
		if instrument == "" {
			return nil, fmt.Errorf("instrument name is empty")
		}
		if _, ok := seen[instrument]; ok {
			return nil, fmt.Errorf("duplicate instrument: %s", instrument)
		}
		seen[instrument] = struct{}{}
	}
	return instruments, nil
}

func resolveSubmit(cfg SubmitConfig) (SubmitSpec, error) {
	if cfg.MaxAttempts < 0 {
		return SubmitSpec{}, fmt.Errorf("submit maxAttempts must be >= 0")
	}
	if cfg.RetryDelayMs < 0 {
		return SubmitSpec{}, fmt.Errorf("submit retryDelayMs must be >= 0")
	}
	spec := SubmitSpec{
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  time.Duration(cfg.RetryDelayMs) * time.Millisecond,
	}
	if spec.MaxAttempts == 0 {
		spec.MaxAttempts = 1
	}
	if spec.RetryDelay == 0 {
		spec.RetryDelay = 500 * time.Millisecond
	}
	return spec, nil
}

func validateJournal(cfg JournalConfig) error {
	if cfg.Database == "" {
		return fmt.Errorf("journal database is empty")
	}
	if cfg.Port < 0 {
		return fmt.Errorf("journal port must be >= 0")
	}
	return nil
}

func resolveFeatures(cfg FeatureFlagsConfig) FeatureFlags {
	flags := FeatureFlags{
		EnableJournal:   false,
		EnablePositions: true,
	}
	if cfg.EnableJournal != nil {
		flags.EnableJournal = *cfg.EnableJournal
	}
	if cfg.EnablePositions != nil {
		flags.EnablePositions = *cfg.EnablePositions
	}
	return flags
}
