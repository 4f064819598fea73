// Copyright © 2024 Smarthome-AI Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the diagnostic core's configuration surface (the
// CACHE_TTL_MS / SEMANTIC_* / PATTERN_* / BATTERY_* knobs) using viper,
// following the teacher's layered defaults-then-file-then-env convention.
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
)

// Config is the top-level, read-only configuration snapshot assembled once
// at start-up. It is read-only thereafter; nothing below the top level of
// the application mutates it.
type Config struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Semantic SemanticConfig `mapstructure:"semantic"`
	Pattern  PatternConfig  `mapstructure:"pattern"`
	Battery  BatteryConfig  `mapstructure:"battery"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Logger   logger.Config  `mapstructure:"logger"`
}

// CacheConfig controls the intent classifier's TTL cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttlMs"`
}

// SemanticConfig controls the semantic device index.
type SemanticConfig struct {
	MinSimilarity  float64       `mapstructure:"minSimilarity"`
	SyncIntervalMs time.Duration `mapstructure:"syncIntervalMs"`
	CollectionName string        `mapstructure:"collectionName"`
	EmbeddingModel string        `mapstructure:"embeddingModel"`
	IndexPath      string        `mapstructure:"indexPath"`
}

// PatternConfig controls the pattern detector's thresholds.
type PatternConfig struct {
	ConnectivityGapMs time.Duration `mapstructure:"connectivityGapMs"`
	RapidGapMs        time.Duration `mapstructure:"rapidGapMs"`
	AutomationGapMs   time.Duration `mapstructure:"automationGapMs"`
	StormWindowMs     time.Duration `mapstructure:"stormWindowMs"`
	StormCount        int           `mapstructure:"stormCount"`
	FailureRun        int           `mapstructure:"failureRun"`
}

// BatteryConfig controls the battery-degradation thresholds.
type BatteryConfig struct {
	Low      int `mapstructure:"low"`
	Critical int `mapstructure:"critical"`
}

// LLMConfig selects and configures the LLM provider used by the classifier.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	ClassifyTimeout time.Duration `mapstructure:"classifyTimeoutMs"`
	OpenAI          OpenAIConfig  `mapstructure:"openai"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
}

// OpenAIConfig carries OpenAI-specific credentials and model selection.
type OpenAIConfig struct {
	APIKey string `mapstructure:"apiKey"`
	Model  string `mapstructure:"model"`
}

// GeminiConfig carries Gemini-specific credentials and model selection.
type GeminiConfig struct {
	APIKey string `mapstructure:"apiKey"`
	Model  string `mapstructure:"model"`
}

// Defaults returns the configuration defaults named in the specification.
func Defaults() Config {
	return Config{
		Cache: CacheConfig{TTL: 900_000 * time.Millisecond},
		Semantic: SemanticConfig{
			MinSimilarity:  0.7,
			SyncIntervalMs: 300_000 * time.Millisecond,
			CollectionName: "smartthings_devices",
			EmbeddingModel: "bleve-bm25",
			IndexPath:      "./data/semantic-index",
		},
		Pattern: PatternConfig{
			ConnectivityGapMs: 3_600_000 * time.Millisecond,
			RapidGapMs:        10_000 * time.Millisecond,
			AutomationGapMs:   5_000 * time.Millisecond,
			StormWindowMs:     60_000 * time.Millisecond,
			StormCount:        20,
			FailureRun:        5,
		},
		Battery: BatteryConfig{Low: 20, Critical: 10},
		LLM: LLMConfig{
			Provider:        "openai",
			ClassifyTimeout: 10_000 * time.Millisecond,
		},
		Logger: logger.DefaultConfig(),
	}
}

// Load assembles the configuration snapshot: defaults, then an optional
// YAML file at configPath (if non-empty and present), then environment
// variables prefixed SMARTHOME_ (e.g. SMARTHOME_BATTERY_LOW=15).
func Load(configPath string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetEnvPrefix("SMARTHOME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows, so every struct key is
	// bound to its env var explicitly.
	var bindEnv func(t reflect.Type, prefix string)
	bindEnv = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			key := prefix + f.Tag.Get("mapstructure")
			if f.Type.Kind() == reflect.Struct {
				bindEnv(f.Type, key+".")
			} else {
				_ = v.BindEnv(key)
			}
		}
	}
	bindEnv(reflect.TypeOf(cfg), "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
