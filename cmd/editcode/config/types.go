// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the editcode CLI configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/editcode/services/editcode/prompt"
)

// CurrentConfigVersion is written into new config files.
const CurrentConfigVersion = "1"

// DefaultAPIKeyEnv names the environment variable holding the API key.
const DefaultAPIKeyEnv = "OPENROUTER_API_KEY"

var configValidate = validator.New()

type EditcodeConfig struct {
	Meta ConfigMeta `yaml:"meta"`

	// Model: which OpenAI-compatible endpoint and model to call
	Model ModelConfig `yaml:"model"`

	// Edit: defaults for the edit command
	Edit EditConfig `yaml:"edit"`

	// Metadata: cost accounting lookups
	Metadata MetadataConfig `yaml:"metadata"`

	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type ConfigMeta struct {
	Version   string `yaml:"version"`
	CreatedAt int64  `yaml:"created_at"` // unix millis
}

type ModelConfig struct {
	Name         string   `yaml:"name" validate:"required"`
	BaseURL      string   `yaml:"base_url" validate:"required,url"`
	APIKeyEnv    string   `yaml:"api_key_env" validate:"required"`
	SystemPrompt string   `yaml:"system_prompt,omitempty"`
	Temperature  *float32 `yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens    *int     `yaml:"max_tokens,omitempty" validate:"omitempty,gt=0"`

	// Headers are sent with every completion request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

type EditConfig struct {
	Format      string   `yaml:"format" validate:"oneof=whole diff diff-fenced udiff"`
	Include     []string `yaml:"include,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	MaxFileSize int64    `yaml:"max_file_size" validate:"gte=0"`

	// Prompt context truncation. Zero keeps the built-in limit.
	DataFileLineLimit int `yaml:"data_file_line_limit" validate:"gte=0"`
	DefaultLineLimit  int `yaml:"default_line_limit" validate:"gte=0"`
	MaxLineLength     int `yaml:"max_line_length" validate:"gte=0"`
}

type MetadataConfig struct {
	// Policy is "abort" (a failed lookup fails the edit) or "keep".
	Policy      string        `yaml:"policy" validate:"oneof=abort keep"`
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1"`
	RetryDelay  time.Duration `yaml:"retry_delay" validate:"gte=0"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// Validate checks every field against its validator tags.
func (c *EditcodeConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func newConfigMeta() ConfigMeta {
	return ConfigMeta{
		Version:   CurrentConfigVersion,
		CreatedAt: time.Now().UnixMilli(),
	}
}

func DefaultConfig() EditcodeConfig {
	return EditcodeConfig{
		Meta: newConfigMeta(),
		Model: ModelConfig{
			Name:      "openai/gpt-4o-mini",
			BaseURL:   "https://openrouter.ai/api/v1",
			APIKeyEnv: DefaultAPIKeyEnv,
		},
		Edit: EditConfig{
			Format:            "whole",
			MaxFileSize:       10 << 20,
			DataFileLineLimit: prompt.DataFileLineLimit,
			DefaultLineLimit:  prompt.DefaultLineLimit,
			MaxLineLength:     prompt.MaxLineLength,
		},
		Metadata: MetadataConfig{
			Policy:      "abort",
			BaseURL:     "https://openrouter.ai/api/v1",
			MaxAttempts: 10,
			RetryDelay:  time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
