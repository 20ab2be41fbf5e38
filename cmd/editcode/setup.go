// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/editcode/cmd/editcode/config"
	"github.com/AleutianAI/editcode/pkg/logging"
	"github.com/AleutianAI/editcode/pkg/ux"
	"github.com/AleutianAI/editcode/services/editcode"
	"github.com/AleutianAI/editcode/services/editcode/metadata"
	"github.com/AleutianAI/editcode/services/editcode/prompt"
	"github.com/AleutianAI/editcode/services/llm"
)

// session bundles what every command needs.
type session struct {
	cfg     config.EditcodeConfig
	printer *ux.Printer
	logger  *logging.Logger
	apiKey  string
}

// newSession loads the dotenv file and config, applies flag overrides and
// builds the printer and logger.
func newSession(cmd *cobra.Command) (*session, error) {
	printer := ux.Stdout()
	if outputLevel != "" {
		printer = ux.NewPrinter(cmd.OutOrStdout(), ux.ParseLevel(outputLevel))
	}

	if err := loadDotEnv(envFile); err != nil {
		printer.Warning(err.Error())
	}

	cfg, err := config.Load(configPath, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	applyEditFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:     cfg,
		printer: printer,
		logger:  logger,
		apiKey:  strings.TrimSpace(os.Getenv(cfg.Model.APIKeyEnv)),
	}, nil
}

// loadDotEnv loads path into the environment. A missing file is not an
// error. Variables already set win over the file.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: "editcode",
		JSON:    cfg.JSON,
		Writer:  os.Stderr,
	}), nil
}

// newFetcher builds the accounting fetcher from cfg. metrics may be nil.
func newFetcher(cfg config.MetadataConfig, logger *logging.Logger, metrics *metadata.Metrics) *metadata.Fetcher {
	f := metadata.NewFetcher()
	f.BaseURL = cfg.BaseURL
	f.MaxAttempts = cfg.MaxAttempts
	f.RetryDelay = cfg.RetryDelay
	f.Logger = logger.With("component", "metadata")
	f.Metrics = metrics
	return f
}

// newEditor wires the model client, fetcher and policy from cfg.
func newEditor(cfg config.EditcodeConfig, apiKey string, logger *logging.Logger, metrics *metadata.Metrics) (*editcode.Editor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set %s in the environment or %s", llm.ErrMissingAPIKey, cfg.Model.APIKeyEnv, envFile)
	}
	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:       apiKey,
		BaseURL:      cfg.Model.BaseURL,
		Model:        cfg.Model.Name,
		SystemPrompt: cfg.Model.SystemPrompt,
		Headers:      cfg.Model.Headers,
		Logger:       logger.With("component", "llm"),
	})
	if err != nil {
		return nil, err
	}
	policy, err := editcode.ParseMetadataPolicy(cfg.Metadata.Policy)
	if err != nil {
		return nil, err
	}
	params := llm.GenerationParams{
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	}
	opts := append(editorOptions(cfg.Edit, logger),
		editcode.WithMetadataSource(newFetcher(cfg.Metadata, logger, metrics)),
		editcode.WithMetadataPolicy(policy))
	return editcode.NewEditor(editcode.FromLLM(client, params), opts...)
}

// editorOptions maps the edit section onto Editor options.
func editorOptions(cfg config.EditConfig, logger *logging.Logger) []editcode.Option {
	return []editcode.Option{
		editcode.WithLogger(logger),
		editcode.WithPromptOptions(prompt.Options{
			DataFileLineLimit: cfg.DataFileLineLimit,
			DefaultLineLimit:  cfg.DefaultLineLimit,
			MaxLineLength:     cfg.MaxLineLength,
		}),
	}
}

func runConfigCommand(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(s.cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if s.apiKey == "" {
		s.printer.Warning(fmt.Sprintf("%s is not set", s.cfg.Model.APIKeyEnv))
	}
	return nil
}
