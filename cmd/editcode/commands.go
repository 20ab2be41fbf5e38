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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/editcode/cmd/editcode/config"
)

// --- Global Command Variables ---
var (
	configPath  string
	envFile     string
	outputLevel string // full/minimal/machine
	logLevel    string

	// edit flags
	editPrompt   string
	editDir      string
	editFormat   string
	editModel    string
	editPolicy   string
	editDryRun   bool
	editShowDiff bool
	editInclude  []string
	editExclude  []string

	// serve flags
	serveAddr    string
	serveMetrics bool

	rootCmd = &cobra.Command{
		Use:   "editcode",
		Short: "Edit a directory of files with a language model",
		Long: `editcode sends your files and an instruction to an OpenAI-compatible
model, applies the edits it answers with, and writes the result back.`,
		SilenceUsage: true,
	}

	editCmd = &cobra.Command{
		Use:   "edit [instruction...]",
		Short: "Ask the model to edit the files under a directory",
		Example: `  editcode edit -p "rename the submit button to Send" -d ./site
  editcode edit --format udiff --dry-run "fix the typo in the header"`,
		RunE: runEditCommand, // Defined in cmd_edit.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the edit API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCommand, // Defined in cmd_serve.go
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.editcode/editcode.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the API key")
	rootCmd.PersistentFlags().StringVar(&outputLevel, "output", "", "output style: full, minimal or machine (default: auto)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level from the config")

	editCmd.Flags().StringVarP(&editPrompt, "prompt", "p", "", "instruction for the model")
	editCmd.Flags().StringVarP(&editDir, "dir", "d", ".", "directory to edit")
	editCmd.Flags().StringVar(&editFormat, "format", "", "edit format: "+formatNames())
	editCmd.Flags().StringVarP(&editModel, "model", "m", "", "model name override")
	editCmd.Flags().StringVar(&editPolicy, "metadata-policy", "", "on accounting failure: abort or keep")
	editCmd.Flags().BoolVar(&editDryRun, "dry-run", false, "print the changes without writing them")
	editCmd.Flags().BoolVar(&editShowDiff, "diff", false, "print a patch for every written file")
	editCmd.Flags().StringSliceVar(&editInclude, "include", nil, "only send files matching these globs")
	editCmd.Flags().StringSliceVar(&editExclude, "exclude", nil, "never send files matching these globs")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr from the config)")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "expose Prometheus metrics at /metrics")

	rootCmd.AddCommand(editCmd, serveCmd, configCmd)
}

// applyEditFlags folds command-line overrides into cfg.
func applyEditFlags(cfg *config.EditcodeConfig) {
	if editFormat != "" {
		cfg.Edit.Format = editFormat
	}
	if editModel != "" {
		cfg.Model.Name = editModel
	}
	if editPolicy != "" {
		cfg.Metadata.Policy = editPolicy
	}
	if len(editInclude) > 0 {
		cfg.Edit.Include = editInclude
	}
	if len(editExclude) > 0 {
		cfg.Edit.Exclude = editExclude
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}
