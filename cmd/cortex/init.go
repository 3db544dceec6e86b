// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cortex-dev/cortex/internal/config"
	cortexerr "github.com/cortex-dev/cortex/pkg/errors"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long:  "Write the commented default configuration to ~/.config/cortex/cortex.yaml (or --output) and report what to edit next.",
		RunE:  runInit,
	}

	cmd.Flags().StringP("output", "o", "", "write the config to this path instead of the default location")
	cmd.Flags().Bool("force", false, "overwrite an existing config file")
	cmd.Flags().String("notes-root", "", "set notes.root in the generated config")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	path, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	notesRoot, _ := cmd.Flags().GetString("notes-root")

	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return cortexerr.Errorf(cortexerr.CodeCLIInputInvalid, "%s already exists, use --force to overwrite", path)
	}

	content := config.DefaultConfigYAML
	if notesRoot != "" {
		var err error
		content, err = withNotesRoot(content, notesRoot)
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return cortexerr.Errorf(cortexerr.CodeCLISetupFailure, "creating config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return cortexerr.Errorf(cortexerr.CodeCLISetupFailure, "writing config: %w", err)
	}

	fmt.Fprintf(out, "wrote %s\n", path)
	fmt.Fprintln(out, "edit notes.root to point at your markdown notes, then run 'cortex index --all'")
	return nil
}

// withNotesRoot re-renders the default config with notes.root set.
// Comments in the template are lost for the notes section only, which
// is acceptable for a generated override.
func withNotesRoot(template []byte, root string) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(template, &doc); err != nil {
		return nil, cortexerr.Errorf(cortexerr.CodeCLISetupFailure, "parsing default config: %w", err)
	}

	notes, _ := doc["notes"].(map[string]any)
	if notes == nil {
		notes = map[string]any{}
	}
	notes["root"] = root
	doc["notes"] = notes

	rendered, err := yaml.Marshal(doc)
	if err != nil {
		return nil, cortexerr.Errorf(cortexerr.CodeCLISetupFailure, "rendering config: %w", err)
	}
	return rendered, nil
}
