// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cortex-dev/cortex/internal/config"
	"github.com/cortex-dev/cortex/internal/logging"
)

// NewRootCmd creates the root cortex command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cortex",
		Short:         "Semantic search over your markdown notes",
		Long:          "Cortex chunks and embeds a markdown knowledge base and serves semantic, keyword, and link-graph retrieval over it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the config path (flag, then ./cortex.yaml, then
// ~/.config/cortex/cortex.yaml) and loads it. Missing files fall back
// to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = discoverConfig()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	config.WarnInsecurePermissions(path)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func discoverConfig() string {
	if _, err := os.Stat("cortex.yaml"); err == nil {
		return "cortex.yaml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".config", "cortex", "cortex.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// setup loads config and installs the configured logger. Every
// subcommand that touches the backends goes through here.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging)
	return cfg, nil
}
