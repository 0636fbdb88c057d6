package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/config"
	"github.com/cleared-dev/smsledger/internal/gitops"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	var withGit bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(opts.dataDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd, absDir, opts.configPath, withGit)
		},
	}

	cmd.Flags().BoolVar(&withGit, "git", false, "track the data directory in git and commit after every change")

	return cmd
}

func runInit(cmd *cobra.Command, dir, configPath string, withGit bool) error {
	dirs := []string{
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if configPath == "" {
		configPath = filepath.Join(dir, config.FileName)
	}
	cfg := config.Default()
	exists := false
	if _, err := os.Stat(configPath); err == nil {
		exists = true
		if cfg, err = config.Load(dir, configPath); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	// An existing config is only rewritten to switch auto-commit on.
	if !exists || (withGit && !cfg.Git.AutoCommit) {
		cfg.Git.AutoCommit = cfg.Git.AutoCommit || withGit
		if err := config.Save(configPath, cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if !withGit {
		fmt.Fprintf(out, "Initialized smsledger data directory at %s\n", dir)
		return nil
	}

	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
	}
	c := gitops.Committer{Dir: dir, AuthorName: cfg.Git.AuthorName, AuthorEmail: cfg.Git.AuthorEmail}
	hash, err := c.CommitAll("init: Initialize smsledger data directory")
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	if hash == "" {
		fmt.Fprintf(out, "Initialized smsledger data directory at %s\n", dir)
		return nil
	}
	fmt.Fprintf(out, "Initialized smsledger data directory at %s (%s)\n", dir, hash)
	return nil
}
