package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/smsledger/internal/accounts"
	"github.com/cleared-dev/smsledger/internal/activitylog"
	"github.com/cleared-dev/smsledger/internal/config"
	"github.com/cleared-dev/smsledger/internal/gitops"
	"github.com/cleared-dev/smsledger/internal/ingest"
	"github.com/cleared-dev/smsledger/internal/ledger"
	"github.com/cleared-dev/smsledger/internal/logging"
	"github.com/cleared-dev/smsledger/internal/report"
	"github.com/cleared-dev/smsledger/internal/store"
)

// globalOptions are the persistent root flags.
type globalOptions struct {
	dataDir    string
	configPath string
}

// app is everything a command needs once the data dir is opened.
type app struct {
	dataDir  string
	cfg      *config.Config
	log      *logrus.Logger
	repo     *store.Repository
	activity activitylog.Recorder
}

func openApp(ctx context.Context, cmd *cobra.Command, opts *globalOptions) (*app, error) {
	dataDir, err := filepath.Abs(opts.dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}
	cfg, err := config.Load(dataDir, opts.configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	kv, err := store.Open(ctx, cfg.StoreOptions(dataDir))
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Backend, err)
	}
	log.WithField(logging.FieldBackend, cfg.Storage.Backend).Debug("store opened")

	return &app{
		dataDir:  dataDir,
		cfg:      cfg,
		log:      log,
		repo:     store.NewRepository(kv),
		activity: activitylog.Log{Dir: dataDir},
	}, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}

func (a *app) accounts() *accounts.Service {
	return accounts.NewService(a.repo, a.log)
}

func (a *app) applier() *ledger.Applier {
	return ledger.NewApplier(a.repo, a.log, ledger.Config{
		Activity:       a.activity,
		CurrencyMarker: a.cfg.Extraction.CurrencyMarkers[0],
	})
}

func (a *app) fetcher(cmd *cobra.Command) *ingest.Fetcher {
	return ingest.NewFetcher(a.repo, a.log, ingest.Config{
		Activity:        a.activity,
		CurrencyMarkers: a.cfg.Extraction.CurrencyMarkers,
		Progress:        cmd.ErrOrStderr(),
	})
}

func (a *app) report() *report.Service {
	return report.NewService(a.repo, nil)
}

// snapshot commits the data dir when auto-commit is on and the data dir
// is a git repository. Failures are logged, never returned: the ledger
// change has already been persisted.
func (a *app) snapshot(message string) {
	if !a.cfg.Git.AutoCommit || !gitops.IsRepo(a.dataDir) {
		return
	}
	c := gitops.Committer{Dir: a.dataDir, AuthorName: a.cfg.Git.AuthorName, AuthorEmail: a.cfg.Git.AuthorEmail}
	hash, err := c.CommitAll(message)
	if err != nil {
		a.log.WithError(err).Warn("git snapshot failed")
		return
	}
	if hash != "" {
		a.log.WithField("commit", hash).Debug("git snapshot")
	}
}

func (a *app) recordAccount(op, digits string) {
	if err := a.activity.Record(activitylog.Entry{
		Timestamp: timeNow(),
		Action:    activitylog.ActionAccount,
		Account:   digits,
		Details:   op,
	}); err != nil {
		a.log.WithError(err).Warn("writing activity log")
	}
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(*app) error) error {
	a, err := openApp(cmd.Context(), cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
