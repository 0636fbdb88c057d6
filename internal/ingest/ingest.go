// Package ingest runs a fetch cycle: messages are read from a source,
// turned into candidates with rules compiled from the current accounts and
// merged into the candidate store by id.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/smsledger/internal/activitylog"
	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/extract"
	"github.com/cleared-dev/smsledger/internal/importer"
	"github.com/cleared-dev/smsledger/internal/logging"
	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/store"
)

// progressThreshold is the inbox size from which a progress bar is drawn.
const progressThreshold = 200

// Summary counts what one fetch did.
type Summary struct {
	Source         string
	Read           int
	Kept           int
	Added          int
	Duplicates     int
	UnknownSender  int
	UnknownAccount int
}

// Config holds optional Fetcher settings.
type Config struct {
	Activity        activitylog.Recorder
	CurrencyMarkers []string
	// Progress receives a progress bar for large inboxes. Nil disables it.
	Progress io.Writer
	Now      func() time.Time
}

// Fetcher merges messages into the candidate store.
type Fetcher struct {
	repo     *store.Repository
	log      logrus.FieldLogger
	activity activitylog.Recorder
	opts     extract.Options
	progress io.Writer
	now      func() time.Time
}

// NewFetcher creates a Fetcher over repo.
func NewFetcher(repo *store.Repository, log logrus.FieldLogger, cfg Config) *Fetcher {
	f := &Fetcher{
		repo:     repo,
		log:      log,
		activity: cfg.Activity,
		opts:     extract.Options{CurrencyMarkers: cfg.CurrencyMarkers},
		progress: cfg.Progress,
		now:      cfg.Now,
	}
	if f.activity == nil {
		f.activity = activitylog.Nop{}
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// Fetch lists src and merges every kept message that is not already
// stored. Running it twice over the same messages adds nothing the second
// time. name labels the source in logs.
func (f *Fetcher) Fetch(ctx context.Context, src importer.Source, name string) (Summary, error) {
	log := f.log.WithField(logging.FieldSource, name)

	msgs, err := src.List(ctx)
	if err != nil {
		if errors.Is(err, importer.ErrPermissionDenied) {
			log.WithError(err).Error("message source refused access")
		}
		return Summary{}, fmt.Errorf("listing messages from %s: %w", name, err)
	}

	sum := Summary{Source: name, Read: len(msgs)}
	err = f.repo.Update(ctx, func(s *store.Snapshot) error {
		rules := extract.Compile(s.Accounts, f.opts)
		bar := f.bar(len(msgs))

		kept := make([]model.Candidate, 0, len(msgs))
		for _, m := range msgs {
			c, out := rules.Extract(m)
			switch out {
			case extract.Kept:
				kept = append(kept, c)
			case extract.UnknownSender:
				sum.UnknownSender++
			case extract.UnknownAccount:
				sum.UnknownAccount++
			}
			if bar != nil {
				if err := bar.Add(1); err != nil {
					log.WithError(err).Debug("updating progress bar")
				}
			}
		}
		if bar != nil {
			if err := bar.Finish(); err != nil {
				log.WithError(err).Debug("finishing progress bar")
			}
		}

		merged, added := candidates.Merge(s.Candidates, kept)
		s.Candidates = merged
		sum.Kept = len(kept)
		sum.Added = len(added)
		sum.Duplicates = sum.Kept - sum.Added
		return nil
	})
	if err != nil {
		if store.IsStorageFailure(err) {
			log.WithError(err).Error("storage failure")
		}
		return Summary{}, fmt.Errorf("merging messages from %s: %w", name, err)
	}

	log.WithFields(logrus.Fields{
		"read":            sum.Read,
		"kept":            sum.Kept,
		"new":             sum.Added,
		"unknown_sender":  sum.UnknownSender,
		"unknown_account": sum.UnknownAccount,
	}).Info("fetch complete")

	if err := f.activity.Record(activitylog.Entry{
		Timestamp: f.now(),
		Action:    activitylog.ActionFetch,
		Details:   fmt.Sprintf("%s: read %d, kept %d, new %d", name, sum.Read, sum.Kept, sum.Added),
	}); err != nil {
		log.WithError(err).Warn("writing activity log")
	}
	return sum, nil
}

// FetchInbox fetches every export in <dataDir>/import/ and moves each one
// to import/processed/ once merged. It stops at the first failure; files
// already merged stay processed.
func (f *Fetcher) FetchInbox(ctx context.Context, dataDir string, reg *importer.Registry) ([]Summary, error) {
	files, err := importer.Scan(dataDir, reg)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		f.log.Info("no exports in import directory")
		return nil, nil
	}

	var out []Summary
	for _, file := range files {
		src := importer.FileSource{Path: file.Path, Parser: reg.Get(file.Format)}
		sum, err := f.Fetch(ctx, src, file.Name)
		if err != nil {
			return out, err
		}
		if err := importer.MarkProcessed(dataDir, file.Name); err != nil {
			return out, err
		}
		f.log.WithField(logging.FieldFile, file.Name).Debug("export archived")
		out = append(out, sum)
	}
	return out, nil
}

func (f *Fetcher) bar(n int) *progressbar.ProgressBar {
	if f.progress == nil || n < progressThreshold {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Extracting messages"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
