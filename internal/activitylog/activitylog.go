// Package activitylog keeps a CSV audit trail of ledger actions in
// <data-dir>/logs/activity-log.csv.
package activitylog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions recorded in the log.
const (
	ActionFetch   = "fetch"
	ActionApply   = "apply"
	ActionSkip    = "skip"
	ActionReverse = "reverse"
	ActionManual  = "manual"
	ActionAccount = "account"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp   time.Time
	Action      string
	CandidateID string
	Account     string
	Amount      string
	Details     string
}

// Header is the CSV header for activity-log.csv.
const Header = "timestamp,action,candidate_id,account,amount,details"

const (
	numFields      = 6
	logDir         = "logs"
	logFile        = "logs/activity-log.csv"
	colTimestamp   = 0
	colAction      = 1
	colCandidateID = 2
	colAccount     = 3
	colAmount      = 4
	colDetails     = 5
)

// Recorder accepts activity entries.
type Recorder interface {
	Record(entries ...Entry) error
}

// Log records to the activity log under Dir.
type Log struct {
	Dir string
}

// Record appends entries to the log file.
func (l Log) Record(entries ...Entry) error {
	return Append(l.Dir, entries)
}

// Nop discards entries.
type Nop struct{}

// Record does nothing.
func (Nop) Record(...Entry) error { return nil }

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colAction] = e.Action
	row[colCandidateID] = e.CandidateID
	row[colAccount] = e.Account
	row[colAmount] = e.Amount
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp:   ts,
		Action:      record[colAction],
		CandidateID: record[colCandidateID],
		Account:     record[colAccount],
		Amount:      record[colAmount],
		Details:     record[colDetails],
	}, nil
}

// Append writes entries to <dataDir>/logs/activity-log.csv, creating the
// file and header if needed.
func Append(dataDir string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	dir := filepath.Join(dataDir, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dataDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dataDir>/logs/activity-log.csv.
// Returns nil if the file does not exist.
func Read(dataDir string) ([]Entry, error) {
	path := filepath.Join(dataDir, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
