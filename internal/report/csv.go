package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/smsledger/internal/model"
)

// Header is the CSV header for history exports.
const Header = "id,timestamp,date,account_name,last_four_digits,recipient,category,category_icon,debit,credit"

const (
	numFields    = 10
	colID        = 0
	colTimestamp = 1
	colDate      = 2
	colAcctName  = 3
	colDigits    = 4
	colRecipient = 5
	colCategory  = 6
	colIcon      = 7
	colDebit     = 8
	colCredit    = 9
)

// ReadHistory reads records from a history CSV with a header row. The
// date column is informational and ignored.
func ReadHistory(r io.Reader) ([]model.HistoryRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading history CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.HistoryRecord
	for i, rec := range records[1:] {
		h, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, h)
	}
	return out, nil
}

// WriteHistory writes records with a header row. loc decides the
// rendering of the date column.
func WriteHistory(w io.Writer, records []model.HistoryRecord, loc *time.Location) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, h := range records {
		if err := cw.Write(MarshalRecord(h, loc)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRecord converts a history record to a CSV row. The amount goes
// in the debit or credit column according to its direction.
func MarshalRecord(h model.HistoryRecord, loc *time.Location) []string {
	row := make([]string, numFields)
	row[colID] = h.ID
	row[colTimestamp] = h.Timestamp
	if t, err := h.Time(); err == nil {
		if loc == nil {
			loc = time.Local
		}
		row[colDate] = t.In(loc).Format(time.DateTime)
	}
	row[colAcctName] = h.AccountName
	row[colDigits] = h.LastFourDigits
	row[colRecipient] = h.Recipient
	row[colCategory] = h.Category
	row[colIcon] = h.CategoryIcon
	if h.Direction == model.Credit {
		row[colCredit] = h.Amount
	} else {
		row[colDebit] = h.Amount
	}
	return row
}

// UnmarshalRecord converts a CSV row to a history record. Exactly one of
// debit and credit must be set.
func UnmarshalRecord(record []string) (model.HistoryRecord, error) {
	if len(record) != numFields {
		return model.HistoryRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	debit, credit := strings.TrimSpace(record[colDebit]), strings.TrimSpace(record[colCredit])
	var dir model.Direction
	var amount string
	switch {
	case debit != "" && credit == "":
		dir, amount = model.Debit, debit
	case credit != "" && debit == "":
		dir, amount = model.Credit, credit
	default:
		return model.HistoryRecord{}, fmt.Errorf("record %s: exactly one of debit and credit must be set", record[colID])
	}
	d, err := model.ParseDecimal(amount)
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("parsing amount %q: %w", amount, err)
	}

	return model.HistoryRecord{
		ID:             record[colID],
		Recipient:      record[colRecipient],
		Category:       record[colCategory],
		CategoryIcon:   record[colIcon],
		Amount:         model.FormatAmount(d),
		AccountName:    record[colAcctName],
		LastFourDigits: record[colDigits],
		Direction:      dir,
		Timestamp:      record[colTimestamp],
	}, nil
}
