package importer

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/cleared-dev/smsledger/internal/model"
)

// CSVParser reads exports with an id,address,body,date header.
type CSVParser struct{}

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Extension returns ".csv".
func (p *CSVParser) Extension() string { return ".csv" }

// Parse decodes every row. Rows without an id are rejected.
func (p *CSVParser) Parse(r io.Reader) ([]model.Message, error) {
	var msgs []model.Message
	if err := gocsv.Unmarshal(r, &msgs); err != nil {
		return nil, fmt.Errorf("decoding messages CSV: %w", err)
	}
	for i, m := range msgs {
		if m.ID == "" {
			return nil, fmt.Errorf("row %d: missing id", i+2)
		}
	}
	return msgs, nil
}
