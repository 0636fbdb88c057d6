package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cleared-dev/smsledger/internal/model"
)

// JSONParser reads an array of SMS provider rows:
// [{"_id": 1042, "address": "HDFCBK", "body": "...", "date": 1718000000000}].
// _id and date may be numbers or strings.
type JSONParser struct{}

// Format returns the parser name.
func (p *JSONParser) Format() string { return "json" }

// Extension returns ".json".
func (p *JSONParser) Extension() string { return ".json" }

type jsonRow struct {
	ID      scalar `json:"_id"`
	Address string `json:"address"`
	Body    string `json:"body"`
	Date    scalar `json:"date"`
}

// scalar accepts a JSON string or number and keeps its text.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = scalar(n.String())
	return nil
}

// Parse decodes the array. Rows without an id are rejected.
func (p *JSONParser) Parse(r io.Reader) ([]model.Message, error) {
	var rows []jsonRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}

	msgs := make([]model.Message, 0, len(rows))
	for i, row := range rows {
		if row.ID == "" {
			return nil, fmt.Errorf("message %d: missing _id", i)
		}
		msgs = append(msgs, model.Message{
			ID:        string(row.ID),
			Address:   row.Address,
			Body:      row.Body,
			Timestamp: string(row.Date),
		})
	}
	return msgs, nil
}
