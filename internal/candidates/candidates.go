// Package candidates holds the pure operations on the candidate
// collection: merging newly extracted candidates, selecting the
// reviewable subset and editing fields by id.
package candidates

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cleared-dev/smsledger/internal/model"
)

var (
	// ErrNotFound is returned when no candidate has the given id.
	ErrNotFound = errors.New("candidate not found")
	// ErrApplied is returned when editing a candidate that is already applied.
	ErrApplied = errors.New("candidate already applied")
)

// Merge appends every incoming candidate whose id is not already present,
// preserving order. Stored candidates are never replaced, applied or not.
// It returns the merged list and the candidates that were added.
func Merge(existing, incoming []model.Candidate) (merged, added []model.Candidate) {
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, c := range existing {
		seen[c.ID] = true
	}
	merged = append([]model.Candidate(nil), existing...)
	for _, c := range incoming {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		merged = append(merged, c)
		added = append(added, c)
	}
	return merged, added
}

// Reviewable returns the unapplied candidates in stored order.
func Reviewable(all []model.Candidate) []model.Candidate {
	var out []model.Candidate
	for _, c := range all {
		if !c.IsApplied {
			out = append(out, c)
		}
	}
	return out
}

// Index returns the position of id in all, or -1.
func Index(all []model.Candidate, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the candidate with id.
func Find(all []model.Candidate, id string) (model.Candidate, bool) {
	if i := Index(all, id); i >= 0 {
		return all[i], true
	}
	return model.Candidate{}, false
}

// Edit runs fn on the unapplied candidate with id. all is modified in place.
func Edit(all []model.Candidate, id string, fn func(*model.Candidate) error) error {
	i := Index(all, id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if all[i].IsApplied {
		return fmt.Errorf("%s: %w", id, ErrApplied)
	}
	return fn(&all[i])
}

// Field names an editable candidate field.
type Field string

const (
	FieldRecipient    Field = "recipient"
	FieldCategory     Field = "category"
	FieldCategoryIcon Field = "categoryIcon"
	FieldAmount       Field = "amount"
	FieldDirection    Field = "type"
)

// Fields lists the editable fields in display order.
var Fields = []Field{FieldRecipient, FieldCategory, FieldCategoryIcon, FieldAmount, FieldDirection}

// Get returns the current value of f.
func Get(c model.Candidate, f Field) string {
	switch f {
	case FieldRecipient:
		return c.Recipient
	case FieldCategory:
		return c.Category
	case FieldCategoryIcon:
		return c.CategoryIcon
	case FieldAmount:
		return c.EditableAmount
	case FieldDirection:
		return string(c.Direction)
	}
	return ""
}

// Set stores value in f. Amount text is kept verbatim and validated only
// on apply; direction must be credit or debit.
func Set(c *model.Candidate, f Field, value string) error {
	switch f {
	case FieldRecipient:
		c.Recipient = value
	case FieldCategory:
		c.Category = value
	case FieldCategoryIcon:
		c.CategoryIcon = value
	case FieldAmount:
		c.EditableAmount = value
	case FieldDirection:
		d := model.Direction(strings.ToLower(strings.TrimSpace(value)))
		if !d.Valid() {
			return fmt.Errorf("direction %q must be credit or debit", value)
		}
		c.Direction = d
	default:
		return fmt.Errorf("unknown field %q", f)
	}
	return nil
}

// Trim shortens f the way the review screen's delete key does: the last
// word for text fields, the last character for the amount. It returns the
// new value.
func Trim(c *model.Candidate, f Field) (string, error) {
	var next string
	switch f {
	case FieldRecipient, FieldCategory, FieldCategoryIcon:
		next = DeleteLastWord(Get(*c, f))
	case FieldAmount:
		next = DeleteLastRune(c.EditableAmount)
	default:
		return "", fmt.Errorf("field %q cannot be trimmed", f)
	}
	return next, Set(c, f, next)
}

// DeleteLastWord drops trailing space and then everything after the last
// remaining space. A single word becomes "".
func DeleteLastWord(s string) string {
	s = strings.TrimRight(s, " \t\n")
	i := strings.LastIndex(s, " ")
	if i < 0 {
		return ""
	}
	return s[:i]
}

// DeleteLastRune drops the final character of s.
func DeleteLastRune(s string) string {
	if s == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
