// Package importer reads raw notification messages from inbox exports.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/smsledger/internal/model"
)

// ErrPermissionDenied is returned when the inbox cannot be read.
var ErrPermissionDenied = errors.New("permission denied reading messages")

// Parser converts an inbox export into Messages.
type Parser interface {
	Parse(r io.Reader) ([]model.Message, error)
	Format() string
	// Extension is the file suffix, including the dot, handled by the parser.
	Extension() string
}

// Source lists the messages currently in an inbox.
type Source interface {
	List(ctx context.Context) ([]model.Message, error)
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes an export file in the import directory.
type FileInfo struct {
	Name   string
	Path   string
	Size   int64
	Format string
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// ForFile returns the parser whose extension matches name, or nil.
func (r *Registry) ForFile(name string) Parser {
	ext := strings.ToLower(filepath.Ext(name))
	for _, p := range r.parsers {
		if p.Extension() == ext {
			return p
		}
	}
	return nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&JSONParser{})
	r.Register(&CSVParser{})
	return r
}

// FileSource reads one export file.
type FileSource struct {
	Path   string
	Parser Parser
}

// List opens and parses the file. Unreadable files map to
// ErrPermissionDenied.
func (s FileSource) List(_ context.Context) ([]model.Message, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%s: %w", s.Path, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer f.Close()

	msgs, err := s.Parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as %s: %w", s.Path, s.Parser.Format(), err)
	}
	return msgs, nil
}

// importDir is the subdirectory for inbox exports.
const importDir = "import"

// processedDir is the subdirectory for processed exports.
const processedDir = "import/processed"

// Scan returns the export files in <dataDir>/import/ that some parser in
// reg understands.
func Scan(dataDir string, reg *Registry) ([]FileInfo, error) {
	dir := filepath.Join(dataDir, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("reading import dir: %w", ErrPermissionDenied)
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := reg.ForFile(e.Name())
		if p == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name:   e.Name(),
			Path:   filepath.Join(dir, e.Name()),
			Size:   info.Size(),
			Format: p.Format(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(dataDir, fileName string) error {
	src := filepath.Join(dataDir, importDir, fileName)
	dstDir := filepath.Join(dataDir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
