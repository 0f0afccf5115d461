// Package filestore stores configuration in a single TOML, YAML, JSON or INI file.
//
// Top-level tables are sections and their keys are attributes holding text.
// Every call re-reads the file and every change rewrites it atomically, so
// edits made by other processes are picked up on the next read.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/YADRO-KNS/ConfigORM/envsource"
	"github.com/YADRO-KNS/ConfigORM/internal/keys"
)

// Store is a file-backed configuration store. It is safe for concurrent use
// within one process.
type Store struct {
	mu       sync.Mutex
	path     string
	format   string
	mode     os.FileMode
	debounce time.Duration
	env      envsource.Source
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithFormat forces the file format instead of detecting it from the extension.
func WithFormat(format string) Option {
	return func(s *Store) {
		s.format = format
	}
}

// WithEnv sets the environment source for overrides.
func WithEnv(src envsource.Source) Option {
	return func(s *Store) {
		s.env = src
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFileMode sets the permissions of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) {
		s.mode = mode
	}
}

// WithDebounce sets how long Watch waits for changes to settle.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d < MinDebounce {
			d = MinDebounce
		}
		s.debounce = d
	}
}

// New returns a store for the file at path. The format is taken from the
// extension and defaults to TOML.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("filestore: empty path")
	}

	s := &Store{
		path:     path,
		format:   detectFileFormat(path),
		mode:     DefaultFileMode,
		debounce: DefaultDebounce,
		env:      envsource.Default(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.format == "" {
		s.format = FormatTOML
	}
	if !validFormat(s.format) {
		return nil, fmt.Errorf("filestore: unsupported format %q", s.format)
	}
	return s, nil
}

// Path returns the file path.
func (s *Store) Path() string { return s.path }

// Format returns the file format.
func (s *Store) Format() string { return s.format }

// Logger returns the store's logger.
func (s *Store) Logger() *zap.Logger { return s.logger }

// load reads and parses the file. A missing file is an empty document.
func (s *Store) load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("filestore: read %s: %w", s.path, err)
	}

	doc, err := decodeDocument(s.format, data)
	if err != nil {
		return nil, fmt.Errorf("filestore: %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *Store) save(doc map[string]any) error {
	data, err := encodeDocument(s.format, doc)
	if err != nil {
		return fmt.Errorf("filestore: %s: %w", s.path, err)
	}
	if err := atomicWriteFile(s.path, data, s.mode); err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	return nil
}

// findSection returns the table matching name and its key in doc.
func findSection(doc map[string]any, name string) (map[string]any, string, bool) {
	want := keys.Normalize(name)
	for key, v := range doc {
		table, ok := v.(map[string]any)
		if ok && keys.Normalize(key) == want {
			return table, key, true
		}
	}
	return nil, "", false
}

// findAttribute returns the key matching name in table.
func findAttribute(table map[string]any, name string) (string, bool) {
	want := keys.Normalize(name)
	for key := range table {
		if keys.Normalize(key) == want {
			return key, true
		}
	}
	return "", false
}

// Exists reports whether the file is present.
func (s *Store) Exists() (bool, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("filestore: stat %s: %w", s.path, err)
	}
	return info.Mode().IsRegular(), nil
}

// Initialize creates an empty file, and its directory, when the file is missing.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.Exists()
	if err != nil || exists {
		return err
	}
	if err := s.save(make(map[string]any)); err != nil {
		return err
	}
	s.logger.Info("created config file", zap.String("path", s.path), zap.String("format", s.format))
	return nil
}

// Read returns the text for section/attribute. Null attributes read as absent.
func (s *Store) Read(section, attribute string, envOverride bool) (string, bool, error) {
	if envOverride {
		if v, ok, err := envsource.Resolve(s.env, section, attribute); err != nil || ok {
			return v, ok, err
		}
	}

	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return "", false, err
	}

	table, _, ok := findSection(doc, section)
	if !ok {
		return "", false, nil
	}
	key, ok := findAttribute(table, attribute)
	if !ok {
		return "", false, nil
	}

	text, ok := stringify(table[key])
	if !ok {
		return "", false, nil
	}
	return text, true, nil
}

// Write stores value under section/attribute, creating the section when missing.
func (s *Store) Write(section, attribute string, value *string) error {
	return s.update(func(doc map[string]any) bool {
		table, _, ok := findSection(doc, section)
		if !ok {
			table = make(map[string]any)
			doc[s.tableName(section)] = table
		}
		key, ok := findAttribute(table, attribute)
		if !ok {
			key = attribute
		}
		table[key] = textValue(value)
		return true
	})
}

// SectionExists reports whether section is present.
func (s *Store) SectionExists(section string) (bool, error) {
	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	_, _, ok := findSection(doc, section)
	return ok, nil
}

// AttributeExists reports whether attribute is present in section.
func (s *Store) AttributeExists(section, attribute string) (bool, error) {
	s.mu.Lock()
	doc, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	table, _, ok := findSection(doc, section)
	if !ok {
		return false, nil
	}
	_, ok = findAttribute(table, attribute)
	return ok, nil
}

// CreateSection adds an empty section if missing.
func (s *Store) CreateSection(section string) error {
	return s.update(func(doc map[string]any) bool {
		if _, _, ok := findSection(doc, section); ok {
			return false
		}
		doc[s.tableName(section)] = make(map[string]any)
		return true
	})
}

// CreateAttribute adds attribute with value if missing, creating the section
// when needed.
func (s *Store) CreateAttribute(section, attribute string, value *string) error {
	return s.update(func(doc map[string]any) bool {
		table, _, ok := findSection(doc, section)
		if !ok {
			table = make(map[string]any)
			doc[s.tableName(section)] = table
		}
		if _, ok := findAttribute(table, attribute); ok {
			return false
		}
		table[attribute] = textValue(value)
		return true
	})
}

// update applies fn to the current document and writes it back when fn
// reports a change.
func (s *Store) update(fn func(doc map[string]any) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if !fn(doc) {
		return nil
	}
	if err := s.save(doc); err != nil {
		return err
	}
	s.logger.Debug("config file updated", zap.String("path", s.path))
	return nil
}

// tableName is the document key a new section is created under.
func (s *Store) tableName(section string) string {
	if s.format == FormatINI {
		return iniSectionName(section)
	}
	return section
}

func textValue(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
