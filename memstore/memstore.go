// Package memstore is an in-memory configuration store.
package memstore

import (
	"sync"

	"go.uber.org/zap"

	"github.com/YADRO-KNS/ConfigORM/envsource"
	"github.com/YADRO-KNS/ConfigORM/internal/keys"
)

// Operation names accepted by Fail.
const (
	OpExists          = "exists"
	OpInitialize      = "initialize"
	OpRead            = "read"
	OpWrite           = "write"
	OpSectionExists   = "section_exists"
	OpAttributeExists = "attribute_exists"
	OpCreateSection   = "create_section"
	OpCreateAttribute = "create_attribute"
)

// Store keeps sections in memory. It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	initialized bool
	sections    map[string]map[string]*string
	failures    map[string]error

	env    envsource.Source
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

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

// WithValues seeds the store with section -> attribute -> text and marks it
// initialized.
func WithValues(values map[string]map[string]string) Option {
	return func(s *Store) {
		s.initialized = true
		for section, attrs := range values {
			sec := s.section(section, true)
			for attr, v := range attrs {
				v := v
				sec[keys.Normalize(attr)] = &v
			}
		}
	}
}

// New returns an empty, uninitialized store.
func New(opts ...Option) *Store {
	s := &Store{
		sections: make(map[string]map[string]*string),
		failures: make(map[string]error),
		env:      envsource.Default(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fail makes every subsequent call of op return err. A nil err clears it.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Raw returns the stored pointer for section/attribute without env override.
// present is false when the attribute does not exist.
func (s *Store) Raw(section, attribute string) (value *string, present bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec := s.section(section, false)
	if sec == nil {
		return nil, false
	}
	value, present = sec[keys.Normalize(attribute)]
	return value, present
}

// Sections returns the normalized names of all sections.
func (s *Store) Sections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	return names
}

func (s *Store) section(name string, create bool) map[string]*string {
	key := keys.Normalize(name)
	sec, ok := s.sections[key]
	if !ok && create {
		sec = make(map[string]*string)
		s.sections[key] = sec
	}
	return sec
}

// Exists reports whether Initialize has run.
func (s *Store) Exists() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[OpExists]; err != nil {
		return false, err
	}
	return s.initialized, nil
}

// Initialize marks the store as created.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpInitialize]; err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Read returns the text for section/attribute.
func (s *Store) Read(section, attribute string, envOverride bool) (string, bool, error) {
	if envOverride {
		if v, ok, err := envsource.Resolve(s.env, section, attribute); err != nil || ok {
			return v, ok, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[OpRead]; err != nil {
		return "", false, err
	}
	sec := s.section(section, false)
	if sec == nil {
		return "", false, nil
	}
	v := sec[keys.Normalize(attribute)]
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Write stores value, creating the section when missing.
func (s *Store) Write(section, attribute string, value *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpWrite]; err != nil {
		return err
	}
	s.section(section, true)[keys.Normalize(attribute)] = clone(value)
	s.logger.Debug("memstore write", zap.String("section", section), zap.String("attribute", attribute))
	return nil
}

// SectionExists reports whether section is present.
func (s *Store) SectionExists(section string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[OpSectionExists]; err != nil {
		return false, err
	}
	return s.section(section, false) != nil, nil
}

// AttributeExists reports whether attribute is present in section.
func (s *Store) AttributeExists(section, attribute string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.failures[OpAttributeExists]; err != nil {
		return false, err
	}
	sec := s.section(section, false)
	if sec == nil {
		return false, nil
	}
	_, ok := sec[keys.Normalize(attribute)]
	return ok, nil
}

// CreateSection adds section if missing.
func (s *Store) CreateSection(section string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpCreateSection]; err != nil {
		return err
	}
	s.section(section, true)
	return nil
}

// CreateAttribute adds attribute with value if missing.
func (s *Store) CreateAttribute(section, attribute string, value *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpCreateAttribute]; err != nil {
		return err
	}
	sec := s.section(section, true)
	key := keys.Normalize(attribute)
	if _, ok := sec[key]; ok {
		return nil
	}
	sec[key] = clone(value)
	return nil
}

func clone(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
