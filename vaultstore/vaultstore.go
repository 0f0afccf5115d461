// Package vaultstore keeps configuration in a HashiCorp Vault KV version 2
// secrets engine. Each section is one secret at path UPPER(section); each
// attribute is a key UPPER(attribute) inside it.
package vaultstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/YADRO-KNS/ConfigORM/envsource"
	"github.com/YADRO-KNS/ConfigORM/internal/keys"
)

// DefaultTimeout bounds every Vault request.
const DefaultTimeout = 10 * time.Second

// Store is a Vault-backed configuration store.
type Store struct {
	kv      *api.KVv2
	mount   string
	base    context.Context
	timeout time.Duration
	env     envsource.Source
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithContext sets the context every request derives from. Cancelling it
// aborts in-flight and future requests.
func WithContext(ctx context.Context) Option {
	return func(s *Store) {
		if ctx != nil {
			s.base = ctx
		}
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

// New returns a store using the KV v2 engine mounted at mount.
func New(client *api.Client, mount string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("vaultstore: nil client")
	}
	mount = strings.Trim(mount, "/")
	if mount == "" {
		return nil, errors.New("vaultstore: empty mount")
	}

	s := &Store{
		kv:      client.KVv2(mount),
		mount:   mount,
		base:    context.Background(),
		timeout: DefaultTimeout,
		env:     envsource.Default(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dial creates a Vault client for address and token and returns a store on it.
func Dial(address, token, mount string, opts ...Option) (*Store, error) {
	cfg := api.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vaultstore: default config: %w", cfg.Error)
	}
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vaultstore: create client: %w", err)
	}
	client.SetToken(token)
	return New(client, mount, opts...)
}

func secretPath(section string) string {
	return strings.ToUpper(keys.Normalize(section))
}

func secretKey(attribute string) string {
	return strings.ToUpper(keys.Normalize(attribute))
}

// secret is the current data of a section and its version (0 when missing).
type secret struct {
	data    map[string]any
	version int
	found   bool
}

func (s *Store) load(section string) (secret, error) {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	path := secretPath(section)
	kvs, err := s.kv.Get(ctx, path)
	if err != nil {
		if errors.Is(err, api.ErrSecretNotFound) {
			return secret{data: make(map[string]any)}, nil
		}
		return secret{}, fmt.Errorf("vaultstore: read %s/%s: %w", s.mount, path, err)
	}

	sec := secret{data: kvs.Data, found: true}
	if sec.data == nil {
		sec.data = make(map[string]any)
	}
	if kvs.VersionMetadata != nil {
		sec.version = kvs.VersionMetadata.Version
	}
	return sec, nil
}

// store writes data with check-and-set against the version it was read at.
func (s *Store) store(section string, sec secret) error {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	path := secretPath(section)
	if _, err := s.kv.Put(ctx, path, sec.data, api.WithCheckAndSet(sec.version)); err != nil {
		return fmt.Errorf("vaultstore: write %s/%s: %w", s.mount, path, err)
	}
	s.logger.Debug("vault secret written",
		zap.String("mount", s.mount),
		zap.String("path", path),
		zap.Int("previous_version", sec.version))
	return nil
}

// Exists always reports true: a KV engine has no per-store state to create.
func (s *Store) Exists() (bool, error) { return true, nil }

// Initialize is a no-op.
func (s *Store) Initialize() error { return nil }

// Read returns the text stored for section/attribute.
func (s *Store) Read(section, attribute string, envOverride bool) (string, bool, error) {
	if envOverride {
		if v, ok, err := envsource.Resolve(s.env, section, attribute); err != nil || ok {
			return v, ok, err
		}
	}

	sec, err := s.load(section)
	if err != nil {
		return "", false, err
	}
	v, ok := sec.data[secretKey(attribute)]
	if !ok || v == nil {
		return "", false, nil
	}
	if text, ok := v.(string); ok {
		return text, true, nil
	}
	return fmt.Sprint(v), true, nil
}

// Write replaces the value of section/attribute, creating the secret when missing.
func (s *Store) Write(section, attribute string, value *string) error {
	sec, err := s.load(section)
	if err != nil {
		return err
	}
	sec.data[secretKey(attribute)] = textValue(value)
	return s.store(section, sec)
}

// SectionExists reports whether the section's secret exists.
func (s *Store) SectionExists(section string) (bool, error) {
	sec, err := s.load(section)
	if err != nil {
		return false, err
	}
	return sec.found, nil
}

// AttributeExists reports whether the section's secret holds attribute.
func (s *Store) AttributeExists(section, attribute string) (bool, error) {
	sec, err := s.load(section)
	if err != nil {
		return false, err
	}
	_, ok := sec.data[secretKey(attribute)]
	return ok, nil
}

// CreateSection is a no-op: the secret is created with its first attribute.
func (s *Store) CreateSection(section string) error { return nil }

// CreateAttribute adds attribute with value if missing.
func (s *Store) CreateAttribute(section, attribute string, value *string) error {
	sec, err := s.load(section)
	if err != nil {
		return err
	}
	key := secretKey(attribute)
	if _, ok := sec.data[key]; ok {
		return nil
	}
	sec.data[key] = textValue(value)
	return s.store(section, sec)
}

func textValue(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
