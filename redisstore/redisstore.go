// Package redisstore keeps configuration in Redis hashes, one per section.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/YADRO-KNS/ConfigORM/envsource"
	"github.com/YADRO-KNS/ConfigORM/internal/keys"
)

// DefaultTimeout bounds every Redis round trip.
const DefaultTimeout = 10 * time.Second

// nullValue marks an attribute that exists but holds no value.
const nullValue = "\x00"

// Store is a Redis-backed configuration store. Keys:
//
//	<prefix>:initialized        marker set by Initialize
//	<prefix>:sections           set of section names
//	<prefix>:section:<name>     hash of attribute -> text
type Store struct {
	client  redis.UniversalClient
	prefix  string
	base    context.Context
	timeout time.Duration
	env     envsource.Source
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the prefix for all Redis keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithContext sets the context every call derives from.
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

// New creates a store on client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:  client,
		prefix:  "configorm",
		base:    context.Background(),
		timeout: DefaultTimeout,
		env:     envsource.Default(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) check() error {
	if s == nil || s.client == nil {
		return errors.New("redisstore: store is not initialized")
	}
	return nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.base, s.timeout)
}

func (s *Store) initializedKey() string { return s.prefix + ":initialized" }
func (s *Store) sectionsKey() string    { return s.prefix + ":sections" }
func (s *Store) sectionKey(section string) string {
	return s.prefix + ":section:" + keys.Normalize(section)
}

func encode(value *string) string {
	if value == nil {
		return nullValue
	}
	return *value
}

// Exists reports whether Initialize has run against this prefix.
func (s *Store) Exists() (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	n, err := s.client.Exists(ctx, s.initializedKey()).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: exists failed: %w", err)
	}
	return n > 0, nil
}

// Initialize sets the initialization marker.
func (s *Store) Initialize() error {
	if err := s.check(); err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.SetNX(ctx, s.initializedKey(), time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("redisstore: initialize failed: %w", err)
	}
	s.logger.Info("initialized redis store", zap.String("prefix", s.prefix))
	return nil
}

// Read returns the text for section/attribute.
func (s *Store) Read(section, attribute string, envOverride bool) (string, bool, error) {
	if envOverride {
		if v, ok, err := envsource.Resolve(s.env, section, attribute); err != nil || ok {
			return v, ok, err
		}
	}
	if err := s.check(); err != nil {
		return "", false, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	v, err := s.client.HGet(ctx, s.sectionKey(section), keys.Normalize(attribute)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redisstore: read failed: %w", err)
	}
	if v == nullValue {
		return "", false, nil
	}
	return v, true, nil
}

// Write replaces the value of section/attribute, creating the section when missing.
func (s *Store) Write(section, attribute string, value *string) error {
	if err := s.check(); err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.sectionsKey(), keys.Normalize(section))
		pipe.HSet(ctx, s.sectionKey(section), keys.Normalize(attribute), encode(value))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: write failed: %w", err)
	}
	s.logger.Debug("redis value written",
		zap.String("section", section),
		zap.String("attribute", attribute))
	return nil
}

// SectionExists reports whether section is registered.
func (s *Store) SectionExists(section string) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	ok, err := s.client.SIsMember(ctx, s.sectionsKey(), keys.Normalize(section)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: section lookup failed: %w", err)
	}
	return ok, nil
}

// AttributeExists reports whether attribute is present in section.
func (s *Store) AttributeExists(section, attribute string) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	ok, err := s.client.HExists(ctx, s.sectionKey(section), keys.Normalize(attribute)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: attribute lookup failed: %w", err)
	}
	return ok, nil
}

// CreateSection registers section.
func (s *Store) CreateSection(section string) error {
	if err := s.check(); err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.SAdd(ctx, s.sectionsKey(), keys.Normalize(section)).Err(); err != nil {
		return fmt.Errorf("redisstore: create section failed: %w", err)
	}
	return nil
}

// CreateAttribute adds attribute with value if missing.
func (s *Store) CreateAttribute(section, attribute string, value *string) error {
	if err := s.check(); err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.sectionsKey(), keys.Normalize(section))
		pipe.HSetNX(ctx, s.sectionKey(section), keys.Normalize(attribute), encode(value))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: create attribute failed: %w", err)
	}
	return nil
}
