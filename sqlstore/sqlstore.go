// Package sqlstore keeps configuration in a PostgreSQL table.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/YADRO-KNS/ConfigORM/envsource"
	"github.com/YADRO-KNS/ConfigORM/internal/keys"
)

// DefaultTimeout bounds every database call.
const DefaultTimeout = 10 * time.Second

// DefaultTable is the name of the values table.
const DefaultTable = "configorm_values"

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store keeps attribute values in <table> and section names in <table>_sections.
type Store struct {
	db      *sqlx.DB
	table   string
	base    context.Context
	timeout time.Duration
	env     envsource.Source
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTable sets the values table name. The sections table is <name>_sections.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
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

// New creates a store on db.
func New(db *sqlx.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: nil database")
	}

	s := &Store{
		db:      db,
		table:   DefaultTable,
		base:    context.Background(),
		timeout: DefaultTimeout,
		env:     envsource.Default(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !tableNamePattern.MatchString(s.table) {
		return nil, fmt.Errorf("sqlstore: invalid table name %q", s.table)
	}
	return s, nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.base, s.timeout)
}

func (s *Store) sectionsTable() string { return s.table + "_sections" }

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

// Exists reports whether the values table exists.
func (s *Store) Exists() (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	const query = `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, s.table); err != nil {
		return false, fmt.Errorf("sqlstore: exists failed: %w", err)
	}
	return exists, nil
}

// Initialize creates both tables if they are missing.
func (s *Store) Initialize() error {
	ctx, cancel := s.ctx()
	defer cancel()

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			section TEXT PRIMARY KEY
		)`, s.sectionsTable()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			section   TEXT NOT NULL,
			attribute TEXT NOT NULL,
			value     TEXT NULL,
			PRIMARY KEY (section, attribute)
		)`, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: initialize failed: %w", err)
		}
	}
	s.logger.Info("initialized sql store", zap.String("table", s.table))
	return nil
}

// Read returns the text for section/attribute.
func (s *Store) Read(section, attribute string, envOverride bool) (string, bool, error) {
	if envOverride {
		if v, ok, err := envsource.Resolve(s.env, section, attribute); err != nil || ok {
			return v, ok, err
		}
	}

	ctx, cancel := s.ctx()
	defer cancel()

	query := fmt.Sprintf(`SELECT value FROM %s WHERE section = $1 AND attribute = $2`, s.table)

	var value sql.NullString
	if err := s.db.GetContext(ctx, &value, query, keys.Normalize(section), keys.Normalize(attribute)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlstore: read failed: %w", err)
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Write replaces the value of section/attribute, creating the section when missing.
func (s *Store) Write(section, attribute string, value *string) error {
	upsert := fmt.Sprintf(`INSERT INTO %s (section, attribute, value) VALUES ($1, $2, $3)
		ON CONFLICT (section, attribute) DO UPDATE SET value = EXCLUDED.value`, s.table)

	err := s.withSection(section, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, upsert, keys.Normalize(section), keys.Normalize(attribute), nullString(value))
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlstore: write failed: %w", err)
	}
	s.logger.Debug("sql value written",
		zap.String("section", section),
		zap.String("attribute", attribute))
	return nil
}

// SectionExists reports whether section is registered.
func (s *Store) SectionExists(section string) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE section = $1)`, s.sectionsTable())

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, keys.Normalize(section)); err != nil {
		return false, fmt.Errorf("sqlstore: section lookup failed: %w", err)
	}
	return exists, nil
}

// AttributeExists reports whether attribute is present in section.
func (s *Store) AttributeExists(section, attribute string) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE section = $1 AND attribute = $2)`, s.table)

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, keys.Normalize(section), keys.Normalize(attribute)); err != nil {
		return false, fmt.Errorf("sqlstore: attribute lookup failed: %w", err)
	}
	return exists, nil
}

// CreateSection registers section.
func (s *Store) CreateSection(section string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	query := fmt.Sprintf(`INSERT INTO %s (section) VALUES ($1) ON CONFLICT DO NOTHING`, s.sectionsTable())
	if _, err := s.db.ExecContext(ctx, query, keys.Normalize(section)); err != nil {
		return fmt.Errorf("sqlstore: create section failed: %w", err)
	}
	return nil
}

// CreateAttribute adds attribute with value if missing.
func (s *Store) CreateAttribute(section, attribute string, value *string) error {
	insert := fmt.Sprintf(`INSERT INTO %s (section, attribute, value) VALUES ($1, $2, $3)
		ON CONFLICT (section, attribute) DO NOTHING`, s.table)

	err := s.withSection(section, func(ctx context.Context, tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, insert, keys.Normalize(section), keys.Normalize(attribute), nullString(value))
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlstore: create attribute failed: %w", err)
	}
	return nil
}

// withSection runs fn in a transaction after registering section.
func (s *Store) withSection(section string, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	ctx, cancel := s.ctx()
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	register := fmt.Sprintf(`INSERT INTO %s (section) VALUES ($1) ON CONFLICT DO NOTHING`, s.sectionsTable())
	if _, err := tx.ExecContext(ctx, register, keys.Normalize(section)); err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}
