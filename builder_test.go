package configorm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YADRO-KNS/ConfigORM/memstore"
)

// TestBuilder tests the builder pattern
func TestBuilder(t *testing.T) {
	t.Run("BasicBuilder", func(t *testing.T) {
		st := newMemStore(map[string]map[string]string{"cache": {"ttl": "30"}}, nil)
		ttl := Integer(Default(60))
		enabled := Boolean(Default(true))

		s, err := NewSectionBuilder("Cache").
			WithStore(st).
			WithLogger(zap.NewNop()).
			WithField("ttl", ttl).
			WithField("enabled", enabled).
			Build()

		require.NoError(t, err)
		assert.Equal(t, []string{"ttl", "enabled"}, s.FieldNames())

		v, err := ttl.Get()
		require.NoError(t, err)
		assert.Equal(t, int64(30), v)

		on, err := enabled.Get()
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("BuilderWithParent", func(t *testing.T) {
		st := newMemStore(nil, nil)
		root := NewSectionBuilder("Root").WithStore(st).MustBuild()

		child := NewSectionBuilder("Child").
			WithParent(root).
			WithField("name", String(Default("x"))).
			MustBuild()

		assert.Same(t, st, child.Store())
		require.Len(t, root.Children(), 1)
		assert.Equal(t, "Child", root.Children()[0].Identifier())
	})

	t.Run("BuilderWithIntegrityCheck", func(t *testing.T) {
		st := memstore.New()
		root := NewSectionBuilder("Root").WithStore(st).MustBuild()
		NewSectionBuilder("Child").
			WithParent(root).
			WithField("name", String(Default("x"))).
			MustBuild()

		_, err := NewSectionBuilder("Checked").
			WithParent(root).
			WithIntegrityCheck().
			Build()
		require.NoError(t, err)

		exists, err := st.Exists()
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("BuilderIntegrityFailure", func(t *testing.T) {
		st := memstore.New()
		st.Fail(memstore.OpInitialize, errors.New("denied"))

		_, err := NewSectionBuilder("Root").WithStore(st).WithIntegrityCheck().Build()
		assert.ErrorIs(t, err, ErrStoreIO)
		assert.ErrorContains(t, err, "integrity check failed")
	})

	t.Run("BuilderWithValidators", func(t *testing.T) {
		st := newMemStore(map[string]map[string]string{"pool": {"min": "10", "max": "5"}}, nil)
		minSize := Integer()
		maxSize := Integer()

		var calls []string
		_, err := NewSectionBuilder("Pool").
			WithStore(st).
			WithField("min", minSize).
			WithField("max", maxSize).
			WithValidator(func(s *Section) error {
				calls = append(calls, "first")
				return nil
			}).
			WithValidator(nil).
			WithValidator(func(s *Section) error {
				calls = append(calls, "second")
				lo, err := minSize.Get()
				if err != nil {
					return err
				}
				hi, err := maxSize.Get()
				if err != nil {
					return err
				}
				if lo > hi {
					return errors.New("min exceeds max")
				}
				return nil
			}).
			Build()

		assert.ErrorContains(t, err, "section validation failed: min exceeds max")
		assert.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("BuilderWithMetadataFactory", func(t *testing.T) {
		called := false
		s, err := NewSectionBuilder("Custom").
			WithStore(newMemStore(nil, nil)).
			WithMetadataFactory(func(identifier string, meta Meta) *Metadata {
				called = true
				return NewMetadata(identifier, meta)
			}).
			Build()
		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, "custom", s.Name())
	})

	t.Run("BuilderErrors", func(t *testing.T) {
		_, err := NewSectionBuilder("App").WithStore(newMemStore(nil, nil)).WithField("port", nil).Build()
		assert.ErrorIs(t, err, ErrSchemaDefinition)

		var port *Field[int64]
		_, err = NewSectionBuilder("App").WithStore(newMemStore(nil, nil)).WithField("port", port).Build()
		assert.ErrorIs(t, err, ErrSchemaDefinition)

		_, err = NewSectionBuilder("App").Build()
		assert.ErrorIs(t, err, ErrSchemaDefinition)

		assert.Panics(t, func() {
			NewSectionBuilder("bad id").WithStore(newMemStore(nil, nil)).MustBuild()
		})
	})
}
