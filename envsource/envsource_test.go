package envsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "SECTIONA_VALUE", Key("sectiona", "value"))
	assert.Equal(t, "DB_MAX_CONNS", Key("db", "max_conns"))
	assert.Equal(t, "DATABASE_HOST", Key("Database", "Host"))
}

func TestProcess(t *testing.T) {
	t.Setenv("ENVSOURCE_TEST_KEY", "42")

	v, ok, err := Process().Lookup("ENVSOURCE_TEST_KEY")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok, err = Process().Lookup("ENVSOURCE_TEST_MISSING")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcessEmptyValue(t *testing.T) {
	t.Setenv("ENVSOURCE_TEST_EMPTY", "")

	v, ok, err := Default().Lookup("ENVSOURCE_TEST_EMPTY")
	require.NoError(t, err)
	assert.True(t, ok, "a set but empty variable still overrides")
	assert.Empty(t, v)
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("APP_HOST=first\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("APP_HOST=second\nAPP_PORT=8080\n"), 0644))

	src := DotEnv(filepath.Join(dir, "missing.env"), first, second)

	t.Run("FirstFileWins", func(t *testing.T) {
		v, ok, err := src.Lookup("APP_HOST")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "first", v)
	})

	t.Run("FallsThrough", func(t *testing.T) {
		v, ok, err := src.Lookup("APP_PORT")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "8080", v)
	})

	t.Run("Absent", func(t *testing.T) {
		_, ok, err := src.Lookup("APP_USER")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RereadsOnLookup", func(t *testing.T) {
		require.NoError(t, os.WriteFile(first, []byte("APP_HOST=changed\n"), 0644))
		v, ok, err := src.Lookup("APP_HOST")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "changed", v)
	})
}

func TestChain(t *testing.T) {
	src := Chain(
		nil,
		Map(map[string]string{"A": "from-map"}),
		Map(map[string]string{"A": "shadowed", "B": "second"}),
	)

	v, ok, err := src.Lookup("A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-map", v)

	v, ok, err = src.Lookup("B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v)

	_, ok, err = src.Lookup("C")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	src := Map(map[string]string{"SECTIONA_VALUE": "7"})

	v, ok, err := Resolve(src, "sectiona", "value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	_, ok, err = Resolve(nil, "sectiona", "value")
	require.NoError(t, err)
	assert.False(t, ok)
}
