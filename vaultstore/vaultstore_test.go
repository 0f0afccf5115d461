package vaultstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YADRO-KNS/ConfigORM/envsource"
)

// fakeVault serves the subset of the KV v2 HTTP API the store uses.
type fakeVault struct {
	mu       sync.Mutex
	secrets  map[string]map[string]any
	versions map[string]int
	writes   int
}

func newFakeVault(t *testing.T) (*fakeVault, *httptest.Server) {
	t.Helper()
	fv := &fakeVault{
		secrets:  make(map[string]map[string]any),
		versions: make(map[string]int),
	}
	srv := httptest.NewServer(fv)
	t.Cleanup(srv.Close)
	return fv, srv
}

func (f *fakeVault) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/v1/secret/data/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{}})
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		data, ok := f.secrets[path]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": f.metadata(path),
			},
		})

	case http.MethodPut, http.MethodPost:
		var body struct {
			Data    map[string]any `json:"data"`
			Options struct {
				CAS *int `json:"cas"`
			} `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{err.Error()}})
			return
		}
		if body.Options.CAS != nil && *body.Options.CAS != f.versions[path] {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"errors": []string{"check-and-set parameter did not match the current version"},
			})
			return
		}
		f.secrets[path] = body.Data
		f.versions[path]++
		f.writes++
		writeJSON(w, http.StatusOK, map[string]any{"data": f.metadata(path)})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"errors": []string{}})
	}
}

func (f *fakeVault) metadata(path string) map[string]any {
	return map[string]any{
		"created_time":    "2024-01-01T00:00:00Z",
		"custom_metadata": nil,
		"deletion_time":   "",
		"destroyed":       false,
		"version":         f.versions[path],
	}
}

func (f *fakeVault) seed(path string, data map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[path] = data
	f.versions[path]++
}

func (f *fakeVault) get(path string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.secrets[path]
	return data, ok
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeVault) {
	t.Helper()
	fv, srv := newFakeVault(t)
	opts = append([]Option{WithEnv(envsource.Map(nil)), WithTimeout(2 * time.Second)}, opts...)
	s, err := Dial(srv.URL, "test-token", "secret", opts...)
	require.NoError(t, err)
	return s, fv
}

func TestNew(t *testing.T) {
	_, err := New(nil, "secret")
	assert.Error(t, err)

	_, err = Dial("http://127.0.0.1:1", "token", "/")
	assert.Error(t, err)
}

func TestExistsAndInitialize(t *testing.T) {
	s, _ := newTestStore(t)

	exists, err := s.Exists()
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, s.Initialize())
	assert.NoError(t, s.CreateSection("anything"))
}

func TestRead(t *testing.T) {
	s, fv := newTestStore(t)
	fv.seed("SECTIONA", map[string]any{"VALUE": "42", "EMPTY": nil})

	v, ok, err := s.Read("sectiona", "value", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok, err = s.Read("sectiona", "empty", false)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Read("sectiona", "missing", false)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Read("nosuchsection", "value", false)
	require.NoError(t, err)
	assert.False(t, ok, "a missing secret path reads as absent")
}

func TestExistence(t *testing.T) {
	s, fv := newTestStore(t)
	fv.seed("SECTIONA", map[string]any{"VALUE": "1", "EMPTY": nil})

	ok, err := s.SectionExists("SectionA")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SectionExists("SectionB")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.AttributeExists("SectionA", "empty")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AttributeExists("SectionA", "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite(t *testing.T) {
	s, fv := newTestStore(t)

	require.NoError(t, s.Write("SectionB", "value", strPtr("7")))
	data, ok := fv.get("SECTIONB")
	require.True(t, ok, "write creates the secret")
	assert.Equal(t, "7", data["VALUE"])

	require.NoError(t, s.Write("sectionb", "other", strPtr("x")))
	require.NoError(t, s.Write("sectionb", "value", nil))
	data, _ = fv.get("SECTIONB")
	assert.Equal(t, map[string]any{"VALUE": nil, "OTHER": "x"}, data, "existing keys are kept")
}

func TestCreateAttribute(t *testing.T) {
	s, fv := newTestStore(t)
	fv.seed("SECTIONA", map[string]any{"VALUE": "42"})

	require.NoError(t, s.CreateAttribute("SectionA", "value", strPtr("0")))
	require.NoError(t, s.CreateAttribute("SectionA", "flag", strPtr("False")))
	require.NoError(t, s.CreateAttribute("SectionA", "token", nil))

	data, _ := fv.get("SECTIONA")
	assert.Equal(t, map[string]any{"VALUE": "42", "FLAG": "False", "TOKEN": nil}, data)

	writes := fv.writes
	require.NoError(t, s.CreateAttribute("SectionA", "flag", strPtr("True")))
	assert.Equal(t, writes, fv.writes, "existing attributes are not rewritten")
}

func TestEnvOverride(t *testing.T) {
	env := map[string]string{"SECTIONA_VALUE": "99"}
	s, fv := newTestStore(t, WithEnv(envsource.Map(env)))
	fv.seed("SECTIONA", map[string]any{"VALUE": "42"})

	v, _, err := s.Read("sectiona", "value", true)
	require.NoError(t, err)
	assert.Equal(t, "99", v)

	delete(env, "SECTIONA_VALUE")
	v, _, err = s.Read("sectiona", "value", true)
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"errors": []string{"sealed"}})
	}))
	defer srv.Close()

	s, err := Dial(srv.URL, "token", "secret", WithEnv(envsource.Map(nil)))
	require.NoError(t, err)

	_, _, err = s.Read("s", "a", false)
	assert.Error(t, err)
	assert.Error(t, s.Write("s", "a", strPtr("1")))
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, fv := newTestStore(t, WithContext(ctx))
	fv.seed("S", map[string]any{"A": "1"})
	cancel()

	_, _, err := s.Read("s", "a", false)
	assert.Error(t, err)
}
