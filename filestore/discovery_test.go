package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("a: {}\n"), 0644))

	base := DiscoveryOptions{
		Name:       "app",
		Extensions: []string{".toml", ".yaml"},
		Paths:      []string{dir},
		EnvVar:     "APP_CONFIG",
		CLIFlag:    "--config",
	}

	t.Run("SearchPaths", func(t *testing.T) {
		t.Setenv("APP_CONFIG", "")
		path, ok := Discover(base)
		assert.True(t, ok)
		assert.Equal(t, yamlPath, path)
	})

	t.Run("ExtensionOrder", func(t *testing.T) {
		t.Setenv("APP_CONFIG", "")
		tomlPath := filepath.Join(dir, "app.toml")
		require.NoError(t, os.WriteFile(tomlPath, nil, 0644))
		defer os.Remove(tomlPath)

		path, ok := Discover(base)
		assert.True(t, ok)
		assert.Equal(t, tomlPath, path)
	})

	t.Run("EnvVar", func(t *testing.T) {
		t.Setenv("APP_CONFIG", "/srv/app.json")
		path, ok := Discover(base)
		assert.True(t, ok)
		assert.Equal(t, "/srv/app.json", path)
	})

	t.Run("CLIFlag", func(t *testing.T) {
		t.Setenv("APP_CONFIG", "/srv/app.json")
		opts := base
		opts.Args = []string{"-v", "--config", "/cli/app.toml"}
		path, ok := Discover(opts)
		assert.True(t, ok)
		assert.Equal(t, "/cli/app.toml", path)

		opts.Args = []string{"--config=/cli/eq.toml"}
		path, ok = Discover(opts)
		assert.True(t, ok)
		assert.Equal(t, "/cli/eq.toml", path)
	})

	t.Run("FlagPackageStyle", func(t *testing.T) {
		t.Setenv("APP_CONFIG", "")
		tests := []struct {
			flag string
			args []string
			want string
			ok   bool
		}{
			{"config", []string{"-config", "/a.toml"}, "/a.toml", true},
			{"-config", []string{"--config", "/b.toml"}, "/b.toml", true},
			{"--config", []string{"-store", "file", "-config=/c.toml"}, "/c.toml", true},
			{"config", []string{"-configs", "/d.toml"}, yamlPath, true},
			{"config", []string{"--", "-config", "/e.toml"}, yamlPath, true},
			{"config", []string{"-config"}, yamlPath, true},
			{"", []string{"-config", "/f.toml"}, yamlPath, true},
		}
		for _, tt := range tests {
			opts := base
			opts.CLIFlag = tt.flag
			opts.Args = tt.args
			path, ok := Discover(opts)
			assert.Equal(t, tt.ok, ok, "%q %v", tt.flag, tt.args)
			assert.Equal(t, tt.want, path, "%q %v", tt.flag, tt.args)
		}
	})

	t.Run("DefaultOptions", func(t *testing.T) {
		opts := DefaultDiscoveryOptions("demo")
		assert.Equal(t, "DEMO_CONFIG", opts.EnvVar)
		assert.Contains(t, opts.Extensions, ".ini")

		v, ok := flagValue([]string{"-config", "x.ini"}, opts.CLIFlag)
		assert.True(t, ok)
		assert.Equal(t, "x.ini", v)
	})

	t.Run("NotFound", func(t *testing.T) {
		t.Setenv("APP_CONFIG", "")
		opts := base
		opts.Name = "missing"
		_, ok := Discover(opts)
		assert.False(t, ok)
	})
}

func TestXDGConfigPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/home")
	t.Setenv("XDG_CONFIG_DIRS", "/xdg/a"+string(os.PathListSeparator)+"/xdg/b")

	paths := xdgConfigPaths("app")
	assert.Equal(t, []string{"/xdg/home/app", "/xdg/a/app", "/xdg/b/app"}, paths)
}

func TestXDGConfigPathsFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_DIRS", "")
	t.Setenv("HOME", "/home/user")

	paths := xdgConfigPaths("app")
	assert.Equal(t, []string{"/home/user/.config/app", "/etc/xdg/app", "/etc/app"}, paths)
}
