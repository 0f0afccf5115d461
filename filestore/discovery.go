package filestore

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoveryOptions configures config file discovery.
type DiscoveryOptions struct {
	// Name is the file name without extension.
	Name string
	// Extensions are tried in order within each directory.
	Extensions []string
	// Paths are searched before the current and XDG directories.
	Paths []string
	// EnvVar names a variable holding an explicit path.
	EnvVar string
	// CLIFlag names a flag holding an explicit path, looked up in Args.
	// "config", "-config" and "--config" all match both dash styles, the
	// way the flag package parses them.
	CLIFlag string
	Args    []string

	UseXDG        bool
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns discovery options for appName: files named
// appName with any supported extension, APPNAME_CONFIG, the config flag, the
// current directory and XDG directories.
func DefaultDiscoveryOptions(appName string) DiscoveryOptions {
	return DiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json", ".ini", ".cfg"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "config",
		Args:          os.Args[1:],
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// Discover locates a config file. Explicit paths from the flag or the
// environment are returned even when the file does not exist yet, so the
// integrity check can create it. ok is false when nothing was found.
func Discover(opts DiscoveryOptions) (path string, ok bool) {
	if path, ok := flagValue(opts.Args, opts.CLIFlag); ok {
		return path, true
	}
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path, true
		}
	}

	for _, dir := range searchDirs(opts) {
		for _, ext := range opts.Extensions {
			candidate := filepath.Join(dir, opts.Name+ext)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
	}
	return "", false
}

// flagValue finds the value of flag name in args, accepting "-name value",
// "--name value" and the "=" forms. Scanning stops at "--".
func flagValue(args []string, name string) (string, bool) {
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "", false
	}

	for i, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		key, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key != name {
			continue
		}
		if hasValue {
			return value, true
		}
		if i+1 < len(args) {
			return args[i+1], true
		}
		return "", false
	}
	return "", false
}

func searchDirs(opts DiscoveryOptions) []string {
	dirs := append([]string(nil), opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if opts.UseXDG {
		dirs = append(dirs, xdgConfigPaths(opts.Name)...)
	}
	return dirs
}

// xdgConfigPaths returns the XDG config directories for appName, user
// directory first.
func xdgConfigPaths(appName string) []string {
	var paths []string

	switch home := os.Getenv("XDG_CONFIG_HOME"); {
	case home != "":
		paths = append(paths, filepath.Join(home, appName))
	case os.Getenv("HOME") != "":
		paths = append(paths, filepath.Join(os.Getenv("HOME"), ".config", appName))
	}

	dirs := filepath.SplitList(os.Getenv("XDG_CONFIG_DIRS"))
	if len(dirs) == 0 {
		dirs = []string{"/etc/xdg", "/etc"}
	}
	for _, dir := range dirs {
		paths = append(paths, filepath.Join(dir, appName))
	}
	return paths
}
