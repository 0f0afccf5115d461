// Package envsource resolves environment overrides for configuration fields.
package envsource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Key returns the environment variable name for section/attribute:
// the upper-cased "section_attribute".
func Key(section, attribute string) string {
	return strings.ToUpper(section + "_" + attribute)
}

// Source looks up environment values by key.
type Source interface {
	Lookup(key string) (value string, ok bool, err error)
}

// Func adapts a plain lookup function to Source.
type Func func(key string) (string, bool)

// Lookup implements Source.
func (f Func) Lookup(key string) (string, bool, error) {
	v, ok := f(key)
	return v, ok, nil
}

// Process returns the process environment.
func Process() Source {
	return Func(os.LookupEnv)
}

// Default returns the source stores use when none is configured.
func Default() Source {
	return Process()
}

// Map returns a fixed source, mainly for tests.
func Map(values map[string]string) Source {
	return Func(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

type dotEnv struct {
	files []string
}

// DotEnv returns a source backed by .env files. Files are re-read on every
// lookup, so edits take effect immediately. Missing files are skipped; when
// several files define a key the first one wins.
func DotEnv(files ...string) Source {
	if len(files) == 0 {
		files = []string{".env"}
	}
	return &dotEnv{files: files}
}

func (d *dotEnv) Lookup(key string) (string, bool, error) {
	for _, file := range d.files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", false, fmt.Errorf("envsource: read %s: %w", file, err)
		}
		if v, ok := values[key]; ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

type chain []Source

// Chain consults sources in order; the first hit wins.
func Chain(sources ...Source) Source {
	return chain(sources)
}

func (c chain) Lookup(key string) (string, bool, error) {
	for _, s := range c {
		if s == nil {
			continue
		}
		v, ok, err := s.Lookup(key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Resolve looks up the override for section/attribute in src.
func Resolve(src Source, section, attribute string) (string, bool, error) {
	if src == nil {
		return "", false, nil
	}
	return src.Lookup(Key(section, attribute))
}
