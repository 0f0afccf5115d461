package configorm

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/YADRO-KNS/ConfigORM/filestore"
)

// Quick declares a root section backed by the file at path. The file format
// follows the extension unless overridden with filestore.WithFormat.
func Quick(identifier, path string, opts ...filestore.Option) (*Section, error) {
	store, err := filestore.New(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open file store: %w", err)
	}
	return NewSection(identifier, Meta{Store: store, Logger: store.Logger()})
}

// MustQuick is like Quick but panics on error.
func MustQuick(identifier, path string, opts ...filestore.Option) *Section {
	s, err := Quick(identifier, path, opts...)
	if err != nil {
		panic(fmt.Sprintf("configorm: initialization failed: %v", err))
	}
	return s
}

// Dump writes the resolved values of s and its children to w as TOML.
// Children become tables named by identifier. Null values are omitted.
func (s *Section) Dump(w io.Writer) error {
	if s.Metadata() == nil {
		return ErrUnbound
	}

	doc, err := s.snapshot()
	if err != nil {
		return err
	}
	for _, child := range s.Children() {
		table, err := child.snapshot()
		if err != nil {
			return err
		}
		doc[child.Identifier()] = table
	}

	return toml.NewEncoder(w).Encode(doc)
}

func (s *Section) snapshot() (map[string]any, error) {
	values, err := s.Values()
	if err != nil {
		return nil, err
	}
	for name, v := range values {
		if v == nil {
			delete(values, name)
		}
	}
	return values, nil
}

// Debug returns a formatted description of s and its children showing, per
// field, the stored text, the resolved value, the default and the flags.
func (s *Section) Debug() string {
	var b strings.Builder
	if s.Metadata() == nil {
		b.WriteString("Section: <undeclared>\n")
		return b.String()
	}

	writeSectionDebug(&b, s.md)
	for _, child := range s.md.children {
		writeSectionDebug(&b, child)
	}
	return b.String()
}

func writeSectionDebug(b *strings.Builder, md *Metadata) {
	b.WriteString(fmt.Sprintf("Section %s (%s):\n", md.identifier, md.name))
	for _, name := range md.order {
		f := md.fields[name]
		b.WriteString(fmt.Sprintf("  %s: %s\n", name, f.kind))

		raw, ok, err := md.store.Read(md.name, name, false)
		switch {
		case err != nil:
			b.WriteString(fmt.Sprintf("    Stored:   <error: %v>\n", err))
		case !ok:
			b.WriteString("    Stored:   <none>\n")
		default:
			b.WriteString(fmt.Sprintf("    Stored:   %q\n", raw))
		}

		v, ok, err := f.read()
		switch {
		case err != nil:
			b.WriteString(fmt.Sprintf("    Resolved: <error: %v>\n", err))
		case !ok:
			b.WriteString("    Resolved: <null>\n")
		default:
			b.WriteString(fmt.Sprintf("    Resolved: %v\n", v))
		}

		if f.def != nil {
			b.WriteString(fmt.Sprintf("    Default:  %v\n", f.def))
		}
		b.WriteString(fmt.Sprintf("    Null: %t  EnvOverride: %t", f.null, f.override))
		if f.rule != "" {
			b.WriteString(fmt.Sprintf("  Rule: %s", f.rule))
		}
		b.WriteString("\n")
	}
}
