package filestore

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

// iniOptions matches Python's ConfigParser: '#', ';', quotes and trailing
// backslashes inside values are literal text and both '=' and ':' separate
// keys from values.
func iniOptions() ini.LoadOptions {
	return ini.LoadOptions{
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		PreserveSurroundedQuote: true,
		KeyValueDelimiters:      "=:",
	}
}

// decodeINI parses an INI file. Keys listed without a value are null.
// Keys of the DEFAULT section are kept at the top level of the tree.
func decodeINI(data []byte) (map[string]any, error) {
	opts := iniOptions()
	opts.AllowBooleanKeys = true
	file, err := ini.LoadSources(opts, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INI: %w", err)
	}

	// ini.v1 reports bare keys as "true"; a second pass that skips them
	// tells them apart from keys holding that text.
	opts = iniOptions()
	opts.SkipUnrecognizableLines = true
	valued, err := ini.LoadSources(opts, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INI: %w", err)
	}

	doc := make(map[string]any)
	for _, sec := range file.Sections() {
		table := make(map[string]any, len(sec.Keys()))
		valuedSec, _ := valued.GetSection(sec.Name())
		for _, key := range sec.Keys() {
			if valuedSec != nil && valuedSec.HasKey(key.Name()) {
				table[key.Name()] = key.Value()
			} else {
				table[key.Name()] = nil
			}
		}

		if sec.Name() == ini.DefaultSection {
			maps.Copy(doc, table)
			continue
		}
		doc[sec.Name()] = table
	}
	return doc, nil
}

// encodeINI renders the tree as INI. Top-level attributes go to the DEFAULT
// section and tables nested below a section are dropped.
func encodeINI(doc map[string]any) ([]byte, error) {
	file := ini.Empty(iniOptions())

	for _, name := range slices.Sorted(maps.Keys(doc)) {
		table, ok := doc[name].(map[string]any)
		if !ok {
			if err := addINIKey(file.Section(ini.DefaultSection), name, doc[name]); err != nil {
				return nil, err
			}
			continue
		}

		sec, err := file.NewSection(name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode INI section %q: %w", name, err)
		}
		for _, key := range slices.Sorted(maps.Keys(table)) {
			if err := addINIKey(sec, key, table[key]); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode INI: %w", err)
	}
	return buf.Bytes(), nil
}

func addINIKey(sec *ini.Section, name string, value any) error {
	var err error
	switch v := value.(type) {
	case nil:
		_, err = sec.NewBooleanKey(name)
	case map[string]any:
		return nil
	default:
		// Values are trimmed on read, so surrounding blanks cannot be kept.
		text, _ := stringify(v)
		_, err = sec.NewKey(name, strings.TrimSpace(text))
	}
	if err != nil {
		return fmt.Errorf("failed to encode INI key %s.%s: %w", sec.Name(), name, err)
	}
	return nil
}

// iniSectionName is the header a new section gets in an INI file. ConfigParser
// based tools write underscores in section names as spaces.
func iniSectionName(section string) string {
	return strings.ReplaceAll(section, "_", " ")
}
