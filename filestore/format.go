package filestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatINI  = "ini"
)

// tomlNull marks a null attribute in TOML files, which have no null value.
// Empty strings stay ordinary values.
const tomlNull = "\x00"

// detectFileFormat maps the file extension to a format, or "" when unknown.
func detectFileFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".ini", ".cfg":
		return FormatINI
	default:
		return ""
	}
}

func validFormat(format string) bool {
	switch format {
	case FormatTOML, FormatYAML, FormatJSON, FormatINI:
		return true
	}
	return false
}

// decodeDocument parses file data into a tree whose top-level tables are sections.
func decodeDocument(format string, data []byte) (map[string]any, error) {
	doc := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		restoreNulls(doc)
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if doc == nil {
			doc = make(map[string]any)
		}
	case FormatINI:
		return decodeINI(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return doc, nil
}

// encodeDocument renders the tree. Null attributes become tomlNull in TOML
// and keys without a value in INI.
func encodeDocument(format string, doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(withNullMarkers(doc)); err != nil {
			return nil, fmt.Errorf("failed to encode TOML: %w", err)
		}
	case FormatJSON:
		encoder := json.NewEncoder(&buf)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
	case FormatINI:
		return encodeINI(doc)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return buf.Bytes(), nil
}

func withNullMarkers(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		switch vv := v.(type) {
		case nil:
			out[k] = tomlNull
		case map[string]any:
			out[k] = withNullMarkers(vv)
		default:
			out[k] = v
		}
	}
	return out
}

// restoreNulls turns tomlNull markers back into nil in place.
func restoreNulls(doc map[string]any) {
	for k, v := range doc {
		switch vv := v.(type) {
		case string:
			if vv == tomlNull {
				doc[k] = nil
			}
		case map[string]any:
			restoreNulls(vv)
		}
	}
}

// stringify renders a parsed value as attribute text. Files written by the
// store hold strings; hand-written files may use native scalars and arrays.
// ok is false for null and for nested tables.
func stringify(v any) (string, bool) {
	switch vv := v.(type) {
	case nil:
		return "", false
	case string:
		return vv, true
	case bool:
		return strconv.FormatBool(vv), true
	case int:
		return strconv.Itoa(vv), true
	case int64:
		return strconv.FormatInt(vv, 10), true
	case uint64:
		return strconv.FormatUint(vv, 10), true
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64), true
	case json.Number:
		return vv.String(), true
	case time.Time:
		return vv.Format(time.RFC3339Nano), true
	case []any:
		parts := make([]string, 0, len(vv))
		for _, e := range vv {
			s, _ := stringify(e)
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", true
	case map[string]any:
		return "", false
	default:
		return fmt.Sprint(vv), true
	}
}
