package shell

import (
	"sort"
	"strings"

	"github.com/Cyclone1070/codeshell/internal/tool/helper/content"
)

// fileReader defines the filesystem operation needed to read env and preset files.
type fileReader interface {
	ReadFile(path string) ([]byte, error)
}

// ParseEnvFile parses a .env file and returns a map of environment variables.
// It supports:
// - KEY=VALUE format
// - Comments starting with #
// - Empty lines
// - An optional "export " prefix
// - Basic quoted values (single and double quotes)
//
// It does NOT support:
// - Multi-line values
// - Variable expansion
// - Complex shell escaping
func ParseEnvFile(fs fileReader, path string) (map[string]string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, &EnvFileReadError{Path: path, Cause: err}
	}

	env := make(map[string]string)
	for i, rawLine := range content.SplitLines(string(data)) {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &EnvFileParseError{Path: path, Line: i + 1, Content: line}
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		env[key] = value
	}

	return env, nil
}

// mergeEnv overlays layers onto base, a list of KEY=VALUE entries. Later
// layers win. Keys of each layer are applied in sorted order so the result is
// deterministic.
func mergeEnv(base []string, layers ...map[string]string) []string {
	merged := make([]string, 0, len(base))
	index := make(map[string]int, len(base))
	set := func(key, value string) {
		entry := key + "=" + value
		if i, ok := index[key]; ok {
			merged[i] = entry
			return
		}
		index[key] = len(merged)
		merged = append(merged, entry)
	}

	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		if key == "" {
			// windows per-drive entries such as "=C:=C:\"
			merged = append(merged, kv)
			continue
		}
		set(key, value)
	}
	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			set(k, layer[k])
		}
	}
	return merged
}
