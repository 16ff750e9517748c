package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PresetsFile is the project-relative location of the command presets.
const PresetsFile = ".codeshell/commands.yaml"

// Presets are the named commands configured for a project.
type Presets []CommandConfig

type presetsYAML struct {
	Commands []CommandConfig `yaml:"commands"`
}

// LoadPresets reads the presets file of the project at projectPath. A missing
// file yields no presets. Every preset needs a unique, non-empty name and a
// command.
func LoadPresets(fsys fileReader, projectPath string) (Presets, error) {
	path := filepath.Join(projectPath, filepath.FromSlash(PresetsFile))
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Presets{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParsePresets(path, data)
}

// ParsePresets decodes presets YAML. path is used in error messages only.
func ParsePresets(path string, data []byte) (Presets, error) {
	var doc presetsYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &PresetParseError{Path: path, Cause: err}
	}

	seen := make(map[string]bool, len(doc.Commands))
	for i, cmd := range doc.Commands {
		if cmd.Name == "" {
			return nil, &PresetParseError{Path: path, Cause: fmt.Errorf("command at index %d has no name", i)}
		}
		if cmd.Command == "" {
			return nil, &PresetParseError{Path: path, Cause: fmt.Errorf("command %q has no command line", cmd.Name)}
		}
		if seen[cmd.Name] {
			return nil, &PresetParseError{Path: path, Cause: fmt.Errorf("duplicate command %q", cmd.Name)}
		}
		seen[cmd.Name] = true
	}

	if doc.Commands == nil {
		return Presets{}, nil
	}
	return Presets(doc.Commands), nil
}

// Find returns the preset with the given name.
func (p Presets) Find(name string) (CommandConfig, bool) {
	for _, cmd := range p {
		if cmd.Name == name {
			return cmd, true
		}
	}
	return CommandConfig{}, false
}

// Names returns the preset names in file order.
func (p Presets) Names() []string {
	names := make([]string, len(p))
	for i, cmd := range p {
		names[i] = cmd.Name
	}
	return names
}
