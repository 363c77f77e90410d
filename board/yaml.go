package board

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/chassmon/errors"
)

// Parse decodes a profile from YAML and validates it.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.WrapInvalid(err, "board", "Parse", "decoding profile YAML")
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Load reads a profile from a YAML file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.WrapInvalid(err, "board", "Load", "reading profile file")
	}
	return Parse(data)
}

// Select resolves a board id or profile file path: ids name builtin
// profiles, anything ending in .yaml or .yml loads from disk.
func Select(idOrPath string) (Profile, error) {
	if strings.HasSuffix(idOrPath, ".yaml") || strings.HasSuffix(idOrPath, ".yml") {
		return Load(idOrPath)
	}
	return ForBoard(idOrPath)
}
