package config

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FieldMapping is the decoded form of a mapping file: operator overrides
// for the output key of specific NetFlow v9 field types, keyed by their
// numeric type. It exists because the bundled field catalog only names
// the fields this collector's Non-goals don't exclude — vendors that
// export enterprise-specific or IPv6 field types land on "Field_<n>"
// unless an operator supplies a name for them here.
type FieldMapping struct {
	Fields map[uint16]string `yaml:"fields"`
}

// LoadFieldMapping decodes a mapping file from r. An empty input yields an
// empty mapping.
func LoadFieldMapping(r io.Reader) (*FieldMapping, error) {
	m := &FieldMapping{}
	if err := yaml.NewDecoder(r).Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decoding field mapping: %w", err)
	}
	return m, nil
}
