package chain

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk representation of a chain set.
type File struct {
	Version string      `yaml:"version"`
	Chains  []FileChain `yaml:"chains"`
}

// FileChain describes a single chain inside a chain file.
type FileChain struct {
	Name  string     `yaml:"name"`
	Steps []FileStep `yaml:"steps"`
}

// FileStep is one program invocation of a chain file.
type FileStep struct {
	Command []string `yaml:"command"`
}

// Document bundles a parsed chain file with where it was loaded from.
type Document struct {
	Chains Set
	Source string
}

// Parse reads a chain definition from YAML. The document is checked against
// the embedded chain file schema before it is decoded.
func Parse(r io.Reader) (Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read chains: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("decode chains: empty document")
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode chains: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode chains: empty document")
	}
	if err := checkSchema(raw); err != nil {
		return nil, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var doc File
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode chains: %w", err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("version is required")
	}
	if len(doc.Chains) == 0 {
		return nil, ErrNoChains
	}

	set := make(Set, 0, len(doc.Chains))
	for i, fc := range doc.Chains {
		c := Chain{Name: fc.Name}
		for j, step := range fc.Steps {
			spec, err := NewProcessSpec(step.Command)
			if err != nil {
				return nil, fmt.Errorf("%s step %d: %w", c.Label(i), j+1, err)
			}
			c.Steps = append(c.Steps, spec)
		}
		set = append(set, c)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Load parses the chain file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()

	set, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Document{Chains: set, Source: path}, nil
}
