package main

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// RawModelFile is a YAML file of model definitions for one Go package.
type RawModelFile struct {
	Package string        `yaml:"package"`
	Models  []RawModelDef `yaml:"models"`
}

// RawModelDef describes one model type.
type RawModelDef struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Projection  string        `yaml:"projection"` // optional, defaults to the type name
	IDField     string        `yaml:"id"`         // field holding the identifier, empty for none
	Fields      []RawFieldDef `yaml:"fields"`
}

// RawFieldDef describes a model field. Type is a Go scalar type, the name
// of another model in the file, or "[]Model" for a list of children.
type RawFieldDef struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"` // only for single child fields
	Description string `yaml:"description"`
}

// scalarTypes are the field types copied and compared by value.
var scalarTypes = map[string]bool{
	"string": true, "bool": true,
	"int": true, "int32": true, "int64": true,
	"uint": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
}

var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// reservedFields collide with the generated methods.
var reservedFields = map[string]bool{
	"ForEach": true, "Map": true, "MergeWith": true, "Equal": true, "Projection": true,
}

// ParseModelFile parses and validates model definitions from YAML bytes.
func ParseModelFile(data []byte) (*RawModelFile, error) {
	var f RawModelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing model definitions: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadModelFile loads and parses model definitions from a file.
func LoadModelFile(path string) (*RawModelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseModelFile(data)
}

// Validate checks names, field types and child references.
func (f *RawModelFile) Validate() error {
	if f.Package == "" {
		return fmt.Errorf("model definitions missing package")
	}
	if len(f.Models) == 0 {
		return fmt.Errorf("no models defined")
	}

	models := make(map[string]bool, len(f.Models))
	for _, m := range f.Models {
		if !identRe.MatchString(m.Name) {
			return fmt.Errorf("invalid model name %q", m.Name)
		}
		if models[m.Name] {
			return fmt.Errorf("duplicate model %q", m.Name)
		}
		models[m.Name] = true
	}

	for _, m := range f.Models {
		fields := make(map[string]bool, len(m.Fields))
		for _, fd := range m.Fields {
			if !identRe.MatchString(fd.Name) {
				return fmt.Errorf("%s: invalid field name %q", m.Name, fd.Name)
			}
			if reservedFields[fieldGoName(fd.Name)] {
				return fmt.Errorf("%s: field %q collides with a generated method", m.Name, fd.Name)
			}
			if fields[fd.Name] {
				return fmt.Errorf("%s: duplicate field %q", m.Name, fd.Name)
			}
			fields[fd.Name] = true

			switch fieldKind(fd.Type, models) {
			case kindScalar:
				if fd.Required {
					return fmt.Errorf("%s.%s: only child fields can be required", m.Name, fd.Name)
				}
			case kindList:
				if fd.Required {
					return fmt.Errorf("%s.%s: list fields cannot be required", m.Name, fd.Name)
				}
			case kindChild:
			default:
				return fmt.Errorf("%s.%s: unknown type %q", m.Name, fd.Name, fd.Type)
			}
		}

		if m.IDField != "" {
			if !fields[m.IDField] {
				return fmt.Errorf("%s: id field %q not defined", m.Name, m.IDField)
			}
			for _, fd := range m.Fields {
				if fd.Name == m.IDField && fd.Type != "string" {
					return fmt.Errorf("%s: id field %q must be a string", m.Name, m.IDField)
				}
			}
		}
	}
	return nil
}

type kind int

const (
	kindUnknown kind = iota
	kindScalar
	kindChild
	kindList
)

func fieldKind(typ string, models map[string]bool) kind {
	switch {
	case scalarTypes[typ]:
		return kindScalar
	case models[typ]:
		return kindChild
	case len(typ) > 2 && typ[:2] == "[]" && models[typ[2:]]:
		return kindList
	default:
		return kindUnknown
	}
}
