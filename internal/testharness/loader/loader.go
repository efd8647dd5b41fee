package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseScenario parses and validates a scenario from YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if err := validate(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario loads a scenario from a file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	sc, err := ParseScenario(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return sc, nil
}

// LoadDirectory loads all scenarios from a directory.
// Only files with .yaml or .yml extensions are loaded.
func LoadDirectory(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{
			File:    dir,
			Message: "failed to read directory",
			Cause:   err,
		}
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		sc, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// LoadDirectoryRecursive loads all scenarios from a directory and subdirectories.
func LoadDirectoryRecursive(dir string) ([]*Scenario, error) {
	var scenarios []*Scenario

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		sc, err := LoadScenario(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scenarios, nil
}

// FilterByTag returns the scenarios carrying tag. An empty tag keeps all.
func FilterByTag(scenarios []*Scenario, tag string) []*Scenario {
	if tag == "" {
		return scenarios
	}
	var out []*Scenario
	for _, sc := range scenarios {
		if sc.HasTag(tag) {
			out = append(out, sc)
		}
	}
	return out
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func validate(sc *Scenario) error {
	if sc.ID == "" {
		return &LoadError{Message: "scenario ID is required"}
	}
	if len(sc.Steps) == 0 {
		return &LoadError{Message: "scenario must have at least one step"}
	}

	names := make(map[string]bool, len(sc.Listeners))
	for i, l := range sc.Listeners {
		if l.Name == "" {
			return &LoadError{Message: fmt.Sprintf("listener %d has no name", i)}
		}
		if names[l.Name] {
			return &LoadError{Message: fmt.Sprintf("duplicate listener %q", l.Name)}
		}
		if l.Model != nil && len(l.Batch) > 0 {
			return &LoadError{Message: fmt.Sprintf("listener %q: a batch has no model", l.Name)}
		}
		for _, inner := range l.Batch {
			if !names[inner] {
				return &LoadError{Message: fmt.Sprintf("listener %q: unknown batch member %q", l.Name, inner)}
			}
		}
		if err := l.Model.Validate(); err != nil {
			return &LoadError{Message: fmt.Sprintf("listener %q", l.Name), Cause: err}
		}
		names[l.Name] = true
	}

	for i, st := range sc.Steps {
		if st.Action == "" {
			return &LoadError{Message: fmt.Sprintf("step %d has no action", i+1)}
		}
		if st.Listener != "" && !names[st.Listener] {
			return &LoadError{Message: fmt.Sprintf("step %d: unknown listener %q", i+1, st.Listener)}
		}
		if err := st.Model.Validate(); err != nil {
			return &LoadError{Message: fmt.Sprintf("step %d", i+1), Cause: err}
		}
		for _, m := range st.Models {
			if err := m.Validate(); err != nil {
				return &LoadError{Message: fmt.Sprintf("step %d", i+1), Cause: err}
			}
		}
	}
	return nil
}
