package runner

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/graphcache/consistency-go/internal/testharness/loader"
)

// loadScenarios loads every scenario in dir, or only those whose file
// stem matches one of the comma-separated glob patterns in files.
func loadScenarios(dir, files string) ([]*loader.Scenario, error) {
	patterns := parseTags(files)
	if len(patterns) == 0 {
		return loader.LoadDirectory(dir)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, p := range patterns {
		for _, ext := range []string{".yaml", ".yml"} {
			matches, err := filepath.Glob(filepath.Join(dir, p+ext))
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					paths = append(paths, m)
				}
			}
		}
	}
	sort.Strings(paths)

	scenarios := make([]*loader.Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := loader.LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// filterByPattern keeps scenarios whose ID or name matches one of the
// comma-separated glob patterns.
func filterByPattern(scenarios []*loader.Scenario, pattern string) []*loader.Scenario {
	patterns := parseTags(pattern)
	if len(patterns) == 0 {
		return scenarios
	}

	var filtered []*loader.Scenario
	for _, sc := range scenarios {
		for _, p := range patterns {
			if matchPattern(sc.ID, p) || matchPattern(sc.Name, p) {
				filtered = append(filtered, sc)
				break
			}
		}
	}
	return filtered
}

// filterByTags keeps only scenarios that have at least one of the specified tags.
func filterByTags(scenarios []*loader.Scenario, tags string) []*loader.Scenario {
	wanted := parseTags(tags)
	if len(wanted) == 0 {
		return scenarios
	}
	var filtered []*loader.Scenario
	for _, sc := range scenarios {
		if hasAnyTag(sc, wanted) {
			filtered = append(filtered, sc)
		}
	}
	return filtered
}

// filterByExcludeTags removes scenarios that have any of the specified tags.
func filterByExcludeTags(scenarios []*loader.Scenario, excludeTags string) []*loader.Scenario {
	excluded := parseTags(excludeTags)
	if len(excluded) == 0 {
		return scenarios
	}
	var filtered []*loader.Scenario
	for _, sc := range scenarios {
		if !hasAnyTag(sc, excluded) {
			filtered = append(filtered, sc)
		}
	}
	return filtered
}

// parseTags splits a comma-separated string into trimmed non-empty parts.
func parseTags(tags string) []string {
	var result []string
	for _, p := range strings.Split(tags, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func hasAnyTag(sc *loader.Scenario, wanted []string) bool {
	for _, w := range wanted {
		if sc.HasTag(w) {
			return true
		}
	}
	return false
}

// matchPattern performs simple glob matching: "*", "foo*", "*foo", "*foo*"
// or an exact name.
func matchPattern(name, pattern string) bool {
	if pattern == "*" || pattern == "" {
		return true
	}

	hasPrefix := pattern[0] == '*'
	hasSuffix := pattern[len(pattern)-1] == '*'

	switch {
	case hasPrefix && hasSuffix && len(pattern) > 2:
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case hasPrefix:
		return strings.HasSuffix(name, pattern[1:])
	case hasSuffix:
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}
	return name == pattern
}
