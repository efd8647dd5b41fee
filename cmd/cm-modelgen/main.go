// Command cm-modelgen generates model.Node implementations from YAML
// model definitions.
//
// Each model becomes an immutable struct with ID, ForEach, Map, MergeWith
// and Equal. Fields typed with another model are child nodes; "[]Model"
// fields are optional child lists. A required child that is deleted makes
// Map return nil, which deletes the parent too.
//
// Usage:
//
//	cm-modelgen -input models.yaml -output models_gen.go [-package name]
//
// Typically run via go:generate:
//
//	//go:generate go run github.com/graphcache/consistency-go/cmd/cm-modelgen -input models.yaml -output models_gen.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

func main() {
	input := flag.String("input", "", "Path to the model definition YAML")
	output := flag.String("output", "", "Output path for the generated Go file")
	pkg := flag.String("package", "", "Override the package name from the definitions")
	flag.Parse()

	if *input == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: cm-modelgen -input <path> -output <path> [-package <name>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*input, *output, *pkg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output, pkg string) error {
	defs, err := LoadModelFile(input)
	if err != nil {
		return fmt.Errorf("loading model definitions: %w", err)
	}
	if pkg != "" {
		defs.Package = pkg
	}

	code, err := Generate(defs, filepath.Base(input))
	if err != nil {
		return fmt.Errorf("generating models: %w", err)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	if err := writeFormatted(output, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s (%d models)\n", output, len(defs.Models))
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Write unformatted so you can debug the generator output
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
