// Package packetgen imports a protocol model through an oracle and generates
// the Rust codec definitions and golden round-trip tests for it.
//
//	u := registry.Universe()
//	res, err := packetgen.Generate(u, packetgen.Options{
//	    Importer: importer.Options{Root: registry.Root},
//	    Seed:     4,
//	})
package packetgen

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/tempusfrangit/go-packetgen/emit"
	"github.com/tempusfrangit/go-packetgen/fixture"
	"github.com/tempusfrangit/go-packetgen/importer"
	"github.com/tempusfrangit/go-packetgen/oracle"
	"github.com/tempusfrangit/go-packetgen/schema"
)

// Output file names
const (
	DefinitionsFile = "packets.rs"
	TestsFile       = "tests.rs"
	IRFile          = "ir.json"
)

// Options configures one generator run
type Options struct {
	Importer importer.Options
	// Seed seeds the single random stream shared by all fixtures
	Seed int64
	// Count is the number of fixtures per packet; 0 means fixture.DefaultCount
	Count int
	// IR also renders the IR as JSON
	IR bool
}

// Result is the rendered output of a run
type Result struct {
	Definitions string
	Tests       string
	IR          []byte
	// Cycles lists inline containment cycles, see schema.DependencyGraph
	Cycles [][]string
	// Skipped lists tainted definitions in discovery order
	Skipped []string
}

// File is one output file
type File struct {
	Name string
	Data []byte
}

// Generate imports every packet of o, captures fixtures and renders the output
func Generate(o oracle.Oracle, opts Options) (*Result, error) {
	debugf := opts.Importer.Debugf
	if debugf == nil {
		debugf = func(string, ...any) {}
	}

	imp := importer.New(o, opts.Importer)
	roots, err := imp.ImportPackets()
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	defs := imp.Definitions()
	debugf("Imported %d packets, %d definitions", len(roots), len(defs))

	res := &Result{}
	for _, d := range defs {
		if d.Tainted() {
			res.Skipped = append(res.Skipped, d.Root.TypeName())
		}
	}
	res.Cycles = schema.AnalyzeDefinitions(defs, debugf).DetectCycles()

	count := opts.Count
	if count == 0 {
		count = fixture.DefaultCount
	}
	g := fixture.NewGenerator(rand.New(rand.NewSource(opts.Seed)))
	cases, err := fixture.Capture(o, g, roots, count)
	if err != nil {
		return nil, fmt.Errorf("capture fixtures: %w", err)
	}

	if res.Definitions, err = emit.Definitions(defs); err != nil {
		return nil, fmt.Errorf("render definitions: %w", err)
	}
	if res.Tests, err = emit.Tests(cases); err != nil {
		return nil, fmt.Errorf("render tests: %w", err)
	}
	if opts.IR {
		if res.IR, err = emit.IRJSON(defs); err != nil {
			return nil, fmt.Errorf("render IR: %w", err)
		}
	}
	return res, nil
}

// Files returns the output files of the result
func (r *Result) Files() []File {
	files := []File{
		{Name: DefinitionsFile, Data: []byte(r.Definitions)},
		{Name: TestsFile, Data: []byte(r.Tests)},
	}
	if r.IR != nil {
		files = append(files, File{Name: IRFile, Data: r.IR})
	}
	return files
}

// Write writes the output files into dir, creating it if needed
func Write(r *Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range r.Files() {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// Check compares the result against the files in dir and returns a unified
// diff of every file that drifted. An empty string means dir is up to date.
func Check(r *Result, dir string) (string, error) {
	var out string
	for _, f := range r.Files() {
		path := filepath.Join(dir, f.Name)
		current, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		if string(current) == string(f.Data) {
			continue
		}

		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(current)),
			B:        difflib.SplitLines(string(f.Data)),
			FromFile: "a/" + f.Name,
			ToFile:   "b/" + f.Name,
			Context:  3,
		})
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", f.Name, err)
		}
		out += diff
	}
	return out, nil
}
