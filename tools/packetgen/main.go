// Packet Codec Generator
//
// This tool imports the example protocol model and generates the Rust codec
// definitions (packets.rs) and golden round-trip tests (tests.rs) for it.
//
// Usage:
//
//	packetgen [flags] <out-dir>
//
// Settings come from an optional YAML file (-config); flags given on the
// command line take precedence over it:
//
//	root: github.com/tempusfrangit/go-packetgen/examples/protocol
//	seed: 4
//	thorough: false
//	overrides:
//	  - type: Asset
//	    field: hash
//	    codec: fixed-string(64)
//
// With -check nothing is written; the tool prints a unified diff of every
// output file that would change and exits with status 1 if there is one.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	packetgen "github.com/tempusfrangit/go-packetgen"
	"github.com/tempusfrangit/go-packetgen/config"
	"github.com/tempusfrangit/go-packetgen/examples/protocol/registry"
)

var silent bool
var debug = false

// Set debug from environment variable if present
func init() {
	if os.Getenv("PACKETGEN_DEBUG") != "" {
		debug = true
	}
}

// logf logs a message unless in silent mode
func logf(format string, args ...any) {
	if !silent {
		log.Printf(format, args...)
	}
}

// debugf logs a message only in debug mode
func debugf(format string, args ...any) {
	if debug {
		log.Printf("DEBUG: "+format, args...)
	}
}

// errDrift is returned by run when -check finds stale output
var errDrift = errors.New("generated files are out of date")

type options struct {
	configPath string
	outDir     string
	check      bool
	ir         bool

	// flag values, applied over the config file only when set
	seed     int64
	thorough bool
	root     string
	set      map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("packetgen", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.configPath, "config", "", "YAML settings file")
	fs.Int64Var(&opts.seed, "seed", config.DefaultSeed, "fixture seed")
	fs.BoolVar(&opts.thorough, "thorough", false, "capture 100 fixtures per packet instead of 10")
	fs.StringVar(&opts.root, "root", registry.Root, "package path of the protocol model root")
	fs.BoolVar(&opts.ir, "ir", false, "also write ir.json")
	fs.BoolVar(&opts.check, "check", false, "diff against the files in <out-dir> instead of writing them")
	fs.BoolVar(&silent, "silent", false, "suppress all output except errors")
	fs.BoolVar(&silent, "s", false, "suppress all output except errors (shorthand)")
	fs.BoolVar(&debug, "debug", debug, "enable debug logging")

	fs.Usage = func() {
		fmt.Fprintf(output, "packetgen - Packet Codec Generator\n\n")
		fmt.Fprintf(output, "Generates Rust codec definitions and round-trip tests for the protocol model.\n\n")
		fmt.Fprintf(output, "Usage:\n")
		fmt.Fprintf(output, "  packetgen [flags] <out-dir>\n\n")
		fmt.Fprintf(output, "Output:\n")
		fmt.Fprintf(output, "  %s    codec! definitions, packet list and descriptors\n", packetgen.DefinitionsFile)
		fmt.Fprintf(output, "  %s      one round-trip test per packet\n", packetgen.TestsFile)
		fmt.Fprintf(output, "  %s       the codec IR (with -ir)\n\n", packetgen.IRFile)
		fmt.Fprintf(output, "Examples:\n")
		fmt.Fprintf(output, "  packetgen ./src/generated\n")
		fmt.Fprintf(output, "  packetgen -thorough -seed 7 ./src/generated\n")
		fmt.Fprintf(output, "  packetgen -check ./src/generated   # CI drift check\n\n")
		fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, errors.New("expected exactly one output directory")
	}
	opts.outDir = fs.Arg(0)

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// settings loads the config file and applies explicitly set flags over it
func (o *options) settings() (*config.Config, error) {
	c, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if errs := c.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid config %s:\n  %s", o.configPath, strings.Join(msgs, "\n  "))
	}

	if o.set["seed"] {
		c.Seed = o.seed
	}
	if o.set["thorough"] {
		c.Thorough = o.thorough
	}
	if o.set["root"] || c.Root == "" {
		c.Root = o.root
	}
	return c, nil
}

func run(o *options, stdout io.Writer) error {
	c, err := o.settings()
	if err != nil {
		return err
	}
	importerOpts, err := c.ImporterOptions(debugf)
	if err != nil {
		return err
	}

	debugf("root=%s seed=%d fixtures=%d", c.Root, c.Seed, c.FixtureCount())
	res, err := packetgen.Generate(registry.Universe(), packetgen.Options{
		Importer: importerOpts,
		Seed:     c.Seed,
		Count:    c.FixtureCount(),
		IR:       o.ir,
	})
	if err != nil {
		return err
	}

	for _, name := range res.Skipped {
		logf("Skipping %s: tainted", name)
	}
	for _, cycle := range res.Cycles {
		logf("WARNING: inline containment cycle: %s", strings.Join(cycle, " -> "))
	}

	if o.check {
		diff, err := packetgen.Check(res, o.outDir)
		if err != nil {
			return err
		}
		if diff != "" {
			fmt.Fprint(stdout, diff)
			return errDrift
		}
		logf("%s is up to date", o.outDir)
		return nil
	}

	if err := packetgen.Write(res, o.outDir); err != nil {
		return err
	}
	for _, f := range res.Files() {
		logf("Generated %s/%s", o.outDir, f.Name)
	}
	return nil
}

func main() {
	// Configure log to remove timestamps for cleaner output
	log.SetFlags(0)

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := run(opts, os.Stdout); err != nil {
		if errors.Is(err, errDrift) {
			log.Print(err)
			os.Exit(1)
		}
		log.Fatal("Error: ", err)
	}
}
