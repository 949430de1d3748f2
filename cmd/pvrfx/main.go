// Command pvrfx inspects PFX effect scripts and PVR textures, decodes and
// tiles textures, and packs scripts with their assets into bundles.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ernie/pvrfx/internal/config"
)

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"parse", "parse [flags] script.pfx", runParse},
	{"decode", "decode [flags] texture.pvr", runDecode},
	{"tile", "tile [flags] in.pvr out.pvr", runTile},
	{"check", "check [flags] dir", runCheck},
	{"bundle", "bundle [flags] dir outdir", runBundle},
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	for _, c := range commands {
		if c.name != os.Args[1] {
			continue
		}
		if err := c.run(os.Args[2:]); err != nil {
			log.Fatalf("pvrfx %s: %v", c.name, err)
		}
		return
	}
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pvrfx <command> [flags] args")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  pvrfx %s\n", c.usage)
	}
}

// common holds the flags every command takes.
type common struct {
	configPath string
	json       bool
}

func (c *common) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "pvrfx.yaml", "configuration file")
	fs.BoolVar(&c.json, "json", false, "write JSON even on a terminal")
}

// load reads the configuration. The default path may be absent.
func (c *common) load(fs *pflag.FlagSet) (*config.Config, error) {
	return config.Load(c.configPath, !fs.Changed("config"))
}

// emit writes v as JSON unless stdout is a terminal, where human is used.
func (c *common) emit(v any, human func(w io.Writer)) error {
	if !c.json && term.IsTerminal(int(os.Stdout.Fd())) {
		human(os.Stdout)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// args parses fs and checks the positional argument count.
func args(fs *pflag.FlagSet, argv []string, n int, usage string) ([]string, error) {
	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if fs.NArg() != n {
		return nil, fmt.Errorf("usage: pvrfx %s", usage)
	}
	return fs.Args(), nil
}
