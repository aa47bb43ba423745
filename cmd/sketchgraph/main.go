// Command sketchgraph evaluates sketch scripts and manages saved sketches.
//
// Usage:
//
//	sketchgraph [-config file] run [-save name] [-json] <script>
//	sketchgraph [-config file] show <name>
//	sketchgraph [-config file] list
//	sketchgraph [-config file] export <name>
//	sketchgraph [-config file] delete <name>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/chazu/lignin-sketch/pkg/config"
	"github.com/chazu/lignin-sketch/pkg/sketch"
	"github.com/chazu/lignin-sketch/pkg/store/sqlite"
)

// defaultConfigFile is read when present and -config is not given.
const defaultConfigFile = "sketchgraph.hcl"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// errUsage marks a command line that could not be parsed.
var errUsage = errors.New("usage")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sketchgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to an HCL config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: sketchgraph [-config file] run|show|list|export|delete ...")
		return 2
	}

	path := *configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "sketchgraph: %v\n", err)
		return 1
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c := &cli{app: NewApp(cfg, logger), cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "run":
		err = c.run(ctx, rest)
	case "show":
		err = c.show(ctx, rest)
	case "list":
		err = c.list(ctx, rest)
	case "export":
		err = c.export(ctx, rest)
	case "delete":
		err = c.delete(ctx, rest)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "sketchgraph: %v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "sketchgraph: %v\n", err)
		return 1
	}
}

type cli struct {
	app    *App
	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) openStore() (*sqlite.Store, error) {
	return sqlite.Open(c.cfg.StorePath, sqlite.WithLogger(c.logger))
}

// oneName parses a subcommand that takes exactly one sketch name.
func oneName(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: sketchgraph %s <name>", errUsage, cmd)
	}
	return args[0], nil
}

func (c *cli) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	save := fs.String("save", "", "store the resulting sketch under this name")
	asJSON := fs.Bool("json", false, "write meshes and errors as JSON")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: sketchgraph run [-save name] [-json] <script>", errUsage)
	}

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	result := c.app.Evaluate(string(source), *asJSON)

	if *asJSON {
		enc := json.NewEncoder(c.stdout)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	} else {
		for _, e := range result.Errors {
			fmt.Fprintln(c.stderr, EvalErrorString(e))
		}
		if result.Sketch != nil {
			printSketch(c.stdout, result.Sketch)
		}
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d evaluation error(s)", len(result.Errors))
	}

	if *save != "" {
		store, err := c.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, *save, result.Sketch); err != nil {
			return err
		}
		c.logger.Info("sketch saved", "name", *save, "store", c.cfg.StorePath)
	}
	return nil
}

// EvalErrorString renders e the way compilers print diagnostics.
func EvalErrorString(e EvalErrorData) string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (c *cli) show(ctx context.Context, args []string) error {
	s, err := c.load(ctx, "show", args)
	if err != nil {
		return err
	}
	printSketch(c.stdout, s)
	return nil
}

func (c *cli) export(ctx context.Context, args []string) error {
	s, err := c.load(ctx, "export", args)
	if err != nil {
		return err
	}
	p, err := s.Persist()
	if err != nil {
		return err
	}
	return sketch.WriteJSON(c.stdout, p)
}

func (c *cli) load(ctx context.Context, cmd string, args []string) (*sketch.Sketch, error) {
	name, err := oneName(cmd, args)
	if err != nil {
		return nil, err
	}
	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx, name, c.app.SketchOptions()...)
}

func (c *cli) list(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: sketchgraph list", errUsage)
	}
	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sums, err := store.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNODES\tGEOMETRIES\tUPDATED")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.Nodes, s.Geometries, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func (c *cli) delete(ctx context.Context, args []string) error {
	name, err := oneName("delete", args)
	if err != nil {
		return err
	}
	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Delete(ctx, name)
}

// printSketch writes the axes, the shared parameters and the geometry of s.
func printSketch(w io.Writer, s *sketch.Sketch) {
	for _, a := range s.System.Axes() {
		fmt.Fprint(w, a)
	}
	params := s.System.AllParameters()
	if len(params) > 0 {
		fmt.Fprintln(w, "parameters:")
		for _, p := range params {
			fmt.Fprintf(w, "  %.8s = %s\n", p.ID, p)
		}
	}
	fmt.Fprintf(w, "geometry (%d):\n", len(s.Geometries()))
	for _, g := range s.Geometries() {
		fmt.Fprintf(w, "  %s\n", g)
	}
}
