// Command wgslgame is the developer tool for WGSL games: it prints the processed shader
// or its manifest, checks the processed shader with a WGSL front end and serves a game
// with live reload.
//
// Usage:
//
//	wgslgame [-config file.yaml] [-log level] <build|meta|check|serve> [flags] <path>
//
// The path is a game directory, a zip archive or a single .wgsl file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/wgsl-game/common"
	"github.com/Carmen-Shannon/wgsl-game/engine"
	"github.com/Carmen-Shannon/wgsl-game/engine/devserver"
	"github.com/Carmen-Shannon/wgsl-game/engine/metadata"
	"github.com/gogpu/naga"
	"github.com/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "wgslgame:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: wgslgame [-config file] [-log level] <build|meta|check|serve> [flags] <path>")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("wgslgame", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "YAML config file")
	logLevel := global.String("log", "", "log level (debug, info, warn, error)")
	if err := global.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	level, err := cfg.level()
	if err != nil {
		return err
	}
	common.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}
	cmd, rest := rest[0], rest[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&cfg.Mouse, "mouse", cfg.Mouse, "include the mouse field in the host struct")
	fs.BoolVar(&cfg.Keys, "keys", cfg.Keys, "include the key array in the host struct")
	fs.BoolVar(&cfg.Profile, "profile", cfg.Profile, "log build stage timings")
	format := "yaml"
	strict := false
	switch cmd {
	case "build":
	case "meta":
		fs.StringVar(&format, "format", format, "manifest format: yaml or json")
	case "check":
		fs.BoolVar(&strict, "strict", strict, "also lower and validate the module")
	case "serve":
		fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
		fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent asset loads, 0 for one per CPU")
	default:
		return errors.Wrapf(errUsage, "unknown command %q", cmd)
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	game, err := engine.NewGame(fs.Arg(0),
		engine.WithMouse(cfg.Mouse),
		engine.WithKeys(cfg.Keys),
		engine.WithProfiling(cfg.Profile),
		engine.WithWorkers(cfg.Workers),
		engine.WithAssets(cmd == "serve"),
	)
	if err != nil {
		return err
	}
	defer game.Close()

	b, err := game.Build(ctx)
	if err != nil {
		return err
	}
	game.Profiler().Report()

	switch cmd {
	case "build":
		_, err = io.WriteString(stdout, b.Source)
		return err
	case "meta":
		return writeManifest(stdout, b.Metadata, format)
	case "check":
		return check(stdout, b.Source, strict)
	default:
		return devserver.NewServer(game, devserver.WithAccessLog(stderr)).Run(ctx, cfg.Addr)
	}
}

func writeManifest(w io.Writer, meta metadata.Metadata, format string) error {
	m := metadata.NewManifest(meta)
	switch format {
	case "yaml":
		return m.WriteYAML(w)
	case "json":
		return m.WriteJSON(w)
	default:
		return errors.Errorf("unknown manifest format %q", format)
	}
}

// check parses the processed shader and, when strict, lowers and validates it.
func check(w io.Writer, source string, strict bool) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return errors.Wrap(err, "processed shader does not parse")
	}
	if strict {
		module, err := naga.LowerWithSource(ast, source)
		if err != nil {
			return errors.Wrap(err, "processed shader does not lower")
		}
		problems, err := naga.Validate(module)
		if err != nil {
			return errors.Wrap(err, "validation failed")
		}
		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintln(w, p.Error())
			}
			return errors.Errorf("%d validation errors", len(problems))
		}
	}
	_, err = fmt.Fprintln(w, "ok")
	return err
}
