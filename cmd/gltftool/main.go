// gltftool is a CLI utility for importing and inspecting glTF 2.0 models.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/assets"
	"github.com/Faultbox/midgard-gltf/internal/config"
	"github.com/Faultbox/midgard-gltf/internal/engine/scene"
	"github.com/Faultbox/midgard-gltf/internal/importer"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "tree", "ls":
		err = cmdTree(args)
	case "textures", "tex":
		err = cmdTextures(args)
	case "watch":
		err = cmdWatch(args)
	case "config":
		err = cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`gltftool - glTF 2.0 import utility

Usage:
  gltftool <command> [options]

Commands:
  info <file.gltf|glb>               Show document and import statistics
  tree <file.gltf|glb>               Print the imported entity tree
  textures <file.gltf|glb> [-o dir]  Export decoded textures as WebP or PNG
  watch <file.gltf|glb>              Re-import whenever the model or its assets change
  config [-o file]                   Write the effective configuration

Common options:
  -config <file>   Config file (.yaml or .toml)
  -debug           Debug logging
  -workers <n>     Concurrent mesh/material workers
  -strict          Fail when any primitive is skipped
  -color <c>       Default color policy: white or black
  -assets <dirs>   Extra comma-separated asset search paths
  -log <file>      Also write logs to a rotated file

Examples:
  gltftool info scenes/crate/crate.gltf
  gltftool tree -strict model.glb
  gltftool textures -o ./out -format png model.gltf
  gltftool watch -debug scenes/crate/crate.gltf`)
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	f := config.BindFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: gltftool info <file.gltf|glb>")
	}

	a, err := newApp(f)
	if err != nil {
		return err
	}
	path := fs.Arg(0)

	mgr, err := a.newManager(path)
	if err != nil {
		return err
	}
	defer mgr.Close()

	start := time.Now()
	doc, res, err := a.importFile(context.Background(), mgr, path)
	if err != nil {
		return err
	}
	defer res.Destroy()
	took := time.Since(start)

	ds := formats.GetStats(doc)
	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Generator:  %s\n", doc.Asset.Generator)
	fmt.Printf("Nodes:      %d\n", ds.Nodes)
	fmt.Printf("Meshes:     %d (%d primitives)\n", ds.Meshes, ds.Primitives)
	fmt.Printf("Materials:  %d\n", ds.Materials)
	fmt.Printf("Textures:   %d (%d images, %d samplers)\n", ds.Textures, ds.Images, ds.Samplers)
	fmt.Printf("Accessors:  %d\n", ds.Accessors)
	fmt.Printf("Buffers:    %d (%.2f KB)\n", ds.Buffers, float64(ds.BufferSize)/1024)
	if len(ds.Extensions) > 0 {
		fmt.Printf("Extensions: %s\n", strings.Join(ds.Extensions, ", "))
	}

	is := res.Stats()
	fmt.Println()
	fmt.Printf("Imported %q in %v\n", res.Name, took.Round(time.Microsecond))
	fmt.Printf("  Entities:  %d\n", is.Entities)
	fmt.Printf("  Meshes:    %d (%d primitives)\n", is.Meshes, is.Primitives)
	fmt.Printf("  Vertices:  %d\n", is.Vertices)
	fmt.Printf("  Indices:   %d\n", is.Indices)
	fmt.Printf("  Materials: %d\n", is.Materials)
	fmt.Printf("  Textures:  %d\n", is.Textures)
	fmt.Printf("  Radius:    %.3f\n", is.Radius)

	if is.Failures > 0 {
		fmt.Println()
		fmt.Printf("Skipped (%d):\n", is.Failures)
		for _, fail := range res.Failures {
			fmt.Printf("  %v\n", fail)
		}
	}
	return nil
}

func cmdTree(args []string) error {
	fs := flag.NewFlagSet("tree", flag.ExitOnError)
	depth := fs.Int("d", 0, "Limit output to depth N (0 = all)")
	f := config.BindFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: gltftool tree <file.gltf|glb>")
	}

	a, err := newApp(f)
	if err != nil {
		return err
	}
	path := fs.Arg(0)

	mgr, err := a.newManager(path)
	if err != nil {
		return err
	}
	defer mgr.Close()

	_, res, err := a.importFile(context.Background(), mgr, path)
	if err != nil {
		return err
	}
	defer res.Destroy()

	res.Root.Walk(func(e *scene.Entity, d int) bool {
		if *depth > 0 && d > *depth {
			return false
		}
		fmt.Println(describeEntity(e, d))
		return true
	})
	return nil
}

func cmdTextures(args []string) error {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	out := fs.String("o", "", "Output directory (default from config)")
	format := fs.String("format", "", "Export format: webp or png (default from config)")
	f := config.BindFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: gltftool textures <file.gltf|glb> [-o dir]")
	}

	a, err := newApp(f)
	if err != nil {
		return err
	}
	if *out != "" {
		a.cfg.Export.Dir = *out
	}
	if *format != "" {
		a.cfg.Export.Format = *format
	}
	path := fs.Arg(0)

	mgr, err := a.newManager(path)
	if err != nil {
		return err
	}
	defer mgr.Close()

	doc, res, err := a.importFile(context.Background(), mgr, path)
	if err != nil {
		return err
	}
	defer res.Destroy()

	written, err := a.exportTextures(doc, res, a.cfg.Export.Dir, a.cfg.Export.Format)
	for _, p := range written {
		fmt.Println(p)
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nExported %d textures to %s\n", len(written), a.cfg.Export.Dir)
	return nil
}

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	f := config.BindFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: gltftool watch <file.gltf|glb>")
	}

	a, err := newApp(f)
	if err != nil {
		return err
	}
	path := fs.Arg(0)

	mgr, err := a.newManager(path)
	if err != nil {
		return err
	}
	defer mgr.Close()

	debounce := time.Duration(a.cfg.Watch.DebounceMS) * time.Millisecond
	w, err := assets.NewWatcher(mgr, debounce, a.cfg.Watch.Extensions)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, dir := range mgr.Roots() {
		if err := w.AddRecursive(dir); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var current *importer.Result
	reload := func() {
		if current != nil {
			current.Destroy()
			current = nil
		}
		if a.opts.Textures != nil {
			a.opts.Textures.Clear()
		}
		start := time.Now()
		_, res, err := a.importFile(ctx, mgr, path)
		if err != nil {
			logger.Error("reimport failed", zap.String("file", path), zap.Error(err))
			return
		}
		current = res
		s := res.Stats()
		logger.Info("reimported",
			zap.String("file", path),
			zap.Int("meshes", s.Meshes),
			zap.Int("entities", s.Entities),
			zap.Int("failures", s.Failures),
			zap.Duration("took", time.Since(start)))
	}

	reload()
	fmt.Printf("Watching %s (Ctrl+C to stop)\n", strings.Join(mgr.Roots(), ", "))

	err = w.Run(ctx, func(paths []string) {
		for _, p := range paths {
			logger.Debug("changed", zap.String("path", p))
		}
		reload()
	})
	if current != nil {
		current.Destroy()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	out := fs.String("o", "", "Output file (.yaml or .toml, default user config dir)")
	f := config.BindFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(f)
	if err != nil {
		return err
	}

	if *out == "" {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", filepath.Join(config.ConfigDir(), "gltftool.yaml"))
		return nil
	}
	if err := cfg.SaveTo(*out); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *out)
	return nil
}
