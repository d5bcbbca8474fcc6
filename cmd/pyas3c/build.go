package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/halcyon-tools/pyas3c/internal/builddriver"
	"github.com/halcyon-tools/pyas3c/internal/library"
	"github.com/halcyon-tools/pyas3c/internal/swf"
)

// runBuild discovers every source file under root, resolves their import
// graph, and compiles each one (in dependency order) to its own SWF next
// to the source file. With --watch, per-file progress is rendered through
// internal/watchui instead of plain log lines; this still runs the whole
// tree once per invocation rather than re-triggering on filesystem
// changes, a scope reduction from a true continuous watch mode.
func runBuild(root string, out, errOut *os.File) error {
	cachePath := filepath.Join(root, ".pyas3c-cache.yaml")
	cache, err := builddriver.LoadCache(cachePath)
	if err != nil {
		return fail(errOut, "pyas3c: loading build cache: %v", err)
	}

	units, err := builddriver.ScanWithCache(root, cache)
	if err != nil {
		return fail(errOut, "pyas3c: scanning %s: %v", root, err)
	}
	graph, err := builddriver.BuildGraph(units)
	if err != nil {
		return fail(errOut, "pyas3c: %v", err)
	}
	order, err := graph.TopoOrder()
	if err != nil {
		return fail(errOut, "pyas3c: %v", err)
	}

	lib := library.New()
	for _, path := range libraries {
		if err := lib.LoadFile(path); err != nil {
			return fail(errOut, "pyas3c: %v", err)
		}
	}

	if watch {
		return runBuildWatched(root, order, lib, cache, errOut)
	}
	return runBuildPlain(root, order, lib, cache, out, errOut)
}

func runBuildPlain(root string, order []*builddriver.Unit, lib *library.Library, cache *builddriver.Cache, out, errOut *os.File) error {
	var failed int
	for _, u := range order {
		start := time.Now()
		if err := buildUnit(root, u, lib); err != nil {
			fmt.Fprintf(errOut, "%s: %v (%s)\n", u.Path, err, time.Since(start).Round(time.Millisecond))
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: ok (%s)\n", u.Path, time.Since(start).Round(time.Millisecond))
	}
	if err := cache.Save(); err != nil {
		fmt.Fprintf(errOut, "pyas3c: warning: saving build cache: %v\n", err)
	}
	if failed > 0 {
		return fmt.Errorf("pyas3c: %d of %d unit(s) failed", failed, len(order))
	}
	return nil
}

func runBuildWatched(root string, order []*builddriver.Unit, lib *library.Library, cache *builddriver.Cache, errOut *os.File) error {
	paths := make([]string, len(order))
	for i, u := range order {
		paths[i] = u.Path
	}

	reporter, program := watchuiReporter(paths)
	done := make(chan error, 1)
	go func() {
		var failed int
		for _, u := range order {
			reporter.Started(u.Path)
			start := time.Now()
			err := buildUnit(root, u, lib)
			reporter.Finished(u.Path, time.Since(start), err)
			if err != nil {
				failed++
			}
		}
		reporter.Done()
		if saveErr := cache.Save(); saveErr != nil {
			fmt.Fprintf(errOut, "pyas3c: warning: saving build cache: %v\n", saveErr)
		}
		if failed > 0 {
			done <- fmt.Errorf("pyas3c: %d of %d unit(s) failed", failed, len(order))
			return
		}
		done <- nil
	}()

	if _, err := program.Run(); err != nil {
		return fail(errOut, "pyas3c: watch UI: %v", err)
	}
	return <-done
}

// buildUnit parses (if not already cached) and compiles a single unit to
// a SWF named after its source file.
func buildUnit(root string, u *builddriver.Unit, lib *library.Library) error {
	if u.AST == nil {
		parsed, err := builddriver.ParseUnit(root, u.Path)
		if err != nil {
			return err
		}
		u.AST = parsed.AST
	}

	data, err := os.ReadFile(u.Path)
	if err != nil {
		return err
	}
	abcBytes, err := compileSourceWithLibrary(u.Path, string(data), lib, os.Stderr)
	if err != nil {
		return err
	}
	movie, err := swf.Build(mainClass, width, height, frameRate, abcBytes)
	if err != nil {
		return err
	}
	f, err := os.Create(replaceExt(u.Path, ".swf"))
	if err != nil {
		return err
	}
	defer f.Close()
	return swf.WriteFile(f, movie)
}
