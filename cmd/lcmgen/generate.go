package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lcmproject/lcmgo/codegen"
	"github.com/lcmproject/lcmgo/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/tools/imports"
)

func run(paths []string, opts genOptions) error {
	if opts.modulePath == "" {
		return fmt.Errorf("lcmgen: --module is required")
	}

	cache := schema.NewCache()
	mod := schema.NewModule()

	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		f, err := cache.ParseCached(string(src))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		f.AddPackagePrefix(opts.packagePrefix)
		mod.Merge(f)
	}

	for _, report := range mod.Collisions() {
		logrus.WithField("hash", fmt.Sprintf("0x%016x", report.Hash)).
			Warnf("structural hash collision: %s and %s are wire-indistinguishable", report.First, report.Second)
	}

	files, err := codegen.Generate(mod, codegen.Options{
		ModulePath: opts.modulePath,
		Derive:     opts.derive,
	})
	if err != nil {
		return err
	}

	for _, file := range files {
		outPath := filepath.Join(opts.outDir, file.RelPath)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
		}

		formatted, err := imports.Process(outPath, file.Source, nil)
		if err != nil {
			return fmt.Errorf("formatting %s: %w", outPath, err)
		}
		if err := os.WriteFile(outPath, formatted, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}

		fmt.Fprintf(os.Stderr, "lcmgen: wrote %s\n", outPath)
	}

	return nil
}
