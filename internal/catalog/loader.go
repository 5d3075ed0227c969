package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/dbschema/pkg/core"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	// ManifestFile optionally lists the modules to load, in order.
	ManifestFile = "manifest.yaml"
	// TablesDir is the per-module folder holding table files.
	TablesDir = "tables"

	loadConcurrency = 8
)

// Manifest lists the modules of a metadata directory.
type Manifest struct {
	Modules []string `yaml:"modules"`
}

// tableFile is one table file to parse.
type tableFile struct {
	module string
	path   string
}

// Load reads every table file below dir. Files are parsed concurrently;
// the resulting load order is module order, then file name order.
func Load(ctx context.Context, dir string, opts core.SourceOptions, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("metadata path %s is not a directory", dir)
	}

	modules, err := discoverModules(dir)
	if err != nil {
		return nil, err
	}

	files, err := discoverTableFiles(dir, modules)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered table files", "dir", dir, "modules", len(modules), "files", len(files))

	tables := make([]*core.Table, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := readTableFile(f.path)
			if err != nil {
				return err
			}
			if t.Module == "" {
				t.Module = f.module
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(tables, modules, opts, logger)
}

// discoverModules returns the manifest modules, or every subdirectory of dir
// holding a tables folder, sorted by name.
func discoverModules(dir string) ([]string, error) {
	manifest, err := ReadManifest(filepath.Join(dir, ManifestFile))
	if err == nil {
		return manifest.Modules, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata directory: %w", err)
	}
	var modules []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if info, err := os.Stat(filepath.Join(dir, e.Name(), TablesDir)); err == nil && info.IsDir() {
			modules = append(modules, e.Name())
		}
	}
	sort.Strings(modules)
	return modules, nil
}

// ReadManifest parses a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var m Manifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}

func discoverTableFiles(dir string, modules []string) ([]tableFile, error) {
	var files []tableFile
	for _, module := range modules {
		tablesDir := filepath.Join(dir, module, TablesDir)
		entries, err := os.ReadDir(tablesDir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read module %s: %w", module, err)
		}
		for _, e := range entries {
			if e.IsDir() || !IsTableFile(e.Name()) {
				continue
			}
			files = append(files, tableFile{module: module, path: filepath.Join(tablesDir, e.Name())})
		}
	}
	return files, nil
}

// IsTableFile reports whether name has a YAML extension.
func IsTableFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// readTableFile strictly decodes one table. A missing name defaults to the
// file name without extension.
func readTableFile(path string) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var t core.Table
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("table file %s is empty", path)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &t, nil
}
