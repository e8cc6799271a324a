// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package resolver locates loadable module files on an ordered search path.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
)

// CodeModuleNotFound is returned when no search directory holds the module.
const CodeModuleNotFound = "MODULE_NOT_FOUND"

// Defaults used when the corresponding Options field is empty.
const (
	DefaultEnvVar    = "CMDRELAY_PLUG_IN_PATH"
	DefaultExtension = ".lua"
	DefaultSuffix    = ".nll"
)

// Options configures a Resolver.
type Options struct {
	// EnvVar names the environment variable holding the search path.
	EnvVar string
	// Extension is the primary module file extension, including the dot.
	Extension string
	// Suffix is the module-type suffix inserted before Extension.
	Suffix string
	// Fallback directories are searched after the search path.
	Fallback []string
	// Getenv overrides os.Getenv.
	Getenv func(string) string
}

// Resolver maps short module names to files.
type Resolver struct {
	envVar    string
	extension string
	suffix    string
	fallback  []string
	getenv    func(string) string
}

// New creates a resolver, filling unset options with defaults.
func New(opts Options) *Resolver {
	r := &Resolver{
		envVar:    opts.EnvVar,
		extension: opts.Extension,
		suffix:    opts.Suffix,
		fallback:  opts.Fallback,
		getenv:    opts.Getenv,
	}
	if r.envVar == "" {
		r.envVar = DefaultEnvVar
	}
	if r.extension == "" {
		r.extension = DefaultExtension
	}
	if r.suffix == "" {
		r.suffix = DefaultSuffix
	}
	if r.getenv == nil {
		r.getenv = os.Getenv
	}
	return r
}

// EnvVar returns the name of the search path variable.
func (r *Resolver) EnvVar() string { return r.envVar }

// SearchPath returns the search directories in priority order: the
// entries of the search path variable, then the fallback directories.
// Separators are normalized to the OS separator and empty entries dropped.
func (r *Resolver) SearchPath() []string {
	var dirs []string
	for _, entry := range append(filepath.SplitList(r.getenv(r.envVar)), r.fallback...) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		dirs = append(dirs, normalize(entry))
	}
	return dirs
}

// Candidates returns the file names tried in each directory, in order.
func (r *Resolver) Candidates(name string) []string {
	return []string{
		name,
		name + r.extension,
		name + r.suffix + r.extension,
	}
}

// Find returns the first existing file for name. Earlier directories win
// over later ones; within a directory the bare name wins over the
// extension variants.
func (r *Resolver) Find(name string) (string, error) {
	if name == "" {
		return "", oops.In("resolver").
			Code(CodeModuleNotFound).
			With("module", name).
			Errorf("module name is empty")
	}

	dirs := r.SearchPath()
	for _, dir := range dirs {
		for _, candidate := range r.Candidates(name) {
			path := filepath.Join(dir, candidate)
			if isFile(path) {
				return path, nil
			}
		}
	}

	return "", oops.In("resolver").
		Code(CodeModuleNotFound).
		With("module", name).
		With("search_path", dirs).
		Hint("set $" + r.envVar + " to the directories holding your modules").
		Errorf("%s is not found in $%s", name, r.envVar)
}

func normalize(dir string) string {
	dir = strings.ReplaceAll(dir, "\\", "/")
	return filepath.FromSlash(dir)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
