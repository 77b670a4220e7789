// Package sourcetree holds the rules deciding which entries of a source tree
// are searched. The pattern scanner and the secret detector walk with the
// same Policy so an excluded path is excluded for every source check.
package sourcetree

import (
	"maps"
	"path/filepath"
	"strings"
)

// deniedDirs are never descended into. Hidden directories are skipped too.
var deniedDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	"coverage":     {},
	"out":          {},
	"tmp":          {},
	"__pycache__":  {},
}

// defaultExcludedNames are manifests, lockfiles and the catalogue's own
// pattern sources, which would otherwise match their own expressions.
var defaultExcludedNames = map[string]struct{}{
	"package.json":      {},
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"go.mod":            {},
	"go.sum":            {},
	"composer.lock":     {},
	"Gemfile.lock":      {},
	"Pipfile.lock":      {},
	"poetry.lock":       {},
	"pattern_checks.go": {},
}

// Policy decides which directories and files a walk visits.
type Policy struct {
	excludedNames map[string]struct{}
	excludes      []string
}

// NewPolicy returns the default policy extended with extra excluded file
// names. excludes are path substrings matched against slash separated
// paths relative to the walk root.
func NewPolicy(excludes []string, extraNames ...string) Policy {
	names := maps.Clone(defaultExcludedNames)
	for _, n := range extraNames {
		names[n] = struct{}{}
	}
	return Policy{excludedNames: names, excludes: excludes}
}

// WithExcludes returns a copy of p using excludes instead of its own.
func (p Policy) WithExcludes(excludes []string) Policy {
	p.excludes = excludes
	return p
}

// Unsafe reports whether an entry name carries a traversal sequence or a
// path separator.
func Unsafe(name string) bool {
	return strings.Contains(name, "..") || strings.ContainsAny(name, `/\`)
}

// SkipDir reports whether the directory at rel is left unvisited.
func (p Policy) SkipDir(name, rel string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, ok := deniedDirs[name]; ok {
		return true
	}
	return p.Excluded(rel)
}

// SkipFile reports whether the file at rel is left unread.
func (p Policy) SkipFile(name, rel string) bool {
	if _, ok := p.excludedNames[name]; ok {
		return true
	}
	return p.Excluded(rel)
}

// Excluded reports whether rel contains any configured exclude.
func (p Policy) Excluded(rel string) bool {
	slashed := filepath.ToSlash(rel)
	for _, ex := range p.excludes {
		if ex != "" && strings.Contains(slashed, ex) {
			return true
		}
	}
	return false
}
