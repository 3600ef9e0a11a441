// Package registry implements the category recognition and dispatch
// pipeline (§4.B): a fixed, ordered list of recognition predicates, plus an
// optional project-supplied override file, and the factory that turns a
// recognized Category into a concrete job.Handler.
package registry

import (
	"os"
	"strings"

	"github.com/henneberg-systemdesign/devsync/internal/category"
)

// rule pairs a Category with the predicate that recognizes it. Order is
// significant: the first matching rule wins (§4.B).
type rule struct {
	cat       category.Category
	recognize func(names map[string]bool) bool
}

// defaultRules is the built-in recognition table, Special -> Build ->
// Repo -> Plain, exactly as specified in §4.B.
var defaultRules = []rule{
	{category.SpecialYocto, func(n map[string]bool) bool {
		if !n["bitbake"] || !n["scripts"] {
			return false
		}
		for name := range n {
			if strings.HasPrefix(name, "meta") {
				return true
			}
		}
		return false
	}},
	{category.SpecialSysroot, func(n map[string]bool) bool {
		return n["dev"] && n["usr"] && n["var"] && n["bin"]
	}},
	{category.BuildCargo, func(n map[string]bool) bool { return n["CACHEDIR.TAG"] }},
	{category.BuildCMake, func(n map[string]bool) bool { return n["CMakeCache.txt"] }},
	{category.BuildFlutter, func(n map[string]bool) bool {
		for name := range n {
			if strings.HasSuffix(name, ".cache.dill.track.dill") {
				return true
			}
		}
		return false
	}},
	{category.BuildMeson, func(n map[string]bool) bool {
		return n["meson-info"] && n["meson-logs"] && n["meson-private"]
	}},
	{category.BuildNinja, func(n map[string]bool) bool { return n["build.ninja"] }},
	{category.RepoSvn, func(n map[string]bool) bool { return n[".svn"] }},
	{category.RepoGit, func(n map[string]bool) bool { return n[".git"] }},
}

// Registry classifies a directory's immediate entries into a Category. It
// reads only entry names (no recursion, no file contents), keeping
// classification O(entries) as required by §4.B.
type Registry struct {
	rules []rule
}

// New returns a Registry with the built-in rules, optionally extended by
// overrides loaded ahead of Plain (see overrides.go). overrides may be nil.
func New(overrides *Overrides) *Registry {
	rules := make([]rule, len(defaultRules))
	copy(rules, defaultRules)
	if overrides != nil {
		rules = append(rules, overrides.rules()...)
	}
	return &Registry{rules: rules}
}

// Classify reads dir's immediate entries and returns the first matching
// Category, falling back to Plain.
func (r *Registry) Classify(dir string) (category.Category, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return category.Plain, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, rl := range r.rules {
		if rl.recognize(names) {
			return rl.cat, nil
		}
	}
	return category.Plain, nil
}
