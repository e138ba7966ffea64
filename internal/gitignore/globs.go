package gitignore

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Globs is an ordered list of grep-engine globs. A leading '!' marks an
// exclusion; the last glob that matches a path decides.
type Globs []string

// Args renders the globs as repeated --glob flags.
func (g Globs) Args() []string {
	args := make([]string, 0, 2*len(g))
	for _, glob := range g {
		args = append(args, "--glob", glob)
	}
	return args
}

// Excludes reports whether a workspace-relative path would be skipped. A
// path is skipped when any of its parent directories is excluded, or when
// the path itself is.
func (g Globs) Excludes(rel string) bool {
	rel = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(rel)), "./")
	if rel == "." || rel == "" {
		return false
	}
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if excluded, decided := g.decide(strings.Join(parts[:i], "/")); decided && excluded {
			return true
		}
	}
	excluded, decided := g.decide(rel)
	if !decided {
		// Any whitelist glob turns unmatched files into exclusions.
		return g.hasWhitelist()
	}
	return excluded
}

func (g Globs) decide(rel string) (excluded, decided bool) {
	for _, glob := range g {
		neg := strings.HasPrefix(glob, "!")
		if matchGlob(strings.TrimPrefix(glob, "!"), rel) {
			excluded, decided = neg, true
		}
	}
	return excluded, decided
}

func (g Globs) hasWhitelist() bool {
	for _, glob := range g {
		if !strings.HasPrefix(glob, "!") {
			return true
		}
	}
	return false
}

// matchGlob follows the grep engine: globs without a slash match the base
// name at any depth, others match the whole relative path.
func matchGlob(pattern, rel string) bool {
	anchored := strings.HasPrefix(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	if anchored || strings.Contains(pattern, "/") {
		return false
	}
	ok, _ := doublestar.Match(pattern, path.Base(rel))
	return ok
}
