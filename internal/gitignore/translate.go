// Package gitignore approximates .gitignore rules as grep-engine exclusion
// globs. Negated rules are not supported and are dropped.
package gitignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// VCSExclusions always close the list so they win under last-match-wins.
var VCSExclusions = []string{"!.git", "!.git/**"}

// Translate reads <root>/.gitignore and returns exclusion globs in rule
// order followed by VCSExclusions. A missing file is not an error.
func Translate(root string) (Globs, error) {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TranslateLines(""), nil
		}
		return nil, fmt.Errorf("read .gitignore: %w", err)
	}
	return TranslateLines(string(data)), nil
}

// TranslateLines converts .gitignore content into exclusion globs.
func TranslateLines(content string) Globs {
	var globs Globs
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		p := strings.TrimSpace(stripComment(sc.Text()))
		if p == "" || strings.HasPrefix(p, "!") {
			continue
		}
		globs = append(globs, ruleGlobs(p)...)
	}
	return append(globs, VCSExclusions...)
}

func ruleGlobs(p string) []string {
	switch {
	case strings.HasSuffix(p, "/"):
		name := strings.TrimSuffix(p, "/")
		return []string{"!" + name, "!" + name + "/**"}
	case strings.Contains(p, "/"):
		return []string{"!" + p}
	default:
		return []string{"!**/" + p, "!" + p}
	}
}

// stripComment cuts the line at the first '#' not preceded by a backslash.
func stripComment(line string) string {
	escaped := false
	for i := 0; i < len(line); i++ {
		switch {
		case escaped:
			escaped = false
		case line[i] == '\\':
			escaped = true
		case line[i] == '#':
			return line[:i]
		}
	}
	return line
}
