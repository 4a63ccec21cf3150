package filesearch

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreMatcher matches paths against gitignore patterns.
type GitignoreMatcher struct {
	patterns []*gitignorePattern
}

type gitignorePattern struct {
	pattern  string
	glob     string // doublestar form, matched against slash-separated paths
	negation bool
	dirOnly  bool
}

// NewGitignoreMatcher creates a new gitignore matcher from a .gitignore file.
// A missing file yields a matcher that ignores nothing.
func NewGitignoreMatcher(gitignorePath string) (*GitignoreMatcher, error) {
	matcher := &GitignoreMatcher{}

	if gitignorePath == "" {
		return matcher, nil
	}

	file, err := os.Open(gitignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return matcher, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p := parseGitignorePattern(line); p != nil {
			matcher.patterns = append(matcher.patterns, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return matcher, nil
}

// Matches checks if a path (relative to the .gitignore's directory) should be
// ignored. The last matching pattern wins, so negations can re-include.
func (m *GitignoreMatcher) Matches(relPath string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	var ignored bool
	for _, p := range m.patterns {
		if p.matches(relPath, isDir) {
			ignored = !p.negation
		}
	}
	return ignored
}

// matches tries the path itself and then each parent directory, so a pattern
// naming a directory also covers everything below it.
func (p *gitignorePattern) matches(relPath string, isDir bool) bool {
	if (isDir || !p.dirOnly) && globMatch(p.glob, relPath) {
		return true
	}
	for dir := path.Dir(relPath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if globMatch(p.glob, dir) {
			return true
		}
	}
	return false
}

// parseGitignorePattern converts one gitignore line into a doublestar glob.
// Returns nil for patterns doublestar cannot represent.
func parseGitignorePattern(pattern string) *gitignorePattern {
	p := &gitignorePattern{pattern: pattern}

	if strings.HasPrefix(pattern, "!") {
		p.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	switch {
	case strings.HasPrefix(pattern, "/"):
		p.glob = strings.TrimPrefix(pattern, "/")
	case strings.HasPrefix(pattern, "**/"):
		p.glob = pattern
	default:
		p.glob = "**/" + pattern
	}

	if p.glob == "" || !doublestar.ValidatePattern(p.glob) {
		return nil
	}
	return p
}

func globMatch(glob, name string) bool {
	ok, err := doublestar.Match(glob, name)
	return err == nil && ok
}
