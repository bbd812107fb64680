package util

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// PathFilter decides which directories to descend into and which files to
// lint. Directory globs match a single path segment; file globs match the
// base name or the slash-separated path relative to the scan root.
type PathFilter struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extensions   map[string]bool
	includeTests bool
	maxSize      int64
}

func NewPathFilter(excludeDirs, excludeFiles, extensions []string, includeTests bool, maxSize int64) (*PathFilter, error) {
	f := &PathFilter{
		extensions:   make(map[string]bool, len(extensions)),
		includeTests: includeTests,
		maxSize:      maxSize,
	}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		f.excludeDirs = append(f.excludeDirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		f.excludeFiles = append(f.excludeFiles, g)
	}
	for _, ext := range extensions {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			f.extensions[ext] = true
		}
	}
	return f, nil
}

// SkipDir reports whether the directory at path must not be walked.
func (f *PathFilter) SkipDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range f.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return !f.includeTests && base == "__tests__"
}

// Match reports whether a file at path (relative to root when rel is set)
// should be linted. size < 0 skips the size check.
func (f *PathFilter) Match(path, rel string, size int64) bool {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	if len(f.extensions) > 0 && !f.extensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	if strings.HasSuffix(lower, ".d.ts") || strings.HasSuffix(lower, ".d.mts") || strings.HasSuffix(lower, ".d.cts") {
		return false
	}
	if !f.includeTests && IsTestFile(path) {
		return false
	}
	if f.maxSize > 0 && size > f.maxSize {
		return false
	}
	for _, g := range f.excludeFiles {
		if g.Match(base) || (rel != "" && g.Match(rel)) {
			return false
		}
	}
	for _, dir := range strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/") {
		if dir == "" || dir == "." {
			continue
		}
		for _, g := range f.excludeDirs {
			if g.Match(dir) {
				return false
			}
		}
	}
	return true
}

// IsTestFile recognises the usual JavaScript test layouts: foo.test.js,
// foo.spec.ts and anything under __tests__.
func IsTestFile(path string) bool {
	slash := filepath.ToSlash(path)
	if strings.Contains(slash, "/__tests__/") || strings.HasPrefix(slash, "__tests__/") {
		return true
	}
	base := strings.ToLower(filepath.Base(path))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec")
}
