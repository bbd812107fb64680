package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	ScanPaths   []string
	HistoryPath string
	OutputPath  string
	Project     string
}

// ResolvePaths anchors scan paths at cwd and everything else at the project
// root.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	scan := make([]string, 0, len(cfg.Scan.Paths))
	for _, p := range cfg.Scan.Paths {
		scan = append(scan, ResolveRelative(cwd, p))
	}

	root, err := DetectProjectRoot(append(append([]string(nil), scan...), cwd))
	if err != nil {
		return ResolvedPaths{}, err
	}

	resolved := ResolvedPaths{
		ProjectRoot: filepath.Clean(root),
		ScanPaths:   scan,
		HistoryPath: ResolveRelative(root, cfg.History.Path),
		Project:     cfg.History.Project,
	}
	if cfg.Output.Path != "" {
		resolved.OutputPath = ResolveRelative(cwd, cfg.Output.Path)
	}
	if resolved.Project == "" {
		resolved.Project = filepath.Base(resolved.ProjectRoot)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until a directory holding
// a project marker is found, falling back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		DefaultFile,
		"package.json",
		"tsconfig.json",
		".git",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
