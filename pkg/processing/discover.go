package processing

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/systemstart/step-runner/pkg/api"
)

const configFilePattern = "**/*.{yml,yaml}"

// DiscoverConfigFiles expands each path into configuration files. Files are
// taken as given; directories are searched recursively for YAML files,
// parents before children.
func DiscoverConfigFiles(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, absPath)
			continue
		}

		found, err := collectConfigPaths(absPath)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no configuration files found in %s", absPath)
		}
		files = append(files, found...)
	}
	return slices.Compact(files), nil
}

func collectConfigPaths(absRoot string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(absRoot), configFilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", absRoot, err)
	}

	slices.SortFunc(matches, func(a, b string) int {
		if d := pathDepth(a) - pathDepth(b); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(absRoot, filepath.FromSlash(m))
	}
	return paths, nil
}

// LoadConfig discovers the configuration files under paths and loads them
// as one configuration.
func LoadConfig(paths ...string) (*api.Config, error) {
	files, err := DiscoverConfigFiles(paths...)
	if err != nil {
		return nil, err
	}
	return api.LoadConfig(files...)
}

func pathDepth(p string) int {
	if p == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(p), "/") + 1
}
