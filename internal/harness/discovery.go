package harness

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/compilertools/dgcheck/internal/directive"
)

// testExtensions are the source suffixes treated as test files.
var testExtensions = map[string]bool{
	".c":   true,
	".cc":  true,
	".cpp": true,
}

// TestFile is a discovered test with its parsed directive plan.
type TestFile struct {
	// Name is the path relative to the tests directory; it is the stable
	// identifier used in results, baselines, and selection.
	Name string
	// Path is the absolute or config-relative file path.
	Path string
	// Plan is nil when parsing failed.
	Plan *directive.Plan
	// ParseErr holds the directive parse error, if any. Such tests are
	// reported UNRESOLVED rather than dropped.
	ParseErr error
}

// Discover walks the tests directory and parses directives from every test
// file. The returned slice is sorted by Name (WalkDir is lexical).
func Discover(testsDir string, logger *slog.Logger) ([]*TestFile, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(testsDir)
	if err != nil {
		return nil, fmt.Errorf("tests directory %s: %w", testsDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tests directory %s is not a directory", testsDir)
	}

	var tests []*TestFile
	err = filepath.WalkDir(testsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !testExtensions[filepath.Ext(path)] {
			return nil
		}

		rel, err := filepath.Rel(testsDir, path)
		if err != nil {
			rel = path
		}
		tests = append(tests, Load(filepath.ToSlash(rel), path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tests directory: %w", err)
	}

	logger.Debug("discovered tests", "dir", testsDir, "count", len(tests))
	return tests, nil
}

// Load reads and parses one test file.
func Load(name, path string) *TestFile {
	tf := &TestFile{Name: name, Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		tf.ParseErr = fmt.Errorf("failed to read test file: %w", err)
		return tf
	}

	plan, err := directive.Parse(path, string(content))
	if err != nil {
		tf.ParseErr = err
		return tf
	}
	tf.Plan = plan
	return tf
}

// Discover walks the harness tests directory.
func (h *Harness) Discover() ([]*TestFile, error) {
	return Discover(h.testsDir, h.logger)
}

// Filter returns the tests whose Name matches any of the selection globs.
// A glob matches on the full relative name or on the base filename, so both
// "arm/neon-vshl-imm-1.c" and "neon-*" select the same test. Empty selects
// keep everything.
func Filter(tests []*TestFile, selects []string) []*TestFile {
	if len(selects) == 0 {
		return tests
	}

	var out []*TestFile
	for _, tf := range tests {
		for _, sel := range selects {
			if matchSelect(sel, tf.Name) {
				out = append(out, tf)
				break
			}
		}
	}
	return out
}

func matchSelect(glob, name string) bool {
	if glob == name {
		return true
	}
	if ok, err := filepath.Match(glob, name); err == nil && ok {
		return true
	}
	if ok, err := filepath.Match(glob, filepath.Base(name)); err == nil && ok {
		return true
	}
	return false
}
