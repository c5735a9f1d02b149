package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// baselineFile is the on-disk shape of the expected-failure manifest.
type baselineFile struct {
	ExpectedFailures []string `yaml:"expected_failures"`
}

// loadBaseline reads the expected-failure manifest. A missing file is not an
// error; baselines are optional.
func loadBaseline(path string) (map[string]bool, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline %s: %w", path, err)
	}

	var bf baselineFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("invalid baseline %s: %w", path, err)
	}

	baseline := make(map[string]bool, len(bf.ExpectedFailures))
	for _, name := range bf.ExpectedFailures {
		baseline[name] = true
	}
	return baseline, nil
}
