package harness

import (
	"fmt"
	"path/filepath"
	"slices"
)

// SuiteResult summarizes a run over several scenario files.
type SuiteResult struct {
	Total    int                `json:"total"`
	Passed   int                `json:"passed"`
	Failed   int                `json:"failed"`
	Results  map[string]*Result `json:"-"`
	Failures []ScenarioFailure  `json:"failures,omitempty"`
}

// ScenarioFailure describes one scenario that did not pass.
type ScenarioFailure struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Errors []string `json:"errors"`
}

// RunFiles loads and runs each scenario file, and each *.yaml file in each
// directory, in sorted order. Load and execution failures are recorded as
// failures rather than returned.
func RunFiles(paths []string) (*SuiteResult, error) {
	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Results: make(map[string]*Result, len(files))}
	for _, path := range files {
		suite.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.fail(path, "", fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		result, err := Run(scenario)
		if err != nil {
			suite.fail(path, scenario.Name, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		suite.Results[path] = result

		if !result.Pass {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Path:   path,
				Name:   scenario.Name,
				Errors: result.Errors,
			})
			continue
		}
		suite.Passed++
	}

	return suite, nil
}

func (s *SuiteResult) fail(path, name, msg string) {
	s.Failed++
	s.Failures = append(s.Failures, ScenarioFailure{Path: path, Name: name, Errors: []string{msg}})
}

func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		matches, err := filepath.Glob(filepath.Join(p, "*.yaml"))
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", p, err)
		}
		if len(matches) == 0 {
			files = append(files, p)
			continue
		}
		slices.Sort(matches)
		files = append(files, matches...)
	}
	return files, nil
}
