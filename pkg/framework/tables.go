package framework

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed annotations.yaml
var defaultAnnotationsYAML []byte

// AnnotationTable lists the qualified annotation and marker type names one framework uses.
type AnnotationTable struct {
	TestMethod       []string `yaml:"testMethod"`
	ClassMarkers     []string `yaml:"classMarkers"`
	Nested           []string `yaml:"nested"`
	DisplayName      []string `yaml:"displayName"`
	Configuration    []string `yaml:"configuration"`
	MarkerTypes      []string `yaml:"markerTypes"`
	SuiteReturnTypes []string `yaml:"suiteReturnTypes"`
	Known            []string `yaml:"known"`
}

// AllNames returns every type name mentioned by the table, sorted and de-duplicated.
func (t AnnotationTable) AllNames() []string {
	seen := make(map[string]struct{})
	for _, list := range [][]string{
		t.TestMethod, t.ClassMarkers, t.Nested, t.DisplayName,
		t.Configuration, t.MarkerTypes, t.SuiteReturnTypes, t.Known,
	} {
		for _, n := range list {
			seen[n] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var (
	cachedTables map[string]AnnotationTable
	tablesOnce   sync.Once
	tablesErr    error
)

// LoadTables parses the embedded annotation tables once and returns the cached result.
func LoadTables() (map[string]AnnotationTable, error) {
	tablesOnce.Do(func() {
		cachedTables, tablesErr = ParseTables(defaultAnnotationsYAML)
	})
	return cachedTables, tablesErr
}

// ParseTables decodes annotation tables keyed by framework name.
func ParseTables(data []byte) (map[string]AnnotationTable, error) {
	var tables map[string]AnnotationTable
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse annotation tables: %w", err)
	}
	for name, t := range tables {
		if len(t.TestMethod) == 0 {
			return nil, fmt.Errorf("annotation table %q: testMethod must not be empty", name)
		}
	}
	return tables, nil
}

// MustTable returns the embedded table of the named framework.
// It panics when the embedded data is invalid, which only a broken build can cause.
func MustTable(name string) AnnotationTable {
	tables, err := LoadTables()
	if err != nil {
		panic(err)
	}
	t, ok := tables[name]
	if !ok {
		panic(fmt.Sprintf("framework: no annotation table for %q", name))
	}
	return t
}
