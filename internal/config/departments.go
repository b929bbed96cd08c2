package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/grievance-service/internal/domain"
)

type departmentCatalog struct {
	Departments []string `yaml:"departments"`
}

// LoadDepartments returns the department seed list. An empty path yields the
// classifier's department list so every classifier answer resolves.
func (d DepartmentsConfig) LoadDepartments() ([]string, error) {
	if d.CatalogPath == "" {
		return append([]string(nil), domain.ClassifierDepartments...), nil
	}
	raw, err := os.ReadFile(d.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("read department catalog: %w", err)
	}
	return ParseDepartments(raw)
}

// ParseDepartments decodes a YAML catalog of the form `departments: [..]`.
func ParseDepartments(raw []byte) ([]string, error) {
	var catalog departmentCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse department catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(catalog.Departments))
	out := make([]string, 0, len(catalog.Departments))
	for _, name := range catalog.Departments {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("department catalog is empty")
	}
	return out, nil
}
