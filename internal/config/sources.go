package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"schemasync/internal/domain"
)

// SourcesFile is the on-disk YAML document listing comparison sources.
//
//	sources:
//	  - name: DES_COR
//	    driver: oracle
//	    host: db.example.com
//	    port: 1521
//	    service_name: CORDB
//	    user: reader
//	    password: ${DES_COR_PASSWORD}
//	    owner: APP
type SourcesFile struct {
	Sources []domain.SourceConfig `yaml:"sources"`
}

// LoadSourcesFile reads and validates a YAML sources file. Unknown keys are
// rejected. ${VAR} references in dsn and password are expanded from the
// environment so secrets stay out of the file.
func LoadSourcesFile(path string) ([]domain.SourceConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseSources(path, data)
}

// ParseSources decodes sources YAML. origin labels the sources in listings.
func ParseSources(origin string, data []byte) ([]domain.SourceConfig, error) {
	var doc SourcesFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", origin, err)
	}

	seen := make(map[string]bool, len(doc.Sources))
	for i := range doc.Sources {
		s := &doc.Sources[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
		s.DSN = os.ExpandEnv(s.DSN)
		s.Password = os.ExpandEnv(s.Password)
		s.Origin = origin

		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s: sources[%d]: %w", origin, i, err)
		}
		key := strings.ToUpper(s.Name)
		if seen[key] {
			return nil, fmt.Errorf("%s: duplicate source name %q", origin, s.Name)
		}
		seen[key] = true
	}
	return doc.Sources, nil
}

// ValidateSources checks every source and returns one issue per problem.
func ValidateSources(sources []domain.SourceConfig) []string {
	var issues []string
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			issues = append(issues, err.Error())
		}
		key := strings.ToUpper(s.Name)
		if seen[key] {
			issues = append(issues, fmt.Sprintf("duplicate source name %q", s.Name))
		}
		seen[key] = true
	}
	if len(sources) < 2 {
		issues = append(issues, fmt.Sprintf("at least 2 sources are required for comparison, got %d", len(sources)))
	}
	return issues
}
