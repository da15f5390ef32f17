package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProgramProfile overrides how one program code is rendered.
type ProgramProfile struct {
	// Subjects replaces the stored subject list, fixing column order.
	Subjects []string `yaml:"subjects"`
	Template string   `yaml:"template"`
}

// Profiles maps program codes ("pao" field) to rendering overrides.
type Profiles struct {
	Programs map[string]ProgramProfile `yaml:"programs"`
}

// LoadProfiles reads a YAML profile file. An empty path yields no profiles.
func LoadProfiles(path string) (*Profiles, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return &Profiles{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	return ParseProfiles(raw)
}

func ParseProfiles(raw []byte) (*Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	normalized := make(map[string]ProgramProfile, len(p.Programs))
	for code, prof := range p.Programs {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		subjects := make([]string, 0, len(prof.Subjects))
		for _, s := range prof.Subjects {
			if s = strings.TrimSpace(s); s != "" {
				subjects = append(subjects, s)
			}
		}
		prof.Subjects = subjects
		prof.Template = strings.TrimSpace(prof.Template)
		normalized[code] = prof
	}
	p.Programs = normalized
	return &p, nil
}

// Lookup returns the profile for a program code.
func (p *Profiles) Lookup(code string) (ProgramProfile, bool) {
	if p == nil {
		return ProgramProfile{}, false
	}
	prof, ok := p.Programs[strings.TrimSpace(code)]
	return prof, ok
}
