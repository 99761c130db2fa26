package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type unitsFile struct {
	Units []UnitTemplate `yaml:"units"`
}

type opponentsFile struct {
	Opponents []OpponentSpec `yaml:"opponents"`
}

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load reads units.yaml and opponents.yaml from dir and builds a
// validated catalog.
func Load(dir string) (*Catalog, error) {
	var uf unitsFile
	var of opponentsFile
	if err := loadYAML(filepath.Join(dir, "units.yaml"), &uf); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "opponents.yaml"), &of); err != nil {
		return nil, err
	}
	return New(uf.Units, of.Opponents)
}
