// Package solver adapts externally produced solve plans to the Solver
// port. Resolution itself happens outside this process: a conda/mamba or
// pip resolver dumps its concrete plan per (platform, manager) into a plan
// directory, and this adapter only reads those documents back. No solving,
// fetching, or subprocess work happens here.
package solver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/pinlock-dev/pinlock/internal/application/ports"
	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

type planDoc struct {
	Packages []planPackageDoc `yaml:"package"`
}

type planPackageDoc struct {
	Name         string       `yaml:"name"`
	Version      string       `yaml:"version"`
	Build        string       `yaml:"build"`
	Hash         string       `yaml:"hash"`
	Source       string       `yaml:"source"`
	Dependencies []planDepDoc `yaml:"dependencies"`
}

type planDepDoc struct {
	Name    string `yaml:"name"`
	Manager string `yaml:"manager"`
}

// PlanDirSolver reads solve plans from a directory, one file per
// (platform, manager) pair named "<platform>.<manager>.yaml".
type PlanDirSolver struct {
	dir string
}

var _ ports.Solver = (*PlanDirSolver)(nil)

// NewPlanDirSolver creates a solver backed by a plan directory.
func NewPlanDirSolver(dir string) *PlanDirSolver {
	return &PlanDirSolver{dir: dir}
}

// Solve loads the plan for the pair. A missing plan file is an error: the
// caller asked for packages this run has no solve for.
func (s *PlanDirSolver) Solve(_ context.Context, platform values.Platform, manager values.Manager, _ []entities.RootRequest) ([]entities.PlannedPackage, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s.%s.yaml", platform, manager))
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no solve plan at %s; run the %s solver for %s first", path, manager, platform)
		}
		return nil, fmt.Errorf("reading solve plan: %w", err)
	}

	var doc planDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding solve plan %s: %w", path, err)
	}

	planned := make([]entities.PlannedPackage, 0, len(doc.Packages))
	for _, p := range doc.Packages {
		pkg, err := plannedFromPlan(p, manager)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", path, err)
		}
		planned = append(planned, pkg)
	}
	return planned, nil
}

func plannedFromPlan(p planPackageDoc, manager values.Manager) (entities.PlannedPackage, error) {
	name, err := values.NewPackageName(p.Name)
	if err != nil {
		return entities.PlannedPackage{}, err
	}

	deps := make([]entities.DependencyRef, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		depName, err := values.NewPackageName(d.Name)
		if err != nil {
			return entities.PlannedPackage{}, fmt.Errorf("package %s dependency: %w", p.Name, err)
		}
		depManager := manager
		if d.Manager != "" {
			depManager, err = values.NewManager(d.Manager)
			if err != nil {
				return entities.PlannedPackage{}, fmt.Errorf("package %s dependency %s: %w", p.Name, d.Name, err)
			}
		}
		deps = append(deps, entities.DependencyRef{Name: depName, Manager: depManager})
	}

	pkg := entities.PlannedPackage{
		Name:      name,
		Version:   p.Version,
		Build:     p.Build,
		Manager:   manager,
		Hash:      p.Hash,
		Source:    p.Source,
		DependsOn: deps,
	}
	if err := pkg.Validate(); err != nil {
		return entities.PlannedPackage{}, err
	}
	return pkg, nil
}
