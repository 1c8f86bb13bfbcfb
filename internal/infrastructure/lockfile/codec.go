// Package lockfile persists the reconciled lock state as structured,
// human-diffable YAML and parses it back. The category-set document
// (version 2) is the primary format; the legacy one-row-per-category
// format (version 1) stays readable and renderable for older tooling.
package lockfile

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/pinlock-dev/pinlock/internal/domain/entities"
	"github.com/pinlock-dev/pinlock/internal/domain/services"
	"github.com/pinlock-dev/pinlock/internal/domain/values"
)

const headerComment = "# Generated by pinlock. A reproducible lock of the environment spec.\n# Edit the spec and re-run `pinlock lock` instead of editing this file.\n"

// document is the wire shape shared by both format versions. Version 2
// populates categories per package; version 1 emits one row per category.
type document struct {
	Version  int          `yaml:"version"`
	Metadata metadataDoc  `yaml:"metadata"`
	Packages []packageDoc `yaml:"package"`
}

type metadataDoc struct {
	ContentHash map[string]string `yaml:"content_hash,omitempty"`
	Channels    []string          `yaml:"channels,omitempty"`
	Generated   string            `yaml:"generated,omitempty"`
}

type packageDoc struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Build        string   `yaml:"build,omitempty"`
	Manager      string   `yaml:"manager"`
	Platform     string   `yaml:"platform"`
	Categories   []string `yaml:"categories,omitempty"`
	Category     string   `yaml:"category,omitempty"`
	Dependencies []depDoc `yaml:"dependencies,omitempty"`
	Hash         string   `yaml:"hash"`
	Source       string   `yaml:"source,omitempty"`
	Requested    string   `yaml:"requested,omitempty"`
}

type depDoc struct {
	Name    string `yaml:"name"`
	Manager string `yaml:"manager,omitempty"`
}

// Codec serializes and parses lock documents.
type Codec struct {
	converter *services.VersionConverter
}

// NewCodec creates a new codec.
func NewCodec() *Codec {
	return &Codec{converter: services.NewVersionConverter()}
}

// Encode writes the version 2 document: a commented header, the metadata
// block, then the package list in stable (name, platform, manager) order.
func (c *Codec) Encode(w io.Writer, lf *entities.Lockfile) error {
	if err := lf.Validate(); err != nil {
		return fmt.Errorf("refusing to encode invalid lockfile: %w", err)
	}

	doc := document{
		Version:  lf.Version,
		Metadata: metadataFrom(lf),
	}
	for _, pkg := range lf.Packages() {
		doc.Packages = append(doc.Packages, packageDoc{
			Name:         pkg.Name.String(),
			Version:      pkg.Version,
			Build:        pkg.Build,
			Manager:      pkg.Manager.String(),
			Platform:     pkg.Platform.String(),
			Categories:   pkg.Categories.Sorted(),
			Dependencies: depsFrom(pkg.DependsOn, pkg.Manager),
			Hash:         pkg.Hash,
			Source:       pkg.Source,
			Requested:    pkg.Requested,
		})
	}

	if _, err := io.WriteString(w, headerComment); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding lockfile: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// EncodeLegacy writes the version 1 rendering: one row per package per
// category, ordered by (name, platform, manager, category). By the
// non-empty category invariant every package appears at least once; the
// converter fails loudly if that ever stops holding.
func (c *Codec) EncodeLegacy(w io.Writer, lf *entities.Lockfile) error {
	rows, err := c.converter.ToRows(lf.Packages())
	if err != nil {
		return err
	}

	doc := document{
		Version:  1,
		Metadata: metadataFrom(lf),
	}
	for _, row := range rows {
		doc.Packages = append(doc.Packages, packageDoc{
			Name:         row.Name.String(),
			Version:      row.Version,
			Build:        row.Build,
			Manager:      row.Manager.String(),
			Platform:     row.Platform.String(),
			Category:     row.Category.String(),
			Dependencies: depsFrom(row.DependsOn, row.Manager),
			Hash:         row.Hash,
			Source:       row.Source,
			Requested:    row.Requested,
		})
	}

	if _, err := io.WriteString(w, headerComment); err != nil {
		return err
	}
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding legacy lockfile: %w", err)
	}
	return enc.Close()
}

// Decode parses either format version into the internal model. Legacy
// rows are normalized through the backward conversion, so two rows for the
// same package merge into one entry with the category union.
func (c *Codec) Decode(r io.Reader) (*entities.Lockfile, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding lockfile: %w", err)
	}

	switch doc.Version {
	case entities.LockfileVersion:
		return c.fromDocument(doc, false)
	case 1:
		return c.fromDocument(doc, true)
	default:
		return nil, fmt.Errorf("unsupported lockfile version: %d", doc.Version)
	}
}

func (c *Codec) fromDocument(doc document, legacy bool) (*entities.Lockfile, error) {
	lf := entities.NewLockfile()
	lf.Metadata.Channels = doc.Metadata.Channels
	lf.Metadata.ContentHashes = doc.Metadata.ContentHash
	if lf.Metadata.ContentHashes == nil {
		lf.Metadata.ContentHashes = make(map[string]string)
	}
	if doc.Metadata.Generated != "" {
		t, err := time.Parse(time.RFC3339, doc.Metadata.Generated)
		if err != nil {
			return nil, fmt.Errorf("parsing generated timestamp: %w", err)
		}
		lf.Metadata.Generated = t
	}

	if legacy {
		rows := make([]entities.CategoryRow, 0, len(doc.Packages))
		for _, p := range doc.Packages {
			row, err := rowFromDoc(p)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		packages, err := c.converter.FromRows(rows)
		if err != nil {
			return nil, err
		}
		for _, pkg := range packages {
			if err := lf.AddPackage(pkg); err != nil {
				return nil, err
			}
		}
		return lf, nil
	}

	for _, p := range doc.Packages {
		pkg, err := packageFromDoc(p)
		if err != nil {
			return nil, err
		}
		if err := lf.AddPackage(pkg); err != nil {
			return nil, err
		}
	}
	return lf, nil
}

func metadataFrom(lf *entities.Lockfile) metadataDoc {
	md := metadataDoc{
		ContentHash: lf.Metadata.ContentHashes,
		Channels:    lf.Metadata.Channels,
	}
	if !lf.Metadata.Generated.IsZero() {
		md.Generated = lf.Metadata.Generated.UTC().Format(time.RFC3339)
	}
	return md
}

// depsFrom renders edges, omitting the manager when it matches the owning
// package so same-ecosystem edges stay compact.
func depsFrom(deps []entities.DependencyRef, owner values.Manager) []depDoc {
	out := make([]depDoc, 0, len(deps))
	for _, d := range deps {
		doc := depDoc{Name: d.Name.String()}
		if !d.Manager.Equals(owner) {
			doc.Manager = d.Manager.String()
		}
		out = append(out, doc)
	}
	return out
}

func plannedFromDoc(p packageDoc) (entities.PlannedPackage, values.Platform, error) {
	name, err := values.NewPackageName(p.Name)
	if err != nil {
		return entities.PlannedPackage{}, values.Platform{}, err
	}
	manager, err := values.NewManager(p.Manager)
	if err != nil {
		return entities.PlannedPackage{}, values.Platform{}, fmt.Errorf("package %s: %w", p.Name, err)
	}
	platform, err := values.NewPlatform(p.Platform)
	if err != nil {
		return entities.PlannedPackage{}, values.Platform{}, fmt.Errorf("package %s: %w", p.Name, err)
	}

	deps := make([]entities.DependencyRef, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		depName, err := values.NewPackageName(d.Name)
		if err != nil {
			return entities.PlannedPackage{}, values.Platform{}, fmt.Errorf("package %s dependency: %w", p.Name, err)
		}
		depManager := manager
		if d.Manager != "" {
			depManager, err = values.NewManager(d.Manager)
			if err != nil {
				return entities.PlannedPackage{}, values.Platform{}, fmt.Errorf("package %s dependency %s: %w", p.Name, d.Name, err)
			}
		}
		deps = append(deps, entities.DependencyRef{Name: depName, Manager: depManager})
	}

	return entities.PlannedPackage{
		Name:      name,
		Version:   p.Version,
		Build:     p.Build,
		Manager:   manager,
		Hash:      p.Hash,
		Source:    p.Source,
		DependsOn: deps,
	}, platform, nil
}

func packageFromDoc(p packageDoc) (entities.LockedPackage, error) {
	planned, platform, err := plannedFromDoc(p)
	if err != nil {
		return entities.LockedPackage{}, err
	}
	categories, err := values.ParseCategorySet(p.Categories)
	if err != nil {
		return entities.LockedPackage{}, fmt.Errorf("package %s: %w", p.Name, err)
	}
	return entities.LockedPackage{
		PlannedPackage: planned,
		Platform:       platform,
		Categories:     categories,
		Requested:      p.Requested,
	}, nil
}

func rowFromDoc(p packageDoc) (entities.CategoryRow, error) {
	planned, platform, err := plannedFromDoc(p)
	if err != nil {
		return entities.CategoryRow{}, err
	}
	category, err := values.NewCategory(p.Category)
	if err != nil {
		return entities.CategoryRow{}, fmt.Errorf("package %s: %w", p.Name, err)
	}
	return entities.CategoryRow{
		PlannedPackage: planned,
		Platform:       platform,
		Category:       category,
		Requested:      p.Requested,
	}, nil
}
