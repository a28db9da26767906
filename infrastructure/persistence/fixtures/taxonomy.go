// Package fixtures loads a product category tree and demo menus from YAML.
// It backs local development (memory backend) and the seed-taxonomy command.
package fixtures

import (
	"context"
	"fmt"
	"io"
	"os"

	"catmenu/domain/core/entities"
	"catmenu/domain/core/valueobjects"

	"gopkg.in/yaml.v3"
)

// CategoryNode is one category in the YAML tree. Children inherit the node
// as their parent.
type CategoryNode struct {
	ID       int64          `yaml:"id"`
	Name     string         `yaml:"name"`
	Count    int            `yaml:"count"`
	Children []CategoryNode `yaml:"children"`
}

// MenuSpec is a menu declared in the fixture file
type MenuSpec struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// Document is the fixture file layout
type Document struct {
	Menus      []MenuSpec     `yaml:"menus"`
	Categories []CategoryNode `yaml:"categories"`
}

// Taxonomy is a validated fixture, flattened parent-first
type Taxonomy struct {
	Categories []*entities.Category
	Menus      []entities.Menu
}

// CategorySink receives seeded categories
type CategorySink interface {
	SaveCategories(ctx context.Context, categories []*entities.Category) error
}

// MenuSink receives seeded menus
type MenuSink interface {
	CreateMenu(ctx context.Context, menu entities.Menu) error
}

// LoadFile reads a fixture from path
func LoadFile(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open taxonomy file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a fixture
func Load(r io.Reader) (*Taxonomy, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &Taxonomy{}, nil
		}
		return nil, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}
	return doc.Flatten()
}

// Flatten validates the tree and lists its categories depth-first, parents
// before children. Ids must be unique across the whole tree.
func (d Document) Flatten() (*Taxonomy, error) {
	t := &Taxonomy{}
	seen := make(map[int64]struct{})

	var walk func(nodes []CategoryNode, parent valueobjects.CategoryID) error
	walk = func(nodes []CategoryNode, parent valueobjects.CategoryID) error {
		for _, n := range nodes {
			if _, dup := seen[n.ID]; dup {
				return fmt.Errorf("duplicate category id %d", n.ID)
			}
			seen[n.ID] = struct{}{}

			category, err := entities.NewCategory(valueobjects.CategoryID(n.ID), n.Name, parent)
			if err != nil {
				return fmt.Errorf("category %d: %w", n.ID, err)
			}
			category.Count = n.Count
			t.Categories = append(t.Categories, category)

			if err := walk(n.Children, category.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(d.Categories, valueobjects.NoParent); err != nil {
		return nil, err
	}

	menuIDs := make(map[int64]struct{})
	for _, m := range d.Menus {
		id, err := valueobjects.NewMenuID(m.ID)
		if err != nil {
			return nil, fmt.Errorf("menu %q: %w", m.Name, err)
		}
		if _, dup := menuIDs[m.ID]; dup {
			return nil, fmt.Errorf("duplicate menu id %d", m.ID)
		}
		menuIDs[m.ID] = struct{}{}
		t.Menus = append(t.Menus, entities.Menu{ID: id, Name: m.Name})
	}

	return t, nil
}

// Seed writes the fixture to the given stores. Menus that already exist are
// reported through skipExisting instead of failing the seed when it is non-nil.
func (t *Taxonomy) Seed(ctx context.Context, categories CategorySink, menus MenuSink, skipExisting func(entities.Menu, error) bool) error {
	if len(t.Categories) > 0 {
		if err := categories.SaveCategories(ctx, t.Categories); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
	}
	for _, m := range t.Menus {
		if err := menus.CreateMenu(ctx, m); err != nil {
			if skipExisting != nil && skipExisting(m, err) {
				continue
			}
			return fmt.Errorf("failed to seed menu %d: %w", m.ID, err)
		}
	}
	return nil
}
