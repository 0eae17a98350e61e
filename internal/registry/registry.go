// Package registry holds the static court catalog and the provider id mapping.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"courtfinder/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed courts.yaml
var defaultCatalog []byte

// Catalog is the on-disk shape of the court artifact.
type Catalog struct {
	Version int            `yaml:"version"`
	Courts  []models.Court `yaml:"courts"`
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	version     int
	courts      []models.Court
	byID        map[int]models.Court
	byName      map[string]models.Court
	toCanonical map[int64]int
}

// Default builds the registry from the embedded catalog.
func Default() (*Registry, error) {
	return Parse(defaultCatalog)
}

// LoadFile builds the registry from a catalog file; an empty path means the embedded one.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read court catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and validates it.
func Parse(data []byte) (*Registry, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse court catalog: %w", err)
	}
	if catalog.Version <= 0 {
		return nil, errors.New("court catalog version is required")
	}
	reg, err := New(catalog.Courts)
	if err != nil {
		return nil, err
	}
	reg.version = catalog.Version
	return reg, nil
}

// New validates the courts and builds the lookup tables. Canonical ids,
// provider ids and names must each be unique.
func New(courts []models.Court) (*Registry, error) {
	if len(courts) == 0 {
		return nil, errors.New("court catalog is empty")
	}

	r := &Registry{
		courts:      make([]models.Court, 0, len(courts)),
		byID:        make(map[int]models.Court, len(courts)),
		byName:      make(map[string]models.Court, len(courts)),
		toCanonical: make(map[int64]int, len(courts)),
	}

	for _, c := range courts {
		if c.ID < 0 {
			return nil, fmt.Errorf("court %q has negative id %d", c.Name, c.ID)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("court %d has no name", c.ID)
		}
		if c.ProviderID <= 0 {
			return nil, fmt.Errorf("court %q has invalid provider id %d", c.Name, c.ProviderID)
		}
		surface, err := models.ParseSurfaceType(string(c.Surface))
		if err != nil {
			return nil, fmt.Errorf("court %q: %w", c.Name, err)
		}
		c.Surface = surface

		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate court id found: %d", c.ID)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate court name found: %s", c.Name)
		}
		if other, dup := r.toCanonical[c.ProviderID]; dup {
			return nil, fmt.Errorf("provider id %d mapped to courts %d and %d", c.ProviderID, other, c.ID)
		}

		r.byID[c.ID] = c
		r.byName[c.Name] = c
		r.toCanonical[c.ProviderID] = c.ID
		r.courts = append(r.courts, c)
	}

	sort.Slice(r.courts, func(i, j int) bool { return r.courts[i].ID < r.courts[j].ID })
	return r, nil
}

func (r *Registry) Version() int { return r.version }

func (r *Registry) Len() int { return len(r.courts) }

// Courts returns a copy of all courts ordered by id.
func (r *Registry) Courts() []models.Court {
	out := make([]models.Court, len(r.courts))
	copy(out, r.courts)
	return out
}

func (r *Registry) Court(id int) (models.Court, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) CourtByName(name string) (models.Court, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// CanonicalID translates an eBuSy court id to the registry id.
func (r *Registry) CanonicalID(providerID int64) (int, bool) {
	id, ok := r.toCanonical[providerID]
	return id, ok
}

// Filter returns the courts allowed by f, ordered by id.
func (r *Registry) Filter(f models.Filter) []models.Court {
	return r.selectCourts(f.Allows)
}

func (r *Registry) BySurface(surface models.SurfaceType) []models.Court {
	return r.selectCourts(func(c models.Court) bool { return c.Surface == surface })
}

func (r *Registry) MiddleCourts() []models.Court {
	return r.selectCourts(func(c models.Court) bool { return c.IsMiddleCourt })
}

func (r *Registry) SinglesCourts() []models.Court {
	return r.selectCourts(func(c models.Court) bool { return c.IsSinglesOnly })
}

func (r *Registry) WingfieldCourts() []models.Court {
	return r.selectCourts(func(c models.Court) bool { return c.IsWingfield })
}

func (r *Registry) IndoorCourts() []models.Court {
	return r.selectCourts(func(c models.Court) bool { return c.IsIndoors })
}

// Groups summarizes the catalog by attribute.
func (r *Registry) Groups() models.CourtGroups {
	g := models.CourtGroups{
		Surfaces:  make(map[models.SurfaceType][]int),
		Middle:    courtIDs(r.MiddleCourts()),
		Singles:   courtIDs(r.SinglesCourts()),
		Wingfield: courtIDs(r.WingfieldCourts()),
		Indoors:   courtIDs(r.IndoorCourts()),
	}
	for _, surface := range models.Surfaces() {
		if ids := courtIDs(r.BySurface(surface)); len(ids) > 0 {
			g.Surfaces[surface] = ids
		}
	}
	return g
}

func courtIDs(courts []models.Court) []int {
	out := make([]int, 0, len(courts))
	for _, c := range courts {
		out = append(out, c.ID)
	}
	return out
}

func (r *Registry) selectCourts(keep func(models.Court) bool) []models.Court {
	out := make([]models.Court, 0, len(r.courts))
	for _, c := range r.courts {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
