package models

import (
	"fmt"
	"strings"
)

// SurfaceType is the playing surface of a court.
type SurfaceType string

const (
	SurfaceClay     SurfaceType = "clay"
	SurfaceHardClay SurfaceType = "hard-clay"
	SurfaceGranulat SurfaceType = "granulat"
	SurfaceSand     SurfaceType = "sand"
)

var knownSurfaces = map[SurfaceType]struct{}{
	SurfaceClay:     {},
	SurfaceHardClay: {},
	SurfaceGranulat: {},
	SurfaceSand:     {},
}

// Surfaces lists the known surface types in a fixed order.
func Surfaces() []SurfaceType {
	return []SurfaceType{SurfaceClay, SurfaceHardClay, SurfaceGranulat, SurfaceSand}
}

// ParseSurfaceType normalizes a surface name and rejects unknown values.
func ParseSurfaceType(raw string) (SurfaceType, error) {
	s := SurfaceType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownSurfaces[s]; !ok {
		return "", fmt.Errorf("unknown surface type %q", raw)
	}
	return s, nil
}

type Court struct {
	ID            int         `yaml:"id" json:"id"`
	ProviderID    int64       `yaml:"provider_id" json:"provider_id"`
	Name          string      `yaml:"name" json:"name"`
	Location      string      `yaml:"location" json:"location"`
	Surface       SurfaceType `yaml:"surface" json:"surface"`
	IsMiddleCourt bool        `yaml:"middle_court" json:"is_middle_court"`
	IsSinglesOnly bool        `yaml:"singles_only" json:"is_singles_only"`
	IsWingfield   bool        `yaml:"wingfield" json:"is_wingfield"`
	IsIndoors     bool        `yaml:"indoors" json:"is_indoors"`
}

// CourtGroups lists court ids by attribute.
type CourtGroups struct {
	Surfaces  map[SurfaceType][]int `json:"surfaces"`
	Middle    []int                 `json:"middle"`
	Singles   []int                 `json:"singles"`
	Wingfield []int                 `json:"wingfield"`
	Indoors   []int                 `json:"indoors"`
}
