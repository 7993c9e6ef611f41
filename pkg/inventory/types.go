/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package inventory

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mweibel/commodore/pkg/paramtree"
)

// Level is one hierarchy level of the inventory. Levels are ordered by
// precedence: a parameter defined at a more specific level always wins.
type Level string

const (
	LevelGlobal  Level = "global"
	LevelCloud   Level = "cloud"
	LevelRegion  Level = "region"
	LevelCluster Level = "cluster"
	LevelTenant  Level = "tenant"
)

// Levels lists all hierarchy levels, lowest precedence first.
var Levels = []Level{LevelGlobal, LevelCloud, LevelRegion, LevelCluster, LevelTenant}

// Precedence returns the numeric precedence of the level; higher wins.
// Unknown levels return -1.
func (l Level) Precedence() int {
	for i, level := range Levels {
		if level == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is a known hierarchy level.
func (l Level) Valid() bool {
	return l.Precedence() >= 0
}

// Facts are the merge-path selectors of a cluster.
type Facts struct {
	Cloud  string            `json:"cloud,omitempty" yaml:"cloud,omitempty"`
	Region string            `json:"region,omitempty" yaml:"region,omitempty"`
	Custom map[string]string `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// Cluster describes one managed cluster. Definitions are externally
// authored and validated on load.
type Cluster struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Tenant      string `json:"tenant" yaml:"tenant" validate:"required"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Facts       Facts  `json:"facts" yaml:"facts"`
	// CatalogRepo is the git URL of the per-cluster catalog repository.
	CatalogRepo string `json:"catalogRepo,omitempty" yaml:"catalogRepo,omitempty" validate:"omitempty,url|startswith=ssh://|startswith=git@|startswith=file://"`
}

// Tenant describes the owner of a set of clusters.
type Tenant struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	DisplayName string   `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Clusters    []string `json:"clusters,omitempty" yaml:"clusters,omitempty"`
}

// Pin selects the source repository and revision of a component. A pin may
// be partial: a more specific level can override just the version.
type Pin struct {
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Class is one named, addressable inventory class at a fixed hierarchy
// level.
type Class struct {
	Level Level
	Name  string

	// Includes references other classes applied before this one, as
	// "level/name". A missing include is a configuration error.
	Includes []string

	// Applications is the component activation list. An entry prefixed
	// with "~" deactivates a previously activated component.
	Applications []string

	// Components pins component revisions.
	Components map[string]Pin

	// Parameters is the class's parameter tree.
	Parameters *paramtree.Value
}

// Ref returns the canonical "level/name" address of the class.
func (c *Class) Ref() string {
	return fmt.Sprintf("%s/%s", c.Level, c.Name)
}

// ClassSet is the full set of reachable inventory classes, addressable by
// hierarchy level and name.
type ClassSet struct {
	classes map[Level]map[string]*Class
}

// NewClassSet creates an empty class set.
func NewClassSet() *ClassSet {
	return &ClassSet{classes: map[Level]map[string]*Class{}}
}

// Add registers a class. Duplicate level/name addresses are rejected.
func (s *ClassSet) Add(c *Class) error {
	if !c.Level.Valid() {
		return fmt.Errorf("unknown hierarchy level %q for class %q", c.Level, c.Name)
	}
	byName, ok := s.classes[c.Level]
	if !ok {
		byName = map[string]*Class{}
		s.classes[c.Level] = byName
	}
	if _, exists := byName[c.Name]; exists {
		return fmt.Errorf("duplicate class %s", c.Ref())
	}
	byName[c.Name] = c
	return nil
}

// Get returns the class stored under level/name.
func (s *ClassSet) Get(level Level, name string) (*Class, bool) {
	c, ok := s.classes[level][name]
	return c, ok
}

// GetRef resolves a "level/name" reference.
func (s *ClassSet) GetRef(ref string) (*Class, bool) {
	level, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, false
	}
	return s.Get(Level(level), name)
}

// Names returns the class names registered at the given level, sorted.
func (s *ClassSet) Names(level Level) []string {
	byName := s.classes[level]
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the total number of registered classes.
func (s *ClassSet) Len() int {
	n := 0
	for _, byName := range s.classes {
		n += len(byName)
	}
	return n
}

// ComponentSpec is one activated component with its resolved pin and the
// parameter subtree scoped to it.
type ComponentSpec struct {
	Name    string           `json:"name" yaml:"name"`
	URL     string           `json:"url" yaml:"url"`
	Version string           `json:"version" yaml:"version"`
	Params  *paramtree.Value `json:"params,omitempty" yaml:"params,omitempty"`
}

// ResolvedInventory is the per-cluster output of merging all applicable
// classes.
type ResolvedInventory struct {
	Cluster      string           `json:"cluster" yaml:"cluster"`
	Tenant       string           `json:"tenant" yaml:"tenant"`
	Applications []string         `json:"applications" yaml:"applications"`
	Components   []ComponentSpec  `json:"components" yaml:"components"`
	Parameters   *paramtree.Value `json:"parameters" yaml:"parameters"`
}

// Component returns the spec of the named component, if activated.
func (r *ResolvedInventory) Component(name string) (*ComponentSpec, bool) {
	for i := range r.Components {
		if r.Components[i].Name == name {
			return &r.Components[i], true
		}
	}
	return nil, false
}

// componentParametersKey maps a component name to its parameter subtree
// key: dashes become underscores.
func componentParametersKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
