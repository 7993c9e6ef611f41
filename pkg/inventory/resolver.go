/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package inventory

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/paramtree"
)

// deactivatePrefix marks an applications entry that removes a previously
// activated component.
const deactivatePrefix = "~"

// Resolve merges all classes applicable to the cluster into one
// ResolvedInventory. It is purely computational and deterministic:
// identical class sets and cluster facts always yield identical output.
//
// The applicable chain is built lowest precedence first:
//
//	global: every global-level class, in lexical name order
//	cloud:  the class named after facts.cloud
//	region: the class named "<cloud>/<region>"
//	cluster: one class "facts/<key>/<value>" per custom fact, in key
//	         order, then the class named after the cluster ID
//	tenant: the class named after the owning tenant
//
// Fact-selected entry classes are optional; classes referenced through an
// `includes` list are required and their absence is a ConfigError.
func Resolve(cluster *Cluster, set *ClassSet) (*ResolvedInventory, error) {
	if cluster == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfig, "cluster must not be nil")
	}
	if set == nil {
		return nil, apperrors.New(apperrors.ErrCodeConfig, "class set must not be nil")
	}

	chain, err := buildChain(cluster, set)
	if err != nil {
		return nil, err
	}

	r := &resolution{
		cluster: cluster,
		params:  paramtree.Mapping(),
		pins:    map[string]*pinState{},
	}

	for _, c := range chain {
		if err := r.apply(c); err != nil {
			return nil, err
		}
	}

	return r.finish()
}

// buildChain assembles the ordered, de-duplicated class chain for the
// cluster, expanding includes depth-first so an included class always
// precedes the class that references it.
func buildChain(cluster *Cluster, set *ClassSet) ([]*Class, error) {
	entries := make([]classEntry, 0, 8)
	for _, name := range set.Names(LevelGlobal) {
		entries = append(entries, classEntry{LevelGlobal, name})
	}
	if cluster.Facts.Cloud != "" {
		entries = append(entries, classEntry{LevelCloud, cluster.Facts.Cloud})
		if cluster.Facts.Region != "" {
			region := fmt.Sprintf("%s/%s", cluster.Facts.Cloud, cluster.Facts.Region)
			entries = append(entries, classEntry{LevelRegion, region})
		}
	}
	for _, key := range sortedKeys(cluster.Facts.Custom) {
		value := cluster.Facts.Custom[key]
		if value == "" {
			continue
		}
		entries = append(entries, classEntry{LevelCluster, fmt.Sprintf("facts/%s/%s", key, value)})
	}
	entries = append(entries,
		classEntry{LevelCluster, cluster.ID},
		classEntry{LevelTenant, cluster.Tenant},
	)

	b := &chainBuilder{set: set, seen: map[string]bool{}, expanding: map[string]bool{}}
	for _, e := range entries {
		c, ok := set.Get(e.level, e.name)
		if !ok {
			// A fact or identifier with no dedicated class is fine.
			continue
		}
		if err := b.expand(c); err != nil {
			return nil, err
		}
	}
	return b.chain, nil
}

type classEntry struct {
	level Level
	name  string
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type chainBuilder struct {
	set       *ClassSet
	chain     []*Class
	seen      map[string]bool
	expanding map[string]bool
}

func (b *chainBuilder) expand(c *Class) error {
	ref := c.Ref()
	if b.seen[ref] {
		return nil
	}
	if b.expanding[ref] {
		return apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"include cycle detected", map[string]any{"class": ref})
	}
	b.expanding[ref] = true
	defer delete(b.expanding, ref)

	for _, incRef := range c.Includes {
		inc, ok := b.set.GetRef(incRef)
		if !ok {
			return apperrors.NewWithContext(apperrors.ErrCodeConfig,
				"included class not found", map[string]any{
					"class":   ref,
					"include": incRef,
				})
		}
		if err := b.expand(inc); err != nil {
			return err
		}
	}

	b.seen[ref] = true
	b.chain = append(b.chain, c)
	return nil
}

// pinState tracks the winning pin for one component while the chain is
// applied.
type pinState struct {
	url          string
	urlLevel     Level
	urlClass     string
	version      string
	versionLevel Level
	versionClass string
}

type resolution struct {
	cluster      *Cluster
	params       *paramtree.Value
	applications []string
	pins         map[string]*pinState
}

func (r *resolution) apply(c *Class) error {
	if c.Parameters != nil {
		merged, err := paramtree.Merge(r.params, c.Parameters)
		if err != nil {
			return wrapClassError(err, c, r.cluster)
		}
		r.params = merged
	}

	for _, app := range c.Applications {
		if name, ok := strings.CutPrefix(app, deactivatePrefix); ok {
			r.deactivate(name)
			continue
		}
		r.activate(app)
	}

	for name, pin := range c.Components {
		if err := r.applyPin(c, name, pin); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolution) activate(name string) {
	for _, existing := range r.applications {
		if existing == name {
			return
		}
	}
	r.applications = append(r.applications, name)
}

func (r *resolution) deactivate(name string) {
	for i, existing := range r.applications {
		if existing == name {
			r.applications = append(r.applications[:i], r.applications[i+1:]...)
			return
		}
	}
}

// applyPin merges a class's pin into the tracked state. A more specific
// level overrides field by field; two classes at the same level disagreeing
// on a field is a genuine conflict, not an override.
func (r *resolution) applyPin(c *Class, name string, pin Pin) error {
	state, ok := r.pins[name]
	if !ok {
		state = &pinState{}
		r.pins[name] = state
	}

	if pin.URL != "" {
		if err := r.setPinField(c, name, &state.url, &state.urlLevel, &state.urlClass, pin.URL, "url"); err != nil {
			return err
		}
	}
	if pin.Version != "" {
		if err := r.setPinField(c, name, &state.version, &state.versionLevel, &state.versionClass, pin.Version, "version"); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolution) setPinField(c *Class, component string, field *string, fieldLevel *Level, fieldClass *string, value, fieldName string) error {
	switch {
	case *field == "":
		// First definition.
	case c.Level.Precedence() > fieldLevel.Precedence():
		// More specific level overrides.
	case c.Level.Precedence() == fieldLevel.Precedence() && *fieldClass != c.Ref() && *field != value:
		return apperrors.NewWithContext(apperrors.ErrCodeConfig,
			"conflicting component pins with no precedence resolution", map[string]any{
				"cluster":   r.cluster.ID,
				"component": component,
				"field":     fieldName,
				"classes":   []string{*fieldClass, c.Ref()},
				"values":    []string{*field, value},
			})
	case c.Level.Precedence() < fieldLevel.Precedence():
		// Already pinned at a more specific level; keep it.
		return nil
	}

	*field = value
	*fieldLevel = c.Level
	*fieldClass = c.Ref()
	return nil
}

func (r *resolution) finish() (*ResolvedInventory, error) {
	components := make([]ComponentSpec, 0, len(r.applications))
	for _, name := range r.applications {
		state, ok := r.pins[name]
		if !ok || state.url == "" {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
				"activated component has no repository URL", map[string]any{
					"cluster":   r.cluster.ID,
					"component": name,
				})
		}
		if state.version == "" {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
				"activated component has no version pin", map[string]any{
					"cluster":   r.cluster.ID,
					"component": name,
				})
		}

		params := paramtree.Mapping()
		if sub, ok := r.params.Get(componentParametersKey(name)); ok {
			if sub.Kind() != paramtree.KindMapping {
				return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
					"component parameters must be a mapping", map[string]any{
						"cluster":   r.cluster.ID,
						"component": name,
					})
			}
			params = sub.Clone()
		}

		components = append(components, ComponentSpec{
			Name:    name,
			URL:     state.url,
			Version: state.version,
			Params:  params,
		})
	}

	return &ResolvedInventory{
		Cluster:      r.cluster.ID,
		Tenant:       r.cluster.Tenant,
		Applications: r.applications,
		Components:   components,
		Parameters:   r.params,
	}, nil
}

func wrapClassError(err error, c *Class, cluster *Cluster) error {
	return apperrors.WrapWithContext(apperrors.ErrCodeConfig,
		"merging class parameters", err, map[string]any{
			"cluster": cluster.ID,
			"class":   c.Ref(),
		})
}
