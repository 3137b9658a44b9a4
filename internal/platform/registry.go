// Package platform holds the static catalog of publishing targets and the
// identifier normalizer. The registry's ordering is the single source of
// truth for which platform a campaign publishes to next; no other package
// is allowed to compare raw platform name strings.
package platform

import (
	"fmt"
	"sort"
	"strings"
)

// Descriptor describes one publishing target. Descriptors are compiled
// configuration, not campaign-scoped data; they are referenced by canonical
// id from the ledger but never persisted themselves.
type Descriptor struct {
	ID          string
	DisplayName string
	Aliases     []string
	Priority    int
	Enabled     bool
}

// Registry is an ordered catalog of platform descriptors with an alias
// index for normalization. Build it once at startup; it is immutable and
// safe for concurrent reads.
type Registry struct {
	descriptors []Descriptor
	aliasIndex  map[string]string
}

// defaultDescriptors is the compiled-in platform table. Only Telegraph and
// Write.as have anonymous publish APIs; the rest ship disabled until an
// adapter with credentials exists.
var defaultDescriptors = []Descriptor{
	{ID: "telegraph", DisplayName: "Telegraph.ph", Aliases: []string{"telegraph.ph", "telegra.ph"}, Priority: 1, Enabled: true},
	{ID: "writeas", DisplayName: "Write.as", Aliases: []string{"write.as"}, Priority: 2, Enabled: true},
	{ID: "medium", DisplayName: "Medium.com", Aliases: []string{"medium.com"}, Priority: 3, Enabled: false},
	{ID: "devto", DisplayName: "Dev.to", Aliases: []string{"dev.to"}, Priority: 4, Enabled: false},
	{ID: "linkedin", DisplayName: "LinkedIn Articles", Aliases: []string{"linkedin articles"}, Priority: 5, Enabled: false},
	{ID: "hashnode", DisplayName: "Hashnode", Aliases: nil, Priority: 6, Enabled: false},
	{ID: "substack", DisplayName: "Substack", Aliases: nil, Priority: 7, Enabled: false},
}

// NewDefaultRegistry returns the registry built from the compiled-in table.
func NewDefaultRegistry() *Registry {
	reg, err := NewRegistry(defaultDescriptors)
	if err != nil {
		// The compiled-in table is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return reg
}

// NewRegistry builds a registry from the given descriptors, sorted by
// ascending priority (stable, so equal priorities keep input order). It
// returns an error on duplicate ids or alias collisions across
// descriptors.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	sorted := make([]Descriptor, len(descriptors))
	copy(sorted, descriptors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	aliasIndex := make(map[string]string)
	seen := make(map[string]struct{}, len(sorted))
	for _, d := range sorted {
		id := strings.ToLower(d.ID)
		if id == "" {
			return nil, fmt.Errorf("platform descriptor with empty id")
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate platform id %q", id)
		}
		seen[id] = struct{}{}

		// A descriptor's own id and display name normalize to it too.
		for _, alias := range append([]string{d.ID, d.DisplayName}, d.Aliases...) {
			key := strings.ToLower(alias)
			if key == "" {
				continue
			}
			if owner, exists := aliasIndex[key]; exists && owner != id {
				return nil, fmt.Errorf("alias %q claimed by both %q and %q", key, owner, id)
			}
			aliasIndex[key] = id
		}
	}

	return &Registry{descriptors: sorted, aliasIndex: aliasIndex}, nil
}

// WithEnabled returns a copy of the registry with the enabled flags
// replaced by the given set of canonical ids. Unknown ids are ignored.
// Used to apply config overrides on top of the compiled-in table.
func (r *Registry) WithEnabled(enabledIDs []string) *Registry {
	enabled := make(map[string]struct{}, len(enabledIDs))
	for _, id := range enabledIDs {
		enabled[strings.ToLower(id)] = struct{}{}
	}

	descriptors := make([]Descriptor, len(r.descriptors))
	copy(descriptors, r.descriptors)
	for i := range descriptors {
		_, on := enabled[descriptors[i].ID]
		descriptors[i].Enabled = on
	}

	reg, err := NewRegistry(descriptors)
	if err != nil {
		// Flag changes cannot introduce id or alias collisions.
		panic(err)
	}
	return reg
}

// Enabled returns the enabled descriptors in ascending priority order.
// This ordering decides what platform comes next for every campaign.
func (r *Registry) Enabled() []Descriptor {
	enabled := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}
	return enabled
}

// All returns every descriptor, enabled or not, in priority order.
func (r *Registry) All() []Descriptor {
	all := make([]Descriptor, len(r.descriptors))
	copy(all, r.descriptors)
	return all
}

// Lookup returns the descriptor owning the given canonical id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	id = strings.ToLower(id)
	for _, d := range r.descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Normalize maps an arbitrary platform name to its canonical id. Upstream
// publishers report the same platform under different display strings
// ("Write.as", "writeas", "WriteAs"), so this must run before any
// comparison or storage of a platform identifier. Unknown names are
// returned lower-cased rather than rejected; they simply never match an
// enabled descriptor and surface as unrecognized in the activity log.
func (r *Registry) Normalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := r.aliasIndex[key]; ok {
		return canonical
	}
	return key
}
