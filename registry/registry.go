package registry

import (
	"fmt"

	"hashvet/hasher"
	"hashvet/reputation"
)

// Entity is the aggregate record for one unique content digest. It
// lists every path observed with that digest and carries the
// reputation lookup outcome once the query phase has run.
type Entity struct {
	Digest      string            `json:"digest"`
	Paths       []string          `json:"paths"`
	Size        int64             `json:"size,omitempty"`
	MimeType    string            `json:"mime_type,omitempty"`
	ModTime     string            `json:"mod_time,omitempty"`
	AccessTime  string            `json:"access_time,omitempty"`
	ChangeTime  string            `json:"change_time,omitempty"`
	CreateTime  string            `json:"creation_time,omitempty"`
	FuzzyHashes map[string]string `json:"fuzzy_hashes,omitempty"`

	Reputation reputation.Aggregate `json:"-"`

	seen map[string]struct{}
}

func newEntity(digest, path string) *Entity {
	return &Entity{
		Digest:     digest,
		Paths:      []string{path},
		Reputation: reputation.NewAggregate(),
		seen:       map[string]struct{}{path: {}},
	}
}

// addPath appends a path observed with this entity's digest. The same
// path seen twice within a run is recorded once; distinct paths with
// identical content (hard links included) each appear.
func (e *Entity) addPath(path string) {
	if _, dup := e.seen[path]; dup {
		return
	}
	e.seen[path] = struct{}{}
	e.Paths = append(e.Paths, path)
}

// Registry maps content digests to entities. Files with identical
// bytes coalesce into one entity, so reputation query cost scales
// with unique content rather than file count. Entities are never
// removed within a run.
type Registry struct {
	algorithm string
	opts      hasher.Options
	entities  map[string]*Entity
	order     []string
}

// New returns an empty registry keyed by the given digest algorithm.
func New(algorithm string, opts hasher.Options) (*Registry, error) {
	if algorithm == "" {
		algorithm = hasher.DefaultAlgorithm
	}
	if !hasher.Supported(algorithm) {
		return nil, fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}
	return &Registry{
		algorithm: algorithm,
		opts:      opts,
		entities:  make(map[string]*Entity),
		order:     []string{},
	}, nil
}

// Algorithm returns the digest algorithm the registry keys on.
func (r *Registry) Algorithm() string {
	return r.algorithm
}

// AddFile digests the file at path and folds it into the registry.
// The returned bool is true when the digest was seen for the first
// time. Read errors propagate; nothing is registered on failure.
func (r *Registry) AddFile(path string) (*Entity, bool, error) {
	digest, err := hasher.Compute(path, r.algorithm, r.opts)
	if err != nil {
		return nil, false, err
	}
	if entity, ok := r.entities[digest]; ok {
		entity.addPath(path)
		return entity, false, nil
	}
	entity := newEntity(digest, path)
	r.entities[digest] = entity
	r.order = append(r.order, digest)
	return entity, true, nil
}

// Get returns the entity for a digest, if registered.
func (r *Registry) Get(digest string) (*Entity, bool) {
	entity, ok := r.entities[digest]
	return entity, ok
}

// Entities returns all entities in first-seen order, which keeps
// query and report ordering stable within a run.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.order))
	for _, digest := range r.order {
		out = append(out, r.entities[digest])
	}
	return out
}

// Count returns the number of unique digests registered.
func (r *Registry) Count() int {
	return len(r.entities)
}
