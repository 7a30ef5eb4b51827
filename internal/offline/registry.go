package offline

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle position of a generation.
type Status int

const (
	StatusInstalling Status = iota + 1
	StatusInstalled         // waiting for activation
	StatusActive
	StatusRedundant
)

func (s Status) String() string {
	switch s {
	case StatusInstalling:
		return "installing"
	case StatusInstalled:
		return "installed"
	case StatusActive:
		return "active"
	case StatusRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Generation is one version of the offline assets.
type Generation struct {
	Version string
	Status  Status
	Since   time.Time
}

var (
	ErrUnknownGeneration = errors.New("unknown generation")
	ErrGenerationExists  = errors.New("generation already registered")
)

// Registry is the ordered record of generations. At most one is active and at
// most one is waiting. It is not safe for concurrent use.
type Registry struct {
	gens []Generation
}

// Begin registers version as installing. A redundant record for the same
// version is replaced.
func (r *Registry) Begin(version string, at time.Time) error {
	if i := r.index(version); i >= 0 {
		if r.gens[i].Status != StatusRedundant {
			return fmt.Errorf("%w: %s is %s", ErrGenerationExists, version, r.gens[i].Status)
		}
		r.gens = append(r.gens[:i], r.gens[i+1:]...)
	}
	r.gens = append(r.gens, Generation{Version: version, Status: StatusInstalling, Since: at})
	return nil
}

// MarkInstalled moves an installing generation to waiting. A generation that
// was already waiting is superseded and becomes redundant.
func (r *Registry) MarkInstalled(version string, at time.Time) (superseded []string, err error) {
	i := r.index(version)
	if i < 0 || r.gens[i].Status != StatusInstalling {
		return nil, fmt.Errorf("%w: %s is not installing", ErrUnknownGeneration, version)
	}
	for j := range r.gens {
		if j != i && r.gens[j].Status == StatusInstalled {
			r.gens[j].Status = StatusRedundant
			r.gens[j].Since = at
			superseded = append(superseded, r.gens[j].Version)
		}
	}
	r.gens[i].Status = StatusInstalled
	r.gens[i].Since = at
	return superseded, nil
}

// MarkFailed makes version redundant.
func (r *Registry) MarkFailed(version string, at time.Time) {
	if i := r.index(version); i >= 0 {
		r.gens[i].Status = StatusRedundant
		r.gens[i].Since = at
	}
}

// Promote makes a waiting generation active. Every other generation that is
// not still installing is dropped from the record; their versions are returned.
func (r *Registry) Promote(version string, at time.Time) (removed []string, err error) {
	i := r.index(version)
	if i < 0 || r.gens[i].Status != StatusInstalled {
		return nil, fmt.Errorf("%w: %s is not waiting", ErrUnknownGeneration, version)
	}
	kept := r.gens[:0]
	for j, g := range r.gens {
		switch {
		case j == i:
			g.Status = StatusActive
			g.Since = at
			kept = append(kept, g)
		case g.Status == StatusInstalling:
			kept = append(kept, g)
		default:
			removed = append(removed, g.Version)
		}
	}
	r.gens = kept
	return removed, nil
}

func (r *Registry) Active() (Generation, bool) {
	return r.first(StatusActive)
}

func (r *Registry) Waiting() (Generation, bool) {
	return r.first(StatusInstalled)
}

func (r *Registry) Get(version string) (Generation, bool) {
	if i := r.index(version); i >= 0 {
		return r.gens[i], true
	}
	return Generation{}, false
}

// Installing reports whether any generation is still installing.
func (r *Registry) Installing() bool {
	_, ok := r.first(StatusInstalling)
	return ok
}

// Live lists versions whose stores must survive a sweep: the active, waiting
// and installing generations.
func (r *Registry) Live() []string {
	var out []string
	for _, g := range r.gens {
		if g.Status != StatusRedundant {
			out = append(out, g.Version)
		}
	}
	return out
}

// Generations returns a copy of the record in registration order.
func (r *Registry) Generations() []Generation {
	return append([]Generation(nil), r.gens...)
}

func (r *Registry) first(s Status) (Generation, bool) {
	for _, g := range r.gens {
		if g.Status == s {
			return g, true
		}
	}
	return Generation{}, false
}

func (r *Registry) index(version string) int {
	for i, g := range r.gens {
		if g.Version == version {
			return i
		}
	}
	return -1
}
