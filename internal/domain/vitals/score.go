package vitals

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultAlgorithmID is the baseline scoring algorithm used when the caller
// does not select one.
const DefaultAlgorithmID = "ews/v1"

// ErrUnknownAlgorithm is returned when a non-empty algorithm id has no
// registered implementation. An unknown id is a configuration error; the
// registry never falls back silently.
var ErrUnknownAlgorithm = errors.New("unknown scoring algorithm")

// Algorithm computes an early warning score from a canonical observation.
// Implementations must be pure: the same observation always yields the same
// score, so that persisted scores remain stable as new algorithm versions
// are added under new ids.
type Algorithm interface {
	ID() string
	Score(obs Observation) int
}

// Registry holds named, versioned scoring algorithms.
type Registry struct {
	mu    sync.RWMutex
	algos map[string]Algorithm
}

// NewRegistry creates a registry pre-loaded with the baseline algorithm.
func NewRegistry() *Registry {
	r := &Registry{algos: make(map[string]Algorithm)}
	r.Register(baselineV1{})
	return r
}

// Register adds an algorithm under its id, replacing any previous
// registration for that id.
func (r *Registry) Register(a Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.algos[a.ID()] = a
}

// IDs returns the registered algorithm ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.algos))
	for id := range r.algos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Compute scores the observation under the named algorithm. An empty id
// selects DefaultAlgorithmID; an unknown non-empty id is an error.
func (r *Registry) Compute(obs Observation, algoID string) (int, error) {
	if algoID == "" {
		algoID = DefaultAlgorithmID
	}
	r.mu.RLock()
	a, ok := r.algos[algoID]
	r.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algoID)
	}
	return a.Score(obs), nil
}

// baselineV1 is the ews/v1 aggregate score. Each parameter is banded
// independently and the band values summed; an absent parameter contributes
// zero so partial observation sets always score.
type baselineV1 struct{}

func (baselineV1) ID() string { return DefaultAlgorithmID }

func (baselineV1) Score(obs Observation) int {
	score := 0

	if v := obs.RespiratoryRate; v != nil {
		switch {
		case *v <= 8:
			score += 3
		case *v <= 11:
			score += 1
		case *v <= 20:
			// normal
		case *v <= 24:
			score += 2
		default:
			score += 3
		}
	}

	if v := obs.SpO2; v != nil {
		switch {
		case *v <= 91:
			score += 3
		case *v <= 93:
			score += 2
		case *v <= 95:
			score += 1
		}
	}
	if obs.OxygenInUse {
		score++
	}

	if v := obs.Temperature; v != nil {
		switch {
		case *v <= 35.0:
			score += 3
		case *v <= 36.0:
			score += 1
		case *v <= 38.0:
			// normal
		case *v <= 39.0:
			score += 1
		default:
			score += 2
		}
	}

	if v := obs.SystolicBP; v != nil {
		switch {
		case *v <= 90:
			score += 3
		case *v <= 100:
			score += 2
		case *v <= 110:
			score += 1
		case *v <= 219:
			// normal
		default:
			score += 3
		}
	}

	if v := obs.HeartRate; v != nil {
		switch {
		case *v <= 40:
			score += 3
		case *v <= 50:
			score += 1
		case *v <= 90:
			// normal
		case *v <= 110:
			score += 1
		case *v <= 130:
			score += 2
		default:
			score += 3
		}
	}

	if obs.LOC != "" && obs.LOC != LOCAlert && obs.LOC != "Alert" {
		score += 3
	}

	return score
}
