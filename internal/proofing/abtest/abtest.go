// Package abtest assigns subjects to experiment buckets deterministically, so
// a user lands in the same bucket on every job and every process.
package abtest

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Allocation is one named bucket and the share of subjects it receives.
type Allocation struct {
	Name    string
	Percent float64
}

// Experiment splits subjects across ordered allocations. Subjects that fall
// past the last allocation are in no bucket.
type Experiment struct {
	name        string
	allocations []Allocation
}

// NewExperiment validates that allocations are non-negative and sum to at most 100.
func NewExperiment(name string, allocations ...Allocation) (Experiment, error) {
	if name == "" {
		return Experiment{}, fmt.Errorf("abtest: experiment name is required")
	}
	var total float64
	for _, a := range allocations {
		if a.Percent < 0 {
			return Experiment{}, fmt.Errorf("abtest: %s: negative allocation for %s", name, a.Name)
		}
		total += a.Percent
	}
	if total > 100 {
		return Experiment{}, fmt.Errorf("abtest: %s: allocations sum to %.2f", name, total)
	}
	return Experiment{name: name, allocations: allocations}, nil
}

func (e Experiment) Name() string { return e.name }

// Bucket returns the allocation name for subject, or "" when the subject is
// outside every allocation or empty.
func (e Experiment) Bucket(subject string) string {
	if subject == "" {
		return ""
	}
	point := position(e.name, subject)
	var upper float64
	for _, a := range e.allocations {
		upper += a.Percent
		if point < upper {
			return a.Name
		}
	}
	return ""
}

// position maps subject to [0, 100) with 0.01 resolution.
func position(experiment, subject string) float64 {
	sum := sha256.Sum256([]byte(subject + ":" + experiment))
	return float64(binary.BigEndian.Uint64(sum[:8])%10000) / 100
}

// Registry looks experiments up by name.
type Registry map[string]Experiment

// NewRegistry indexes experiments by name.
func NewRegistry(experiments ...Experiment) Registry {
	r := make(Registry, len(experiments))
	for _, e := range experiments {
		r[e.name] = e
	}
	return r
}

// Bucket returns "" for unknown experiments.
func (r Registry) Bucket(experiment, subject string) string {
	e, ok := r[experiment]
	if !ok {
		return ""
	}
	return e.Bucket(subject)
}
