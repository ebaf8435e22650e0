// SPDX-License-Identifier: MIT

package rsa

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Granularity selects what one RDM row stands for.
type Granularity int

const (
	// PerSample makes every sample its own unit; units are grouped by label
	// (stable sort, so sample order is kept inside a condition).
	PerSample Granularity = iota
	// PerCondition makes one unit per distinct label, averaging its samples.
	PerCondition
)

// String returns "sample" or "condition".
func (g Granularity) String() string {
	switch g {
	case PerSample:
		return "sample"
	case PerCondition:
		return "condition"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// ParseGranularity maps "sample" / "condition" (case-insensitive) to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sample", "samples", "":
		return PerSample, nil
	case "condition", "conditions":
		return PerCondition, nil
	default:
		return 0, fmt.Errorf("ParseGranularity(%q): %w", s, ErrInvalidGranularity)
	}
}

// Unit is one RDM row: a label and the sample-axis indices averaged into it.
type Unit struct {
	Label   string
	Members []int
}

// Layout is the ordered list of RDM units shared by the data and model RDMs.
// Immutable; safe for concurrent reads.
type Layout struct {
	granularity Granularity
	nSamples    int
	units       []Unit
}

// NewLayout groups labels (one per sample, in sample-axis order) into units.
//
// PerSample: unit k is the k-th sample after a stable sort by label.
// PerCondition: one unit per distinct label in lexicographic order, members in
// ascending sample order.
//
// Errors: ErrEmptyLayout, ErrInvalidGranularity.
func NewLayout(labels []string, g Granularity) (*Layout, error) {
	if len(labels) == 0 {
		return nil, rsaErrorf("NewLayout", ErrEmptyLayout)
	}
	order := make([]int, len(labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return labels[order[a]] < labels[order[b]] })

	l := &Layout{granularity: g, nSamples: len(labels)}
	switch g {
	case PerSample:
		l.units = make([]Unit, len(order))
		for k, s := range order {
			l.units[k] = Unit{Label: labels[s], Members: []int{s}}
		}
	case PerCondition:
		for _, s := range order {
			n := len(l.units)
			if n > 0 && l.units[n-1].Label == labels[s] {
				l.units[n-1].Members = append(l.units[n-1].Members, s)
				continue
			}
			l.units = append(l.units, Unit{Label: labels[s], Members: []int{s}})
		}
	default:
		return nil, rsaErrorf("NewLayout", ErrInvalidGranularity)
	}

	return l, nil
}

// Len returns the number of units (the RDM size).
func (l *Layout) Len() int { return len(l.units) }

// NSamples returns the sample-axis length the layout was built for.
func (l *Layout) NSamples() int { return l.nSamples }

// Granularity returns how units were formed.
func (l *Layout) Granularity() Granularity { return l.granularity }

// Unit returns a copy of unit i.
func (l *Layout) Unit(i int) Unit {
	u := l.units[i]

	return Unit{Label: u.Label, Members: slices.Clone(u.Members)}
}

// Labels returns the unit labels in RDM order.
func (l *Layout) Labels() []string {
	out := make([]string, len(l.units))
	for i, u := range l.units {
		out[i] = u.Label
	}

	return out
}

// Conditions returns the distinct labels in RDM order.
func (l *Layout) Conditions() []string {
	var out []string
	for _, u := range l.units {
		if len(out) == 0 || out[len(out)-1] != u.Label {
			out = append(out, u.Label)
		}
	}

	return out
}

// Equal reports whether both layouts list the same labels and members in the same order.
func (l *Layout) Equal(o *Layout) bool {
	if l == o {
		return true
	}
	if l == nil || o == nil || l.nSamples != o.nSamples || len(l.units) != len(o.units) {
		return false
	}
	for i := range l.units {
		if l.units[i].Label != o.units[i].Label || !slices.Equal(l.units[i].Members, o.units[i].Members) {
			return false
		}
	}

	return true
}

// Permute returns a layout whose unit i is l's unit perm[i].
// Errors: ErrBadPermutation.
func (l *Layout) Permute(perm []int) (*Layout, error) {
	if len(perm) != len(l.units) {
		return nil, rsaErrorf("Layout.Permute", ErrBadPermutation)
	}
	seen := make([]bool, len(perm))
	out := &Layout{granularity: l.granularity, nSamples: l.nSamples, units: make([]Unit, len(perm))}
	for i, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return nil, rsaErrorf("Layout.Permute", ErrBadPermutation)
		}
		seen[p] = true
		out.units[i] = l.Unit(p)
	}

	return out, nil
}
