// Package similarity scores how close an alternative perfume smells to a
// luxury one. It is pure: callers load perfumes and persist the results.
package similarity

import (
	"math"

	"github.com/google/uuid"

	"github.com/example/perfumatch/internal/models"
)

// Point weights of the additive score.
const (
	GenderPoints = 30.0
	FamilyPoints = 25.0
	NotePoints   = 45.0
	MaxScore     = 100.0

	// Threshold is the lowest score worth persisting as an edge.
	Threshold = 30.0
)

// NoteSet is a set of note names.
type NoteSet map[string]struct{}

// NewNoteSet builds a set from names, ignoring blanks.
func NewNoteSet(names ...string) NoteSet {
	set := make(NoteSet, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether name is in the set.
func (s NoteSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Intersect returns the names present in both sets.
func (s NoteSet) Intersect(other NoteSet) []string {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	out := make([]string, 0, len(small))
	for n := range small {
		if large.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func Jaccard(a, b NoteSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := len(a.Intersect(b))
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Profile is the part of a perfume the score looks at.
type Profile struct {
	ID       uuid.UUID
	Gender   models.Gender
	FamilyID *uuid.UUID
	Notes    NoteSet
}

// ProfileOf builds a Profile from a perfume with its notes preloaded.
func ProfileOf(p *models.Perfume) Profile {
	return Profile{
		ID:       p.ID,
		Gender:   p.Gender,
		FamilyID: p.FamilyID,
		Notes:    NewNoteSet(p.NoteNames()...),
	}
}

// Breakdown is a score together with the terms it was summed from.
type Breakdown struct {
	Total  float64
	Gender float64
	Family float64
	Notes  float64

	Jaccard float64
	// GenderCompatible is the scoring rule (unisex matches anything);
	// GenderMatch is strict equality, which is what gets stored on edges.
	GenderCompatible bool
	GenderMatch      bool
}

// GenderCompatible reports whether two perfumes can share an audience.
func GenderCompatible(a, b models.Gender) bool {
	return a == b || a == models.GenderUnisex || b == models.GenderUnisex
}

// Score rates how similar b is to a on a 0-100 scale. It is symmetric.
func Score(a, b Profile) Breakdown {
	var bd Breakdown

	bd.GenderMatch = a.Gender == b.Gender
	bd.GenderCompatible = GenderCompatible(a.Gender, b.Gender)
	if bd.GenderCompatible {
		bd.Gender = GenderPoints
	}

	if a.FamilyID != nil && b.FamilyID != nil && *a.FamilyID == *b.FamilyID {
		bd.Family = FamilyPoints
	}

	bd.Jaccard = Jaccard(a.Notes, b.Notes)
	bd.Notes = NotePoints * bd.Jaccard

	bd.Total = math.Max(0, math.Min(MaxScore, bd.Gender+bd.Family+bd.Notes))
	return bd
}

// Persistable reports whether the score clears Threshold.
func (b Breakdown) Persistable() bool {
	return b.Total >= Threshold
}

// Round2 rounds v to two decimals, the precision of the stored columns.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
