package matching

import (
	"strings"

	"github.com/jonathan/boletim/internal/naming"
	"github.com/jonathan/boletim/internal/types"
)

// candidate is a grade prepared for matching.
type candidate struct {
	grade   types.CompetencyGrade
	key     string
	claimed bool
}

// Resolve builds the placeholder → value map for one report.
//
// Competency placeholders are matched in three tiers, each tier run over all
// placeholders (in declared order) before the next one starts:
//
//  1. exact:   normalized competency name == placeholder key
//  2. alias:   normalized competency name == one of the key's aliases
//  3. partial: one of {key, aliases...} is a substring of the normalized
//     name, or the normalized name is a substring of one of them
//
// Grades are scanned in input order and the first hit wins. A grade that
// satisfied one placeholder is not offered to another. Placeholders left
// without a match, plus every derived or field placeholder, resolve to N/A.
func Resolve(placeholders []types.PlaceholderSpec, grades []types.CompetencyGrade, aliases AliasTable) map[string]types.ResolvedValue {
	resolved := make(map[string]types.ResolvedValue, len(placeholders))
	for _, p := range placeholders {
		resolved[p.Key] = types.Unresolved()
	}

	candidates := make([]*candidate, 0, len(grades))
	for _, g := range grades {
		key := naming.Normalize(g.CompetencyName)
		if key == "" || strings.TrimSpace(g.RawValue) == "" {
			continue
		}
		candidates = append(candidates, &candidate{grade: g, key: key})
	}

	pending := make([]types.PlaceholderSpec, 0, len(placeholders))
	for _, p := range placeholders {
		if p.FromCompetency() {
			pending = append(pending, p)
		}
	}

	tiers := []struct {
		match types.MatchKind
		hit   func(p string, c *candidate, aliases AliasTable) bool
	}{
		{types.MatchExact, exactHit},
		{types.MatchAlias, aliasHit},
		{types.MatchPartial, partialHit},
	}

	for _, tier := range tiers {
		remaining := pending[:0]
		for _, p := range pending {
			c := firstUnclaimed(candidates, func(c *candidate) bool {
				return tier.hit(p.Key, c, aliases)
			})
			if c == nil {
				remaining = append(remaining, p)
				continue
			}
			c.claimed = true
			resolved[p.Key] = types.ResolvedValue{
				Value:  strings.TrimSpace(c.grade.RawValue),
				Kind:   c.grade.ValueKind,
				Source: c.grade.CompetencyName,
				Match:  tier.match,
			}
		}
		pending = remaining
	}

	return resolved
}

func firstUnclaimed(candidates []*candidate, hit func(*candidate) bool) *candidate {
	for _, c := range candidates {
		if !c.claimed && hit(c) {
			return c
		}
	}
	return nil
}

func exactHit(key string, c *candidate, _ AliasTable) bool {
	return c.key == key
}

func aliasHit(key string, c *candidate, aliases AliasTable) bool {
	for _, alias := range aliases.Of(key) {
		if c.key == alias {
			return true
		}
	}
	return false
}

func partialHit(key string, c *candidate, aliases AliasTable) bool {
	if containsEither(c.key, key) {
		return true
	}
	for _, alias := range aliases.Of(key) {
		if containsEither(c.key, alias) {
			return true
		}
	}
	return false
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
