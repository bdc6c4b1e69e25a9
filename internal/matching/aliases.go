// Package matching resolves template placeholders against a student's graded competencies.
package matching

import (
	"sort"

	"github.com/jonathan/boletim/internal/naming"
)

// AliasTable maps a placeholder key to the other keys that historically meant
// the same competency. It is immutable once built.
type AliasTable struct {
	aliases map[string][]string
}

// NewAliasTable builds a symmetric alias table: if A lists B, B also lists A.
// Keys are normalized so configuration may use display names.
func NewAliasTable(entries map[string][]string) AliasTable {
	sets := make(map[string]map[string]struct{})
	add := func(from, to string) {
		if from == "" || to == "" || from == to {
			return
		}
		if sets[from] == nil {
			sets[from] = make(map[string]struct{})
		}
		sets[from][to] = struct{}{}
	}

	for key, alts := range entries {
		k := naming.Normalize(key)
		for _, alt := range alts {
			a := naming.Normalize(alt)
			add(k, a)
			add(a, k)
		}
	}

	table := AliasTable{aliases: make(map[string][]string, len(sets))}
	for key, set := range sets {
		list := make([]string, 0, len(set))
		for alt := range set {
			list = append(list, alt)
		}
		sort.Strings(list)
		table.aliases[key] = list
	}
	return table
}

// Of returns the aliases of key (never including key itself).
func (t AliasTable) Of(key string) []string {
	return t.aliases[key]
}

// Len returns the number of keys that have at least one alias.
func (t AliasTable) Len() int {
	return len(t.aliases)
}
