package grading

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/boletim/internal/types"
)

// DescriptionSuffix is appended to a categorical output key to expose the
// letter's description (e.g. <<nota_final_descricao>>).
const DescriptionSuffix = "_descricao"

// Aggregator evaluates WeightedFormulas against resolved placeholder values.
type Aggregator struct {
	scale  Scale
	logger *slog.Logger
}

// NewAggregator creates an Aggregator over the given scale.
// A nil logger falls back to slog.Default().
func NewAggregator(scale Scale, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{scale: scale, logger: logger}
}

// Scale returns the categorical scale used for conversions.
func (a *Aggregator) Scale() Scale {
	return a.scale
}

// ComputeDerived evaluates formulas in order and returns only the derived
// entries to merge into resolved. A formula may read the output of an
// earlier formula. resolved itself is not modified.
func (a *Aggregator) ComputeDerived(formulas []types.WeightedFormula, resolved map[string]types.ResolvedValue) map[string]types.ResolvedValue {
	derived := make(map[string]types.ResolvedValue, len(formulas))

	lookup := func(key string) (types.ResolvedValue, bool) {
		if v, ok := derived[key]; ok {
			return v, true
		}
		v, ok := resolved[key]
		return v, ok
	}

	for _, f := range formulas {
		score, ok := a.blend(f, lookup)
		if !ok {
			derived[f.OutputKey] = types.ResolvedValue{Value: types.NotAvailable, Kind: f.Output, Source: f.OutputKey, Match: types.MatchDerived}
			if f.Output == types.ValueCategorical {
				derived[f.OutputKey+DescriptionSuffix] = types.ResolvedValue{Value: types.NotAvailable, Kind: f.Output, Source: f.OutputKey, Match: types.MatchDerived}
			}
			a.logger.Debug("derived grade has no usable terms", "output", f.OutputKey)
			continue
		}

		if f.Output == types.ValueCategorical {
			letter := a.scale.Letter(score)
			derived[f.OutputKey] = types.ResolvedValue{Value: letter, Kind: types.ValueCategorical, Source: f.OutputKey, Match: types.MatchDerived}
			derived[f.OutputKey+DescriptionSuffix] = types.ResolvedValue{Value: a.scale.Describe(letter), Kind: types.ValueCategorical, Source: f.OutputKey, Match: types.MatchDerived}
			a.logger.Debug("derived grade computed", "output", f.OutputKey, "score", score, "letter", letter)
			continue
		}

		derived[f.OutputKey] = types.ResolvedValue{Value: FormatScore(score), Kind: types.ValueNumeric, Source: f.OutputKey, Match: types.MatchDerived}
		a.logger.Debug("derived grade computed", "output", f.OutputKey, "score", score)
	}

	return derived
}

// Blend returns the weighted score of a formula, or false if no term is usable.
func (a *Aggregator) Blend(f types.WeightedFormula, resolved map[string]types.ResolvedValue) (float64, bool) {
	return a.blend(f, func(key string) (types.ResolvedValue, bool) {
		v, ok := resolved[key]
		return v, ok
	})
}

func (a *Aggregator) blend(f types.WeightedFormula, lookup func(string) (types.ResolvedValue, bool)) (float64, bool) {
	type present struct {
		value  float64
		weight float64
	}

	terms := make([]present, 0, len(f.Terms))
	var total float64
	for _, term := range f.Terms {
		if term.Weight <= 0 {
			continue
		}
		v, ok := lookup(term.InputKey)
		if !ok || v.Missing() {
			continue
		}
		score, ok := a.Numeric(v)
		if !ok {
			a.logger.Debug("excluding malformed grade value", "output", f.OutputKey, "input", term.InputKey, "value", v.Value)
			continue
		}
		terms = append(terms, present{value: score, weight: term.Weight})
		total += term.Weight
	}

	if len(terms) == 0 || total <= 0 {
		return 0, false
	}

	if f.Partial == types.PartialEqual && len(terms) < countWeighted(f.Terms) {
		var sum float64
		for _, t := range terms {
			sum += t.value
		}
		return sum / float64(len(terms)), true
	}

	var score float64
	for _, t := range terms {
		score += (t.weight / total) * t.value
	}
	return score, true
}

// Numeric converts a resolved value to a 0-100 score. Categorical values map
// to their band midpoint; numeric values are parsed (a decimal comma is
// accepted). If the declared kind does not parse, the other interpretation is
// tried. Scores outside [0, 100] are rejected.
func (a *Aggregator) Numeric(v types.ResolvedValue) (float64, bool) {
	raw := strings.TrimSpace(v.Value)
	if raw == "" || raw == types.NotAvailable {
		return 0, false
	}

	if v.Kind == types.ValueCategorical {
		if mid, ok := a.scale.Midpoint(raw); ok {
			return mid, true
		}
		return parseScore(raw)
	}

	if score, ok := parseScore(raw); ok {
		return score, true
	}
	return a.scale.Midpoint(raw)
}

// FormatScore renders a numeric score with one decimal place.
func FormatScore(score float64) string {
	return strconv.FormatFloat(math.Round(score*10)/10, 'f', 1, 64)
}

// ValidateFormulas checks formula configuration against the placeholder keys of a kind.
func ValidateFormulas(formulas []types.WeightedFormula, placeholders []types.PlaceholderSpec) error {
	known := make(map[string]bool, len(placeholders))
	for _, p := range placeholders {
		known[p.Key] = true
	}

	for _, f := range formulas {
		if f.OutputKey == "" {
			return &FormulaError{Message: "output key is empty"}
		}
		if f.Output != types.ValueNumeric && f.Output != types.ValueCategorical {
			return &FormulaError{OutputKey: f.OutputKey, Message: fmt.Sprintf("unknown output kind %q", f.Output)}
		}
		switch f.Partial {
		case "", types.PartialRenormalize, types.PartialEqual:
		default:
			return &FormulaError{OutputKey: f.OutputKey, Message: fmt.Sprintf("unknown partial policy %q", f.Partial)}
		}
		if countWeighted(f.Terms) == 0 {
			return &FormulaError{OutputKey: f.OutputKey, Message: "formula has no positively weighted terms"}
		}
		for _, t := range f.Terms {
			if !known[t.InputKey] {
				return &FormulaError{OutputKey: f.OutputKey, Message: fmt.Sprintf("term %q is not a placeholder of this kind", t.InputKey)}
			}
		}
		known[f.OutputKey] = true
	}
	return nil
}

func countWeighted(terms []types.FormulaTerm) int {
	n := 0
	for _, t := range terms {
		if t.Weight > 0 {
			n++
		}
	}
	return n
}

func parseScore(raw string) (float64, bool) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	raw = strings.ReplaceAll(raw, ",", ".")
	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(score) || score < 0 || score > 100 {
		return 0, false
	}
	return score, true
}
