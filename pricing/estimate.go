// Package pricing implements the revenue-estimation core of the rate
// plan console: a tier model, the five pricing strategy evaluators and
// the extras adjustments composed into a single estimate.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Result is the full breakdown of an estimate: one line per tier or
// band touched, one per enabled extra, and the final total. The total
// is never negative.
type Result struct {
	Usage int64           `json:"usage"`
	Lines []LineItem      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Estimate prices a hypothetical usage value under the given model and
// extras. Malformed tier sets are rejected outright rather than being
// silently priced; degenerate-but-valid input (empty tiers, negative
// usage) still yields a zero estimate so the caller can keep estimating
// mid-edit. The computation is pure: no I/O, no retained state.
func Estimate(model Model, extras Extras, usage int64) (Result, error) {
	if errs := ValidateTiers(model.Tiers()); len(errs) > 0 {
		return Result{}, fmt.Errorf("invalid tiers: %s", errs[0].Error())
	}
	if err := extras.Validate(); err != nil {
		return Result{}, err
	}
	if usage < 0 {
		usage = 0
	}

	billableUsage := usage
	var freemiumLine *LineItem
	if f := extras.Freemium; f != nil && f.application() == ApplyToUsage && f.Units > 0 {
		granted := minInt64(f.Units, billableUsage)
		billableUsage -= granted
		freemiumLine = &LineItem{
			Kind:        LineFreemium,
			TierIndex:   -1,
			Units:       granted,
			Description: fmt.Sprintf("%d free units deducted from usage", granted),
		}
	}

	charge, err := Evaluate(model, billableUsage)
	if err != nil {
		return Result{}, err
	}

	result := Result{Usage: usage, Lines: charge.Lines}
	total := charge.Amount

	if extras.SetupFee != nil {
		var line LineItem
		total, line = applySetupFee(total, *extras.SetupFee)
		result.Lines = append(result.Lines, line)
		total = floorZero(total)
	}
	if f := extras.Freemium; f != nil {
		if f.application() == ApplyToSubtotal {
			var line LineItem
			total, line = applyFreemiumSubtotal(total, *f, model.UnitRate())
			result.Lines = append(result.Lines, line)
		} else if freemiumLine != nil {
			result.Lines = append(result.Lines, *freemiumLine)
		}
		total = floorZero(total)
	}
	if extras.Discount != nil {
		var line LineItem
		total, line = applyDiscount(total, *extras.Discount)
		result.Lines = append(result.Lines, line)
		total = floorZero(total)
	}
	if extras.MinimumCommitment != nil {
		if raised, line, ok := applyMinimumCommitment(total, *extras.MinimumCommitment); ok {
			total = raised
			result.Lines = append(result.Lines, line)
		}
	}

	result.Total = floorZero(total)
	return result, nil
}

func (f Freemium) application() FreemiumApplication {
	if f.Application == ApplyToSubtotal {
		return ApplyToSubtotal
	}
	return ApplyToUsage
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
