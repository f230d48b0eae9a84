package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineKind identifies what a line item in a charge breakdown represents.
type LineKind string

const (
	LineFlatFee           LineKind = "flat_fee"
	LineUsage             LineKind = "usage"
	LineTier              LineKind = "tier"
	LineOverage           LineKind = "overage"
	LineSetupFee          LineKind = "setup_fee"
	LineFreemium          LineKind = "freemium"
	LineDiscount          LineKind = "discount"
	LineMinimumCommitment LineKind = "minimum_commitment"
)

// LineItem is one row of a charge breakdown. TierIndex is -1 for rows
// that do not reference a tier.
type LineItem struct {
	Kind        LineKind        `json:"kind"`
	TierIndex   int             `json:"tier_index"`
	Units       int64           `json:"units"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Charge is the output of a strategy evaluation, before extras.
type Charge struct {
	Amount decimal.Decimal `json:"amount"`
	Lines  []LineItem      `json:"lines"`
}

// Evaluate prices the given usage under the model's active strategy.
// Negative usage is clamped to zero and an empty tier set yields a zero
// charge, so a half-edited draft plan still produces an estimate rather
// than an error. Tier sets are assumed valid; use ValidateTiers (or
// Estimate, which does) to reject malformed ones first.
func Evaluate(model Model, usage int64) (Charge, error) {
	if usage < 0 {
		usage = 0
	}
	switch model.Kind {
	case FlatFeeKind:
		if model.FlatFee == nil {
			return Charge{}, fmt.Errorf("flatfee model data is required")
		}
		return evaluateFlatFee(*model.FlatFee, usage), nil
	case UsageBasedKind:
		if model.UsageBased == nil {
			return Charge{}, fmt.Errorf("usagebased model data is required")
		}
		return evaluateUsageBased(*model.UsageBased, usage), nil
	case TieredKind:
		if model.Tiered == nil {
			return Charge{}, fmt.Errorf("tiered model data is required")
		}
		return evaluateTiered(*model.Tiered, usage), nil
	case VolumeKind:
		if model.Volume == nil {
			return Charge{}, fmt.Errorf("volume model data is required")
		}
		return evaluateVolume(*model.Volume, usage), nil
	case StairstepKind:
		if model.Stairstep == nil {
			return Charge{}, fmt.Errorf("stairstep model data is required")
		}
		return evaluateStairstep(*model.Stairstep, usage), nil
	}
	return Charge{}, fmt.Errorf("unknown pricing model kind: %q", model.Kind)
}

func evaluateFlatFee(m FlatFeeModel, usage int64) Charge {
	charge := Charge{
		Amount: m.Amount,
		Lines: []LineItem{{
			Kind:        LineFlatFee,
			TierIndex:   -1,
			Units:       minInt64(usage, m.IncludedUnits),
			Rate:        m.Amount,
			Amount:      m.Amount,
			Description: fmt.Sprintf("flat fee covering %d units", m.IncludedUnits),
		}},
	}
	overageUnits := usage - m.IncludedUnits - m.GraceBuffer
	if overageUnits > 0 {
		amount := decimal.NewFromInt(overageUnits).Mul(m.OverageRate)
		charge.Amount = charge.Amount.Add(amount)
		charge.Lines = append(charge.Lines, overageLine(overageUnits, m.OverageRate, amount))
	}
	return charge
}

func evaluateUsageBased(m UsageBasedModel, usage int64) Charge {
	amount := decimal.NewFromInt(usage).Mul(m.PerUnitAmount)
	return Charge{
		Amount: amount,
		Lines: []LineItem{{
			Kind:        LineUsage,
			TierIndex:   -1,
			Units:       usage,
			Rate:        m.PerUnitAmount,
			Amount:      amount,
			Description: fmt.Sprintf("%d units at per-unit rate", usage),
		}},
	}
}

// evaluateTiered walks the tiers in order, billing the units that fall
// inside each tier at that tier's rate until the usage is exhausted.
func evaluateTiered(m TieredModel, usage int64) Charge {
	charge := Charge{Amount: decimal.Zero, Lines: []LineItem{}}
	if len(m.Tiers) == 0 {
		return charge
	}
	var processed int64
	for i, tier := range m.Tiers {
		if processed >= usage {
			break
		}
		upper := usage
		if tier.End != nil && *tier.End < upper {
			upper = *tier.End
		}
		units := upper - processed
		if units <= 0 {
			continue
		}
		amount := decimal.NewFromInt(units).Mul(tier.Rate)
		charge.Amount = charge.Amount.Add(amount)
		charge.Lines = append(charge.Lines, LineItem{
			Kind:        LineTier,
			TierIndex:   i,
			Units:       units,
			Rate:        tier.Rate,
			Amount:      amount,
			Description: tierDescription(i, tier),
		})
		processed = upper
	}
	last := m.Tiers[len(m.Tiers)-1]
	if last.End != nil && usage > *last.End {
		overageUnits := usage - *last.End - m.GraceBuffer
		if overageUnits > 0 {
			amount := decimal.NewFromInt(overageUnits).Mul(m.OverageRate)
			charge.Amount = charge.Amount.Add(amount)
			charge.Lines = append(charge.Lines, overageLine(overageUnits, m.OverageRate, amount))
		}
	}
	return charge
}

// evaluateVolume prices the entire usage volume at the rate of the one
// tier containing it. Usage past the last bounded tier is priced as the
// full last tier at its rate plus the excess at the overage rate.
func evaluateVolume(m VolumeModel, usage int64) Charge {
	charge := Charge{Amount: decimal.Zero, Lines: []LineItem{}}
	if len(m.Tiers) == 0 || usage == 0 {
		return charge
	}
	for i, tier := range m.Tiers {
		if !tier.Contains(usage) {
			continue
		}
		amount := decimal.NewFromInt(usage).Mul(tier.Rate)
		charge.Amount = amount
		charge.Lines = append(charge.Lines, LineItem{
			Kind:        LineTier,
			TierIndex:   i,
			Units:       usage,
			Rate:        tier.Rate,
			Amount:      amount,
			Description: tierDescription(i, tier),
		})
		return charge
	}
	last := m.Tiers[len(m.Tiers)-1]
	if last.End == nil || usage <= *last.End {
		// usage below the first tier's start
		return charge
	}
	inTier := decimal.NewFromInt(*last.End).Mul(last.Rate)
	charge.Amount = inTier
	charge.Lines = append(charge.Lines, LineItem{
		Kind:        LineTier,
		TierIndex:   len(m.Tiers) - 1,
		Units:       *last.End,
		Rate:        last.Rate,
		Amount:      inTier,
		Description: tierDescription(len(m.Tiers)-1, last),
	})
	overageUnits := usage - *last.End - m.GraceBuffer
	if overageUnits > 0 {
		amount := decimal.NewFromInt(overageUnits).Mul(m.OverageRate)
		charge.Amount = charge.Amount.Add(amount)
		charge.Lines = append(charge.Lines, overageLine(overageUnits, m.OverageRate, amount))
	}
	return charge
}

// evaluateStairstep charges the flat cost of the highest band whose
// start the usage has reached. The exact usage within the band does not
// change the charge.
func evaluateStairstep(m StairstepModel, usage int64) Charge {
	charge := Charge{Amount: decimal.Zero, Lines: []LineItem{}}
	if len(m.Tiers) == 0 {
		return charge
	}
	matched := -1
	for i, tier := range m.Tiers {
		if tier.Start <= usage {
			matched = i
		}
	}
	if matched < 0 {
		return charge
	}
	tier := m.Tiers[matched]
	charge.Amount = tier.Rate
	charge.Lines = append(charge.Lines, LineItem{
		Kind:        LineTier,
		TierIndex:   matched,
		Units:       usage,
		Rate:        tier.Rate,
		Amount:      tier.Rate,
		Description: tierDescription(matched, tier),
	})
	last := m.Tiers[len(m.Tiers)-1]
	if last.End != nil && usage > *last.End {
		overageUnits := usage - *last.End - m.GraceBuffer
		if overageUnits > 0 {
			amount := decimal.NewFromInt(overageUnits).Mul(m.OverageRate)
			charge.Amount = charge.Amount.Add(amount)
			charge.Lines = append(charge.Lines, overageLine(overageUnits, m.OverageRate, amount))
		}
	}
	return charge
}

func overageLine(units int64, rate, amount decimal.Decimal) LineItem {
	return LineItem{
		Kind:        LineOverage,
		TierIndex:   -1,
		Units:       units,
		Rate:        rate,
		Amount:      amount,
		Description: fmt.Sprintf("%d units beyond the last tier", units),
	}
}

func tierDescription(i int, tier Tier) string {
	if tier.End == nil {
		return fmt.Sprintf("tier %d (%d and above)", i+1, tier.Start)
	}
	return fmt.Sprintf("tier %d (%d-%d)", i+1, tier.Start, *tier.End)
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
