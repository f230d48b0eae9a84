package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount is computed.
type DiscountType string

const (
	PercentageDiscount DiscountType = "PERCENTAGE"
	FlatDiscount       DiscountType = "FLAT"
)

// FreemiumKind selects the dimension of a freemium allowance.
type FreemiumKind string

const (
	FreemiumUnits FreemiumKind = "UNITS"
	FreemiumDays  FreemiumKind = "DAYS"
)

// FreemiumApplication selects how a unit allowance is applied. The two
// behaviours produce different totals for non-linear strategies, so the
// choice is an explicit knob rather than a hidden default.
type FreemiumApplication string

const (
	// ApplyToUsage subtracts the free units from the billable usage
	// before the strategy is evaluated. This is the default.
	ApplyToUsage FreemiumApplication = "USAGE"
	// ApplyToSubtotal values the free units at the strategy's unit rate
	// and subtracts that from the computed subtotal.
	ApplyToSubtotal FreemiumApplication = "SUBTOTAL"
)

// SetupFee is a one-off charge added before any other adjustment.
type SetupFee struct {
	Amount decimal.Decimal `json:"amount"`
}

// Discount reduces the running subtotal by a percentage or a flat amount.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Freemium grants an allowance at no charge before billing begins.
// TrialDays only applies to the DAYS kind and is informational for unit
// pricing purposes.
type Freemium struct {
	Kind        FreemiumKind        `json:"kind"`
	Units       int64               `json:"units"`
	TrialDays   int64               `json:"trial_days"`
	Application FreemiumApplication `json:"application,omitempty"`
}

// MinimumCommitment guarantees a floor charge regardless of low usage.
type MinimumCommitment struct {
	Usage  int64           `json:"usage"`
	Charge decimal.Decimal `json:"charge"`
}

// Extras holds the optional adjustments of a rate plan. A nil field
// means the adjustment is disabled.
type Extras struct {
	SetupFee          *SetupFee          `json:"setup_fee,omitempty"`
	Discount          *Discount          `json:"discount,omitempty"`
	Freemium          *Freemium          `json:"freemium,omitempty"`
	MinimumCommitment *MinimumCommitment `json:"minimum_commitment,omitempty"`
}

// Validate rejects extras configurations that could never have been
// produced by a well-behaved client.
func (e Extras) Validate() error {
	if e.SetupFee != nil && e.SetupFee.Amount.IsNegative() {
		return fmt.Errorf("setup fee must not be negative")
	}
	if e.Discount != nil {
		switch e.Discount.Type {
		case PercentageDiscount, FlatDiscount:
		default:
			return fmt.Errorf("unknown discount type: %q", e.Discount.Type)
		}
		if e.Discount.Value.IsNegative() {
			return fmt.Errorf("discount value must not be negative")
		}
	}
	if e.Freemium != nil {
		if e.Freemium.Units < 0 {
			return fmt.Errorf("freemium units must not be negative")
		}
		switch e.Freemium.Application {
		case "", ApplyToUsage, ApplyToSubtotal:
		default:
			return fmt.Errorf("unknown freemium application: %q", e.Freemium.Application)
		}
	}
	if e.MinimumCommitment != nil && e.MinimumCommitment.Charge.IsNegative() {
		return fmt.Errorf("minimum commitment charge must not be negative")
	}
	return nil
}

// applySetupFee adds the one-off fee to the subtotal.
func applySetupFee(subtotal decimal.Decimal, fee SetupFee) (decimal.Decimal, LineItem) {
	return subtotal.Add(fee.Amount), LineItem{
		Kind:        LineSetupFee,
		TierIndex:   -1,
		Amount:      fee.Amount,
		Description: "setup fee",
	}
}

// applyFreemiumSubtotal subtracts the value of the free units from the
// subtotal, floored at zero.
func applyFreemiumSubtotal(subtotal decimal.Decimal, f Freemium, unitRate decimal.Decimal) (decimal.Decimal, LineItem) {
	value := decimal.NewFromInt(f.Units).Mul(unitRate)
	if value.Cmp(subtotal) > 0 {
		value = subtotal
	}
	return subtotal.Sub(value), LineItem{
		Kind:        LineFreemium,
		TierIndex:   -1,
		Units:       f.Units,
		Rate:        unitRate,
		Amount:      value.Neg(),
		Description: fmt.Sprintf("%d free units", f.Units),
	}
}

// applyDiscount reduces the subtotal by a percentage of itself or by a
// flat amount, floored at zero.
func applyDiscount(subtotal decimal.Decimal, d Discount) (decimal.Decimal, LineItem) {
	var reduction decimal.Decimal
	var description string
	switch d.Type {
	case PercentageDiscount:
		reduction = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
		description = fmt.Sprintf("%s%% discount", d.Value.String())
	default:
		reduction = d.Value
		description = "flat discount"
	}
	if reduction.Cmp(subtotal) > 0 {
		reduction = subtotal
	}
	return subtotal.Sub(reduction), LineItem{
		Kind:        LineDiscount,
		TierIndex:   -1,
		Amount:      reduction.Neg(),
		Description: description,
	}
}

// applyMinimumCommitment raises the total to the committed floor charge
// when actual usage billed below it.
func applyMinimumCommitment(total decimal.Decimal, mc MinimumCommitment) (decimal.Decimal, LineItem, bool) {
	if total.Cmp(mc.Charge) >= 0 {
		return total, LineItem{}, false
	}
	topUp := mc.Charge.Sub(total)
	return mc.Charge, LineItem{
		Kind:        LineMinimumCommitment,
		TierIndex:   -1,
		Amount:      topUp,
		Description: "minimum commitment top-up",
	}, true
}
