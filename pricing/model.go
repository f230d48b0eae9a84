package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ModelKind selects the pricing strategy of a rate plan. Exactly one
// strategy is active per plan.
type ModelKind string

const (
	FlatFeeKind    ModelKind = "flatfee"
	UsageBasedKind ModelKind = "usagebased"
	TieredKind     ModelKind = "tiered"
	VolumeKind     ModelKind = "volume"
	StairstepKind  ModelKind = "stairstep"
)

// FlatFeeModel charges a fixed amount covering IncludedUnits, with usage
// beyond that billed per unit at OverageRate. GraceBuffer units are
// forgiven from the overage count before it is charged.
type FlatFeeModel struct {
	Amount        decimal.Decimal `json:"amount"`
	IncludedUnits int64           `json:"included_units"`
	OverageRate   decimal.Decimal `json:"overage_rate"`
	GraceBuffer   int64           `json:"grace_buffer"`
}

// UsageBasedModel charges a single per-unit price for all usage.
type UsageBasedModel struct {
	PerUnitAmount decimal.Decimal `json:"per_unit_amount"`
}

// TieredModel bills marginally: each tier's units are charged at that
// tier's rate as usage passes through it.
type TieredModel struct {
	Tiers       []Tier          `json:"tiers"`
	OverageRate decimal.Decimal `json:"overage_rate"`
	GraceBuffer int64           `json:"grace_buffer"`
}

// VolumeModel bills the entire usage volume at the rate of the single
// tier that contains it.
type VolumeModel struct {
	Tiers       []Tier          `json:"tiers"`
	OverageRate decimal.Decimal `json:"overage_rate"`
	GraceBuffer int64           `json:"grace_buffer"`
}

// StairstepModel bills the flat cost of the band containing the usage,
// regardless of the exact usage within the band.
type StairstepModel struct {
	Tiers       []Tier          `json:"tiers"`
	OverageRate decimal.Decimal `json:"overage_rate"`
	GraceBuffer int64           `json:"grace_buffer"`
}

// Model is the tagged union over the five pricing strategies. The
// variant matching Kind must be non-nil; the others are ignored.
type Model struct {
	Kind       ModelKind        `json:"kind"`
	FlatFee    *FlatFeeModel    `json:"flatfee,omitempty"`
	UsageBased *UsageBasedModel `json:"usagebased,omitempty"`
	Tiered     *TieredModel     `json:"tiered,omitempty"`
	Volume     *VolumeModel     `json:"volume,omitempty"`
	Stairstep  *StairstepModel  `json:"stairstep,omitempty"`
}

// Tiers returns the tier set of the active strategy, or nil for
// strategies that have none.
func (m Model) Tiers() []Tier {
	switch m.Kind {
	case TieredKind:
		if m.Tiered != nil {
			return m.Tiered.Tiers
		}
	case VolumeKind:
		if m.Volume != nil {
			return m.Volume.Tiers
		}
	case StairstepKind:
		if m.Stairstep != nil {
			return m.Stairstep.Tiers
		}
	}
	return nil
}

// Validate checks that the tagged variant is present and that any tier
// set is well formed.
func (m Model) Validate() error {
	switch m.Kind {
	case FlatFeeKind:
		if m.FlatFee == nil {
			return fmt.Errorf("flatfee model data is required")
		}
	case UsageBasedKind:
		if m.UsageBased == nil {
			return fmt.Errorf("usagebased model data is required")
		}
	case TieredKind:
		if m.Tiered == nil {
			return fmt.Errorf("tiered model data is required")
		}
	case VolumeKind:
		if m.Volume == nil {
			return fmt.Errorf("volume model data is required")
		}
	case StairstepKind:
		if m.Stairstep == nil {
			return fmt.Errorf("stairstep model data is required")
		}
	default:
		return fmt.Errorf("unknown pricing model kind: %q", m.Kind)
	}
	if errs := ValidateTiers(m.Tiers()); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// UnitRate returns the per-unit price used to value freemium allowances
// for this strategy: the per-unit amount for usage-based models, the
// first tier's rate for tiered/volume models and the overage rate
// otherwise. Returns zero when the model has no meaningful unit rate
// (e.g. stairstep bands).
func (m Model) UnitRate() decimal.Decimal {
	switch m.Kind {
	case UsageBasedKind:
		if m.UsageBased != nil {
			return m.UsageBased.PerUnitAmount
		}
	case FlatFeeKind:
		if m.FlatFee != nil {
			return m.FlatFee.OverageRate
		}
	case TieredKind, VolumeKind:
		if tiers := m.Tiers(); len(tiers) > 0 {
			return tiers[0].Rate
		}
	}
	return decimal.Zero
}
