package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tier is one contiguous usage band within a tiered, volume or stairstep
// model. End is nil for an unbounded ("unlimited") band, which is only
// permitted on the last tier. Rate is a per-unit price for tiered/volume
// models and a flat cost for the whole band in stairstep models.
type Tier struct {
	Start int64           `json:"start"`
	End   *int64          `json:"end"`
	Rate  decimal.Decimal `json:"rate"`
}

// Bounded reports whether the tier has an upper bound.
func (t Tier) Bounded() bool {
	return t.End != nil
}

// Contains reports whether usage falls within the tier. A usage value
// exactly equal to End belongs to this tier, not the next.
func (t Tier) Contains(usage int64) bool {
	if usage < t.Start {
		return false
	}
	return t.End == nil || usage <= *t.End
}

// ValidationError describes a single invalid field on a tier. Errors are
// keyed by tier index and field name so callers can attach them to the
// offending form inputs.
type ValidationError struct {
	TierIndex int    `json:"tier_index"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("tier %d: %s %s", e.TierIndex, e.Field, e.Message)
}

// ValidateTiers checks ordering, contiguity and field validity of a tier
// set. An empty set is valid (draft plans are allowed to have no tiers
// yet). The returned slice is empty when the tiers are well formed.
func ValidateTiers(tiers []Tier) []ValidationError {
	errs := []ValidationError{}
	for i, tier := range tiers {
		if tier.Start < 0 {
			errs = append(errs, ValidationError{
				TierIndex: i,
				Field:     "start",
				Message:   "must not be negative",
			})
		}
		if tier.End == nil && i != len(tiers)-1 {
			errs = append(errs, ValidationError{
				TierIndex: i,
				Field:     "end",
				Message:   "only the last tier may be unlimited",
			})
		}
		if tier.End != nil && *tier.End < tier.Start {
			errs = append(errs, ValidationError{
				TierIndex: i,
				Field:     "end",
				Message:   "must not be before start",
			})
		}
		if tier.Rate.Cmp(decimal.Zero) <= 0 {
			errs = append(errs, ValidationError{
				TierIndex: i,
				Field:     "rate",
				Message:   "must be a positive number",
			})
		}
		if i > 0 && tiers[i-1].End != nil && tier.Start != *tiers[i-1].End+1 {
			errs = append(errs, ValidationError{
				TierIndex: i,
				Field:     "start",
				Message:   "must be previous tier's end + 1",
			})
		}
	}
	return errs
}
