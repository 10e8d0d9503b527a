package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidTierTable = errors.New("invalid commission tier table")

// Tier maps a lifetime-earnings threshold to a commission rate. The rate
// applies from Threshold (inclusive) up to the next tier's threshold.
type Tier struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// TierTable resolves the commission rate for affiliate sales from a user's
// lifetime approved earnings. It is pure configuration; rates are applied
// prospectively, never to already recorded entries.
type TierTable []Tier

// ParseTierTable parses a "threshold:rate,threshold:rate" config string,
// e.g. "0:0.50,20:0.60,30:0.70".
func ParseTierTable(s string) (TierTable, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 0 {
		return nil, ErrInvalidTierTable
	}

	table := make(TierTable, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTierTable, part)
		}

		threshold, err := decimal.NewFromString(kv[0])
		if err != nil {
			return nil, fmt.Errorf("%w: threshold %q", ErrInvalidTierTable, kv[0])
		}

		rate, err := decimal.NewFromString(kv[1])
		if err != nil {
			return nil, fmt.Errorf("%w: rate %q", ErrInvalidTierTable, kv[1])
		}

		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: rate %s out of [0,1]", ErrInvalidTierTable, rate)
		}

		table = append(table, Tier{Threshold: threshold, Rate: rate})
	}

	sort.Slice(table, func(i, j int) bool {
		return table[i].Threshold.LessThan(table[j].Threshold)
	})

	if !table[0].Threshold.IsZero() {
		return nil, fmt.Errorf("%w: first threshold must be 0", ErrInvalidTierTable)
	}

	return table, nil
}

// Rate returns the commission rate bucket for the given lifetime approved
// earnings.
func (t TierTable) Rate(lifetime decimal.Decimal) decimal.Decimal {
	rate := t[0].Rate
	for _, tier := range t {
		if lifetime.GreaterThanOrEqual(tier.Threshold) {
			rate = tier.Rate
		}
	}

	return rate
}
