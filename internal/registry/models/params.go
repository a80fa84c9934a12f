package models

import (
	"math/bits"

	dErrors "landgrid/pkg/domain-errors"
)

// Percentages are expressed in parts per 100000, so 3500 means 3.5%.
const PercentageDenominator = 100000

const (
	// Dividend percentages must be strictly positive and at most 100%.
	MinDividendPercentage = 1
	MaxDividendPercentage = PercentageDenominator

	// The buyout fee is capped at 6%.
	MaxBuyoutFeePercentage = 6000

	// Owner-set buyout prices are bounded by multiples of the unclaimed
	// plot price.
	MinBuyoutPriceMultiplier = 1
	MaxBuyoutPriceMultiplier = 40

	// MaxUnclaimedPlotPrice keeps owner-settable amounts (price x 40) well
	// inside uint64 arithmetic.
	MaxUnclaimedPlotPrice = 1 << 47

	// MaxEscalatedBuyoutPrice caps post-buyout escalation. With the cap in
	// place every settlement sum (price plus eight claim dividends) fits in
	// uint64. The cap sits far above the owner-settable maximum and is only
	// approached after repeated consecutive buyouts of a top-priced plot.
	MaxEscalatedBuyoutPrice uint64 = 1 << 56
)

// Initial buyout price and post-buyout escalation both apply a 2.5x
// multiplier, expressed as 5/2 to stay in integer arithmetic.
const (
	buyoutMultiplierNumerator   = 5
	buyoutMultiplierDenominator = 2
)

// Params is the treasurer-mutable economic configuration of the ledger.
type Params struct {
	UnclaimedPlotPrice       uint64
	ClaimDividendPercentage  uint64
	BuyoutDividendPercentage uint64
	BuyoutFeePercentage      uint64
}

// Validate checks every field against its configured bounds.
func (p Params) Validate() error {
	if err := ValidateUnclaimedPlotPrice(p.UnclaimedPlotPrice); err != nil {
		return err
	}
	if err := ValidateDividendPercentage(p.ClaimDividendPercentage); err != nil {
		return err
	}
	if err := ValidateDividendPercentage(p.BuyoutDividendPercentage); err != nil {
		return err
	}
	if err := ValidateBuyoutFeePercentage(p.BuyoutFeePercentage); err != nil {
		return err
	}
	// The pool and fee both come out of the buyout price, so together they
	// must not exceed it or the seller's proceeds would underflow.
	if p.BuyoutDividendPercentage+p.BuyoutFeePercentage > PercentageDenominator {
		return dErrors.Newf(dErrors.CodeValidation, "buyout dividend and fee percentages must not exceed %d combined, got %d", uint64(PercentageDenominator), p.BuyoutDividendPercentage+p.BuyoutFeePercentage)
	}
	return nil
}

// ValidateUnclaimedPlotPrice bounds the base plot price.
func ValidateUnclaimedPlotPrice(price uint64) error {
	if price == 0 || price > MaxUnclaimedPlotPrice {
		return dErrors.Newf(dErrors.CodeValidation, "unclaimed plot price must be in [1, %d], got %d", uint64(MaxUnclaimedPlotPrice), price)
	}
	return nil
}

// ValidateDividendPercentage bounds claim and buyout dividend percentages.
func ValidateDividendPercentage(pct uint64) error {
	if pct < MinDividendPercentage || pct > MaxDividendPercentage {
		return dErrors.Newf(dErrors.CodeValidation, "dividend percentage must be in [%d, %d], got %d", MinDividendPercentage, MaxDividendPercentage, pct)
	}
	return nil
}

// ValidateBuyoutFeePercentage bounds the buyout fee percentage.
func ValidateBuyoutFeePercentage(pct uint64) error {
	if pct > MaxBuyoutFeePercentage {
		return dErrors.Newf(dErrors.CodeValidation, "buyout fee percentage must be at most %d, got %d", MaxBuyoutFeePercentage, pct)
	}
	return nil
}

// ClaimDividend is the fixed per-neighbor surcharge paid on claim and buyout.
func (p Params) ClaimDividend() uint64 {
	return percentageOf(p.UnclaimedPlotPrice, p.ClaimDividendPercentage)
}

// BuyoutDividendPool is the slice of a buyout price divided among neighbors.
func (p Params) BuyoutDividendPool(price uint64) uint64 {
	return percentageOf(price, p.BuyoutDividendPercentage)
}

// BuyoutFee is the slice of a buyout price retained by the protocol treasury.
func (p Params) BuyoutFee(price uint64) uint64 {
	return percentageOf(price, p.BuyoutFeePercentage)
}

// percentageOf computes amount x pct / 100000 through a 128-bit intermediate,
// so prices near the escalation ceiling cannot wrap. Requires pct <= 100000,
// which Validate guarantees for every stored percentage.
func percentageOf(amount, pct uint64) uint64 {
	hi, lo := bits.Mul64(amount, pct)
	q, _ := bits.Div64(hi, lo, PercentageDenominator)
	return q
}

// InitialBuyoutPrice is the buyout price assigned at claim when the claimer
// does not choose one.
func (p Params) InitialBuyoutPrice() uint64 {
	return p.UnclaimedPlotPrice * buyoutMultiplierNumerator / buyoutMultiplierDenominator
}

// MinBuyoutPrice and MaxBuyoutPrice bound owner-settable buyout prices.
func (p Params) MinBuyoutPrice() uint64 {
	return p.UnclaimedPlotPrice * MinBuyoutPriceMultiplier
}

func (p Params) MaxBuyoutPrice() uint64 {
	return p.UnclaimedPlotPrice * MaxBuyoutPriceMultiplier
}

// ValidateBuyoutPrice checks an owner-chosen buyout price against the bounds.
func (p Params) ValidateBuyoutPrice(price uint64) error {
	if price < p.MinBuyoutPrice() || price > p.MaxBuyoutPrice() {
		return dErrors.Newf(dErrors.CodeValidation, "buyout price must be in [%d, %d], got %d", p.MinBuyoutPrice(), p.MaxBuyoutPrice(), price)
	}
	return nil
}

// NextBuyoutPrice escalates the buyout price after a successful buyout,
// applying the same multiplier used for the initial price to the total the
// buyer just paid. Strictly increasing for any positive total until the
// escalation ceiling, where the price pins.
func NextBuyoutPrice(totalCost uint64) uint64 {
	if totalCost >= MaxEscalatedBuyoutPrice {
		return MaxEscalatedBuyoutPrice
	}
	next := totalCost * buyoutMultiplierNumerator / buyoutMultiplierDenominator
	if next > MaxEscalatedBuyoutPrice {
		return MaxEscalatedBuyoutPrice
	}
	return next
}
