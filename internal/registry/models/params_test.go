package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landgrid/pkg/domain-errors"
)

func TestPercentageArithmeticAtBounds(t *testing.T) {
	p := Params{
		UnclaimedPlotPrice:       MaxUnclaimedPlotPrice,
		ClaimDividendPercentage:  MaxDividendPercentage,
		BuyoutDividendPercentage: MaxDividendPercentage,
		BuyoutFeePercentage:      0,
	}
	require.NoError(t, p.Validate())

	// A 100% pool of the highest owner-settable price must equal that price,
	// not a wrapped fraction of it.
	maxSettable := uint64(MaxUnclaimedPlotPrice) * MaxBuyoutPriceMultiplier
	assert.Equal(t, maxSettable, p.BuyoutDividendPool(maxSettable))
	assert.Equal(t, uint64(0), p.BuyoutFee(maxSettable))
	assert.Equal(t, uint64(MaxUnclaimedPlotPrice), p.ClaimDividend())

	// Exact even at the escalation ceiling.
	assert.Equal(t, MaxEscalatedBuyoutPrice, p.BuyoutDividendPool(MaxEscalatedBuyoutPrice))

	fees := Params{
		UnclaimedPlotPrice:       MaxUnclaimedPlotPrice,
		ClaimDividendPercentage:  MinDividendPercentage,
		BuyoutDividendPercentage: MinDividendPercentage,
		BuyoutFeePercentage:      MaxBuyoutFeePercentage,
	}
	require.NoError(t, fees.Validate())
	// floor(2^56 * 6000 / 100000); the product alone exceeds uint64.
	assert.Equal(t, uint64(4323455642275676), fees.BuyoutFee(MaxEscalatedBuyoutPrice))
}

func TestNextBuyoutPrice(t *testing.T) {
	assert.Equal(t, uint64(625000), NextBuyoutPrice(250000))
	assert.Equal(t, uint64(2), NextBuyoutPrice(1))

	// Escalation pins at the ceiling instead of wrapping.
	assert.Equal(t, MaxEscalatedBuyoutPrice, NextBuyoutPrice(MaxEscalatedBuyoutPrice-1))
	assert.Equal(t, MaxEscalatedBuyoutPrice, NextBuyoutPrice(MaxEscalatedBuyoutPrice))
	assert.Equal(t, MaxEscalatedBuyoutPrice, NextBuyoutPrice(math.MaxUint64))
}

func TestValidateCombinedBuyoutTake(t *testing.T) {
	p := Params{
		UnclaimedPlotPrice:       100000,
		ClaimDividendPercentage:  3500,
		BuyoutDividendPercentage: MaxDividendPercentage,
		BuyoutFeePercentage:      1,
	}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	p.BuyoutFeePercentage = 0
	require.NoError(t, p.Validate())
}
