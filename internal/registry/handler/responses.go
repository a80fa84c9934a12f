package handler

import (
	"time"

	"landgrid/internal/grid"
	"landgrid/internal/registry/models"
	"landgrid/internal/registry/service"
	"landgrid/pkg/domain"
)

// claimResponse is the HTTP response for POST /plots/claim.
type claimResponse struct {
	PlotIDs       []uint64 `json:"plot_ids"`
	Cost          uint64   `json:"cost"`
	Refund        uint64   `json:"refund"`
	AllowanceUsed uint64   `json:"allowance_used"`
}

func fromClaimResult(result *service.ClaimResult) claimResponse {
	ids := make([]uint64, len(result.IDs))
	for i, id := range result.IDs {
		ids[i] = uint64(id)
	}
	return claimResponse{
		PlotIDs:       ids,
		Cost:          result.Cost,
		Refund:        result.Refund,
		AllowanceUsed: result.AllowanceUsed,
	}
}

// plotResponse is the HTTP response for GET /plots/{plotID}.
type plotResponse struct {
	PlotID           uint64           `json:"plot_id"`
	X                uint64           `json:"x"`
	Y                uint64           `json:"y"`
	Owner            string           `json:"owner"`
	Renter           string           `json:"renter,omitempty"`
	RentedUntil      *time.Time       `json:"rented_until,omitempty"`
	ClaimedAt        time.Time        `json:"claimed_at"`
	BuyoutPrice      uint64           `json:"buyout_price"`
	HasBeenBoughtOut bool             `json:"has_been_bought_out"`
	Metadata         metadataResponse `json:"metadata"`
	URI              string           `json:"uri"`
}

// metadataResponse is the metadata portion of plot responses.
type metadataResponse struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	InfoURL     string `json:"info_url,omitempty"`
}

func fromPlot(g *grid.Grid, p *models.Plot, renter domain.AccountID, rentedUntil time.Time, uri string) plotResponse {
	x, y, _ := g.ToCoordinate(p.ID)
	resp := plotResponse{
		PlotID:           uint64(p.ID),
		X:                x,
		Y:                y,
		Owner:            p.Owner.String(),
		ClaimedAt:        p.CreatedAt,
		BuyoutPrice:      p.BuyoutPrice,
		HasBeenBoughtOut: p.HasBeenBoughtOut,
		Metadata: metadataResponse{
			Name:        p.Metadata.Name,
			Description: p.Metadata.Description,
			ImageURL:    p.Metadata.ImageURL,
			InfoURL:     p.Metadata.InfoURL,
		},
		URI: uri,
	}
	if !renter.IsZero() {
		resp.Renter = renter.String()
		resp.RentedUntil = &rentedUntil
	}
	return resp
}

// buyoutQuoteResponse is the HTTP response for GET /plots/{plotID}/buyout.
type buyoutQuoteResponse struct {
	BuyoutPrice       uint64 `json:"buyout_price"`
	DividendSurcharge uint64 `json:"dividend_surcharge"`
	TotalCost         uint64 `json:"total_cost"`
	Neighbors         int    `json:"neighbors"`
}

func fromBuyoutQuote(q *service.BuyoutQuote) buyoutQuoteResponse {
	return buyoutQuoteResponse{
		BuyoutPrice:       q.BuyoutPrice,
		DividendSurcharge: q.DividendSurcharge,
		TotalCost:         q.TotalCost,
		Neighbors:         q.Neighbors,
	}
}

// buyoutResponse is the HTTP response for POST /plots/{plotID}/buyout.
type buyoutResponse struct {
	Cost           uint64 `json:"cost"`
	Refund         uint64 `json:"refund"`
	SellerProceeds uint64 `json:"seller_proceeds"`
	NewBuyoutPrice uint64 `json:"new_buyout_price"`
}

func fromBuyoutResult(result *service.BuyoutResult) buyoutResponse {
	return buyoutResponse{
		Cost:           result.Cost,
		Refund:         result.Refund,
		SellerProceeds: result.SellerProceeds,
		NewBuyoutPrice: result.NewBuyoutPrice,
	}
}

// paramsResponse is the HTTP response for GET /params and POST /admin/params.
type paramsResponse struct {
	UnclaimedPlotPrice       uint64 `json:"unclaimed_plot_price"`
	ClaimDividendPercentage  uint64 `json:"claim_dividend_percentage"`
	BuyoutDividendPercentage uint64 `json:"buyout_dividend_percentage"`
	BuyoutFeePercentage      uint64 `json:"buyout_fee_percentage"`
}

func fromParams(p models.Params) paramsResponse {
	return paramsResponse{
		UnclaimedPlotPrice:       p.UnclaimedPlotPrice,
		ClaimDividendPercentage:  p.ClaimDividendPercentage,
		BuyoutDividendPercentage: p.BuyoutDividendPercentage,
		BuyoutFeePercentage:      p.BuyoutFeePercentage,
	}
}

// statsResponse is the HTTP response for GET /stats.
type statsResponse struct {
	ClaimedPlots uint64  `json:"claimed_plots"`
	GridCapacity uint64  `json:"grid_capacity"`
	OwnedPlots   *uint64 `json:"owned_plots,omitempty"`
}

// balanceResponse is the HTTP response for GET /balance.
type balanceResponse struct {
	Owed               uint64 `json:"owed"`
	FreeClaimAllowance uint64 `json:"free_claim_allowance"`
}

// withdrawResponse is the HTTP response for withdraw endpoints.
type withdrawResponse struct {
	Amount uint64 `json:"amount"`
}

// treasuryResponse is the HTTP response for GET /admin/treasury.
type treasuryResponse struct {
	ProtocolBalance  uint64 `json:"protocol_balance"`
	OutstandingTotal uint64 `json:"outstanding_total"`
}
