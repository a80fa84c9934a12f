package handler

import (
	"strings"
	"time"

	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

const (
	maxBatchSize = 100

	maxNameLength        = 128
	maxDescriptionLength = 1024
	maxURLLength         = 512
)

// metadataPayload is the wire shape of plot metadata.
type metadataPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	InfoURL     string `json:"info_url"`
}

func (m *metadataPayload) validate() error {
	if len(m.Name) > maxNameLength {
		return dErrors.Newf(dErrors.CodeValidation, "name must be at most %d characters", maxNameLength)
	}
	if len(m.Description) > maxDescriptionLength {
		return dErrors.Newf(dErrors.CodeValidation, "description must be at most %d characters", maxDescriptionLength)
	}
	for _, u := range []string{m.ImageURL, m.InfoURL} {
		if len(u) > maxURLLength {
			return dErrors.Newf(dErrors.CodeValidation, "urls must be at most %d characters", maxURLLength)
		}
	}
	return nil
}

func (m *metadataPayload) toModel() models.Metadata {
	return models.Metadata{
		Name:        m.Name,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		InfoURL:     m.InfoURL,
	}
}

func parsePlotIDs(raw []uint64) ([]domain.PlotID, error) {
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "plot_ids is required")
	}
	if len(raw) > maxBatchSize {
		return nil, dErrors.Newf(dErrors.CodeValidation, "at most %d plots per request", maxBatchSize)
	}
	ids := make([]domain.PlotID, len(raw))
	for i, id := range raw {
		ids[i] = domain.PlotID(id)
	}
	return ids, nil
}

// claimRequest is the HTTP request body for POST /plots/claim.
type claimRequest struct {
	PlotIDs     []uint64         `json:"plot_ids"`
	Payment     uint64           `json:"payment"`
	BuyoutPrice uint64           `json:"buyout_price"`
	Metadata    *metadataPayload `json:"metadata"`

	parsedIDs      []domain.PlotID
	parsedMetadata *models.Metadata
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *claimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	ids, err := parsePlotIDs(r.PlotIDs)
	if err != nil {
		return err
	}
	r.parsedIDs = ids

	if r.Metadata != nil {
		if err := r.Metadata.validate(); err != nil {
			return err
		}
		meta := r.Metadata.toModel()
		if !meta.IsZero() {
			r.parsedMetadata = &meta
		}
	}
	return nil
}

// transferRequest is the HTTP request body for POST /plots/transfer and
// POST /plots/approve.
type transferRequest struct {
	To      string   `json:"to"`
	PlotIDs []uint64 `json:"plot_ids"`

	parsedTo  domain.AccountID
	parsedIDs []domain.PlotID
}

func (r *transferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.To = strings.TrimSpace(r.To)
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	to, err := domain.ParseAccountID(r.To)
	if err != nil {
		return err
	}
	r.parsedTo = to

	ids, err := parsePlotIDs(r.PlotIDs)
	if err != nil {
		return err
	}
	r.parsedIDs = ids
	return nil
}

// plotIDsRequest is the HTTP request body for POST /plots/take-ownership.
type plotIDsRequest struct {
	PlotIDs []uint64 `json:"plot_ids"`

	parsedIDs []domain.PlotID
}

func (r *plotIDsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	ids, err := parsePlotIDs(r.PlotIDs)
	if err != nil {
		return err
	}
	r.parsedIDs = ids
	return nil
}

// setPlotDataRequest is the HTTP request body for POST /plots/metadata.
type setPlotDataRequest struct {
	PlotIDs  []uint64        `json:"plot_ids"`
	Metadata metadataPayload `json:"metadata"`

	parsedIDs []domain.PlotID
}

func (r *setPlotDataRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	ids, err := parsePlotIDs(r.PlotIDs)
	if err != nil {
		return err
	}
	r.parsedIDs = ids
	return r.Metadata.validate()
}

// rentRequest is the HTTP request body for POST /plots/{plotID}/rent.
type rentRequest struct {
	To              string `json:"to"`
	DurationSeconds int64  `json:"duration_seconds"`

	parsedTo domain.AccountID
}

func (r *rentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.To = strings.TrimSpace(r.To)
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "to is required")
	}
	to, err := domain.ParseAccountID(r.To)
	if err != nil {
		return err
	}
	r.parsedTo = to

	if r.DurationSeconds <= 0 {
		return dErrors.New(dErrors.CodeValidation, "duration_seconds must be positive")
	}
	return nil
}

func (r *rentRequest) duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// buyoutRequest is the HTTP request body for POST /plots/{plotID}/buyout.
type buyoutRequest struct {
	Payment  uint64           `json:"payment"`
	Metadata *metadataPayload `json:"metadata"`

	parsedMetadata *models.Metadata
}

func (r *buyoutRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Metadata != nil {
		if err := r.Metadata.validate(); err != nil {
			return err
		}
		meta := r.Metadata.toModel()
		if !meta.IsZero() {
			r.parsedMetadata = &meta
		}
	}
	return nil
}

// setBuyoutPriceRequest is the HTTP request body for
// POST /plots/{plotID}/buyout-price.
type setBuyoutPriceRequest struct {
	Price uint64 `json:"price"`
}

func (r *setBuyoutPriceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Price == 0 {
		return dErrors.New(dErrors.CodeValidation, "price is required")
	}
	return nil
}

// updateParamsRequest is the HTTP request body for POST /admin/params.
type updateParamsRequest struct {
	UnclaimedPlotPrice       *uint64 `json:"unclaimed_plot_price"`
	ClaimDividendPercentage  *uint64 `json:"claim_dividend_percentage"`
	BuyoutDividendPercentage *uint64 `json:"buyout_dividend_percentage"`
	BuyoutFeePercentage      *uint64 `json:"buyout_fee_percentage"`
}

func (r *updateParamsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.UnclaimedPlotPrice == nil && r.ClaimDividendPercentage == nil &&
		r.BuyoutDividendPercentage == nil && r.BuyoutFeePercentage == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one parameter is required")
	}
	return nil
}

// setAllowanceRequest is the HTTP request body for POST /admin/allowances.
type setAllowanceRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`

	parsedAccount domain.AccountID
}

func (r *setAllowanceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Account = strings.TrimSpace(r.Account)
	if r.Account == "" {
		return dErrors.New(dErrors.CodeValidation, "account is required")
	}
	account, err := domain.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	r.parsedAccount = account
	return nil
}
