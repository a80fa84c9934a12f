package grid

import (
	"fmt"
	"strconv"

	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

// URIStyle selects how a plot identifier is rendered into a metadata URI path.
type URIStyle int

const (
	// URIStyleCoordinate renders two zero-padded decimal segments, x then y,
	// each sized to the axis maximum (5 digits on a 16-bit grid).
	URIStyleCoordinate URIStyle = iota

	// URIStyleRawID renders a single zero-padded decimal segment sized to the
	// identifier maximum (11 digits on a 17-bit grid).
	URIStyleRawID
)

// MetadataURI formats the canonical metadata URI for a plot under base.
func (g *Grid) MetadataURI(base string, style URIStyle, id domain.PlotID) (string, error) {
	x, y, err := g.ToCoordinate(id)
	if err != nil {
		return "", err
	}

	switch style {
	case URIStyleCoordinate:
		width := decimalWidth(g.AxisSize() - 1)
		return fmt.Sprintf("%s/%0*d/%0*d", base, width, x, width, y), nil
	case URIStyleRawID:
		width := decimalWidth(g.Capacity() - 1)
		return fmt.Sprintf("%s/%0*d", base, width, uint64(id)), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown uri style %d", style)
	}
}

func decimalWidth(max uint64) int {
	return len(strconv.FormatUint(max, 10))
}
