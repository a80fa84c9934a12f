// Package grid implements the bidirectional mapping between 2D plot
// coordinates and scalar plot identifiers, plus the Moore neighborhood used
// for dividend distribution. The package is pure; all state lives in the
// registry.
package grid

import (
	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

const (
	// DefaultWidth is the per-axis bit width of the standard grid.
	DefaultWidth = 16

	// MaxWidth keeps 2*width within a uint64 identifier.
	MaxWidth = 31
)

// Grid encodes coordinates into identifiers for a square grid with 2^width
// positions per axis. id = y*2^width + x; the mapping is an exact bijection
// over [0, 2^(2*width)).
type Grid struct {
	width uint
}

// New returns a grid for the given per-axis bit width.
func New(width uint) (*Grid, error) {
	if width == 0 || width > MaxWidth {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "grid width must be in [1, %d], got %d", MaxWidth, width)
	}
	return &Grid{width: width}, nil
}

// Width returns the per-axis bit width.
func (g *Grid) Width() uint {
	return g.width
}

// AxisSize returns the number of positions along one axis.
func (g *Grid) AxisSize() uint64 {
	return 1 << g.width
}

// Capacity returns the total number of plot identifiers.
func (g *Grid) Capacity() uint64 {
	return 1 << (2 * g.width)
}

// Contains reports whether id addresses a position on the grid.
func (g *Grid) Contains(id domain.PlotID) bool {
	return uint64(id) < g.Capacity()
}

// ToID maps a coordinate pair to its plot identifier.
func (g *Grid) ToID(x, y uint64) (domain.PlotID, error) {
	if x >= g.AxisSize() || y >= g.AxisSize() {
		return 0, dErrors.Newf(dErrors.CodeOutOfBounds, "coordinate (%d, %d) outside %d-bit grid", x, y, g.width)
	}
	return domain.PlotID(y<<g.width | x), nil
}

// ToCoordinate maps a plot identifier back to its coordinate pair.
func (g *Grid) ToCoordinate(id domain.PlotID) (x, y uint64, err error) {
	if !g.Contains(id) {
		return 0, 0, dErrors.Newf(dErrors.CodeOutOfBounds, "plot id %d exceeds grid capacity %d", id, g.Capacity())
	}
	mask := g.AxisSize() - 1
	return uint64(id) & mask, uint64(id) >> g.width, nil
}

// Neighbors returns the Moore neighborhood of id, clipped at grid edges, in
// ascending identifier order. Corners yield 3 neighbors, edges 5, interior
// positions 8.
func (g *Grid) Neighbors(id domain.PlotID) ([]domain.PlotID, error) {
	x, y, err := g.ToCoordinate(id)
	if err != nil {
		return nil, err
	}

	axis := int64(g.AxisSize())
	out := make([]domain.PlotID, 0, 8)
	for dy := int64(-1); dy <= 1; dy++ {
		for dx := int64(-1); dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := int64(x)+dx, int64(y)+dy
			if nx < 0 || nx >= axis || ny < 0 || ny >= axis {
				continue
			}
			out = append(out, domain.PlotID(uint64(ny)<<g.width|uint64(nx)))
		}
	}
	return out, nil
}
