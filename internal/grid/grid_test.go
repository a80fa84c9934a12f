package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landgrid/pkg/domain"
	dErrors "landgrid/pkg/domain-errors"
)

func TestNew(t *testing.T) {
	t.Run("accepts supported widths", func(t *testing.T) {
		for _, width := range []uint{1, 16, 17, 31} {
			g, err := New(width)
			require.NoError(t, err)
			assert.Equal(t, width, g.Width())
		}
	})

	t.Run("rejects zero and oversized widths", func(t *testing.T) {
		for _, width := range []uint{0, 32, 64} {
			_, err := New(width)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func TestBijection(t *testing.T) {
	g, err := New(16)
	require.NoError(t, err)

	t.Run("round trips coordinates", func(t *testing.T) {
		coords := []struct{ x, y uint64 }{
			{0, 0},
			{23, 46},
			{65535, 0},
			{0, 65535},
			{65535, 65535},
		}
		for _, c := range coords {
			id, err := g.ToID(c.x, c.y)
			require.NoError(t, err)

			x, y, err := g.ToCoordinate(id)
			require.NoError(t, err)
			assert.Equal(t, c.x, x)
			assert.Equal(t, c.y, y)
		}
	})

	t.Run("round trips identifiers", func(t *testing.T) {
		for _, id := range []domain.PlotID{0, 1, 65536, 3014679, 4294967295} {
			x, y, err := g.ToCoordinate(id)
			require.NoError(t, err)

			back, err := g.ToID(x, y)
			require.NoError(t, err)
			assert.Equal(t, id, back)
		}
	})

	t.Run("matches the y*2^w+x encoding", func(t *testing.T) {
		id, err := g.ToID(23, 46)
		require.NoError(t, err)
		assert.Equal(t, domain.PlotID(3014679), id)
	})

	t.Run("seventeen bit grid", func(t *testing.T) {
		g17, err := New(17)
		require.NoError(t, err)

		id, err := g17.ToID(23, 46)
		require.NoError(t, err)
		assert.Equal(t, domain.PlotID(6029335), id)

		assert.True(t, g17.Contains(17179869183))
		assert.False(t, g17.Contains(17179869184))
	})

	t.Run("rejects out of range inputs", func(t *testing.T) {
		_, err := g.ToID(65536, 0)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOutOfBounds))

		_, _, err = g.ToCoordinate(domain.PlotID(g.Capacity()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOutOfBounds))
	})
}

func TestNeighbors(t *testing.T) {
	g, err := New(16)
	require.NoError(t, err)

	t.Run("interior plot has eight ascending neighbors", func(t *testing.T) {
		id, err := g.ToID(5, 5)
		require.NoError(t, err)

		neighbors, err := g.Neighbors(id)
		require.NoError(t, err)
		require.Len(t, neighbors, 8)

		for i := 1; i < len(neighbors); i++ {
			assert.Less(t, neighbors[i-1], neighbors[i])
		}

		expected := []domain.PlotID{}
		for _, c := range []struct{ x, y uint64 }{
			{4, 4}, {5, 4}, {6, 4},
			{4, 5}, {6, 5},
			{4, 6}, {5, 6}, {6, 6},
		} {
			nid, err := g.ToID(c.x, c.y)
			require.NoError(t, err)
			expected = append(expected, nid)
		}
		assert.Equal(t, expected, neighbors)
	})

	t.Run("origin corner has three neighbors", func(t *testing.T) {
		neighbors, err := g.Neighbors(0)
		require.NoError(t, err)
		assert.Len(t, neighbors, 3)
	})

	t.Run("far corner has three neighbors", func(t *testing.T) {
		id, err := g.ToID(65535, 65535)
		require.NoError(t, err)

		neighbors, err := g.Neighbors(id)
		require.NoError(t, err)
		assert.Len(t, neighbors, 3)
	})

	t.Run("edge plot has five neighbors", func(t *testing.T) {
		id, err := g.ToID(5, 0)
		require.NoError(t, err)

		neighbors, err := g.Neighbors(id)
		require.NoError(t, err)
		assert.Len(t, neighbors, 5)
	})

	t.Run("fails for out of range id", func(t *testing.T) {
		_, err := g.Neighbors(domain.PlotID(g.Capacity()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOutOfBounds))
	})
}

func TestMetadataURI(t *testing.T) {
	t.Run("coordinate style pads to axis width", func(t *testing.T) {
		g, err := New(16)
		require.NoError(t, err)

		uri, err := g.MetadataURI("https://land.example/plot", URIStyleCoordinate, 42)
		require.NoError(t, err)
		assert.Equal(t, "https://land.example/plot/00042/00000", uri)
	})

	t.Run("raw id style pads to capacity width", func(t *testing.T) {
		g, err := New(17)
		require.NoError(t, err)

		uri, err := g.MetadataURI("https://land.example/plot", URIStyleRawID, 42)
		require.NoError(t, err)
		assert.Equal(t, "https://land.example/plot/00000000042", uri)
	})

	t.Run("fails for out of range id", func(t *testing.T) {
		g, err := New(16)
		require.NoError(t, err)

		_, err = g.MetadataURI("https://land.example/plot", URIStyleCoordinate, domain.PlotID(g.Capacity()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOutOfBounds))
	})
}
