package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H-M-Zubair/venon-dashboard-sub002/internal/warehouse"
)

func TestSourceForIsDistinctAndNonEmpty(t *testing.T) {
	models := []Model{
		ModelFirstClick, ModelLastClick, ModelLastPaidClick,
		ModelLinearAll, ModelLinearPaid, ModelAllClicks,
	}

	seen := make(map[warehouse.SourceID]Model)
	for _, m := range models {
		src, err := SourceFor(m)
		require.NoError(t, err, "model %s", m)
		assert.NotEmpty(t, src, "model %s", m)

		prev, dup := seen[src]
		assert.False(t, dup, "models %s and %s share source %s", prev, m, src)
		seen[src] = m
	}
	assert.Len(t, seen, 6)
}

func TestSourceForUnknownModel(t *testing.T) {
	_, err := SourceFor(Model("last_clik"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("linear_paid")
	require.NoError(t, err)
	assert.Equal(t, ModelLinearPaid, m)

	_, err = ParseModel("best_click")
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = ParseModel("")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestEventSourceIsNotAModelSource(t *testing.T) {
	for m, src := range modelSources {
		assert.NotEqual(t, EventSource, src, "model %s routes to the event source", m)
	}
}

func TestParseWindow(t *testing.T) {
	for _, raw := range []string{"1", "7", "14", "28", "30", "90", "lifetime"} {
		w, err := ParseWindow(raw)
		require.NoError(t, err, "window %s", raw)
		assert.Equal(t, Window(raw), w)
	}

	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, WindowLifetime, w)

	_, err = ParseWindow("45")
	assert.ErrorIs(t, err, ErrUnknownWindow)
}
