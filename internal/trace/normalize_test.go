package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGoroutines_FirstAppearanceOrder(t *testing.T) {
	events := []Event{
		{Seq: 1, Kind: "post", Goroutine: 9001},
		{Seq: 2, Kind: "post", Goroutine: 37},
		{Seq: 3, Kind: "execute", Goroutine: 9001},
		{Seq: 4, Kind: "execute", Goroutine: 512},
	}

	got := NormalizeGoroutines(events)
	require.Len(t, got, 4)

	assert.Equal(t, uint64(1), got[0].Goroutine)
	assert.Equal(t, uint64(2), got[1].Goroutine)
	assert.Equal(t, uint64(1), got[2].Goroutine, "repeated goroutine keeps its assignment")
	assert.Equal(t, uint64(3), got[3].Goroutine)
}

func TestNormalizeGoroutines_DoesNotMutateInput(t *testing.T) {
	events := []Event{{Seq: 1, Kind: "post", Goroutine: 777}}

	_ = NormalizeGoroutines(events)

	assert.Equal(t, uint64(777), events[0].Goroutine)
}

func TestNormalizeGoroutines_Empty(t *testing.T) {
	assert.Empty(t, NormalizeGoroutines(nil))
}
