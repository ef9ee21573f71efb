package awarddomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAllocate(t *testing.T) {
	tests := []struct {
		name         string
		allowance    int64
		usedByOthers int64
		amount       int64
		want         bool
	}{
		{"full allowance", 10000, 0, 10000, true},
		{"over allowance", 10000, 0, 11000, false},
		{"exact remainder", 10000, 9000, 1000, true},
		{"remainder plus one", 10000, 9000, 1001, false},
		{"zero", 10000, 0, 0, false},
		{"negative", 10000, 0, -5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAllocate(tt.allowance, tt.usedByOthers, tt.amount))
		})
	}
}

func TestEvenSplit(t *testing.T) {
	share, rem := EvenSplit(10000, 3)
	assert.Equal(t, int64(3333), share)
	assert.Equal(t, int64(1), rem)

	share, rem = EvenSplit(100, 0)
	assert.Zero(t, share)
	assert.Equal(t, int64(100), rem)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusReleased))
	assert.True(t, CanTransition(StatusReleased, StatusFrozen))
	assert.False(t, CanTransition(StatusPending, StatusFrozen))
	assert.False(t, CanTransition(StatusReleased, StatusPending))
	assert.True(t, StatusFrozen.Valid())
	assert.False(t, Status("x").Valid())
}
