package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorClock(t *testing.T) {
	at := time.Date(2012, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewAnchorClock(at)
	assert.Equal(t, at, c.Now())
	assert.Equal(t, at, c.Now())

	assert.False(t, NewAnchorClock(time.Time{}).Now().IsZero())
}

func TestFakeClock(t *testing.T) {
	at := time.Date(2012, 6, 1, 12, 0, 0, 0, time.UTC)
	c := &FakeClock{NowFn: func() time.Time { return at }}
	assert.Equal(t, at, c.Now())
}

func TestParseTime(t *testing.T) {
	base := time.Date(2012, 6, 1, 12, 0, 0, 0, time.UTC) // a Friday

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty is base", input: "", want: base},
		{name: "now is base", input: "NOW", want: base},
		{name: "rfc3339", input: "2012-07-01T09:00:00Z", want: time.Date(2012, 7, 1, 9, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "zzz qqq", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input, base)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnparseable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("natural language resolves after base", func(t *testing.T) {
		got, err := ParseTime("tomorrow", base)
		require.NoError(t, err)
		assert.True(t, got.After(base))
	})
}
