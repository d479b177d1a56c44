package date

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
	// tests also checks that the property remain true
	assert.Equal(t, d1.time(), d2.time())
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2025-07-01", want: New(2025, 7, 1)},
		{in: "2025-7-1", want: New(2025, 7, 1)},
		{in: "2025/07/01", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewNormalizes(t *testing.T) {
	assert.Equal(t, New(2025, 3, 1), New(2025, 2, 29))
	assert.Equal(t, New(2024, 12, 31), New(2025, 1, 1).Add(-1))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Hour())
	assert.Equal(t, 5, c.Minute())
	assert.Equal(t, "09:05", c.String())

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

func TestStampOrdering(t *testing.T) {
	early := MustParseStamp("2025-01-10 09:00")
	late := MustParseStamp("2025-01-10 17:30")
	next := MustParseStamp("2025-01-11 00:00")

	assert.True(t, early.Before(late))
	assert.True(t, late.Before(next))
	assert.True(t, next.After(early))
	assert.Equal(t, 0, early.Compare(MustParseStamp("2025-1-10 9:00")))
}

func TestParseStampWithoutClock(t *testing.T) {
	s, err := ParseStamp("2025-02-03")
	require.NoError(t, err)
	assert.Equal(t, At(New(2025, 2, 3), 0), s)
}

func TestStampJSON(t *testing.T) {
	s := StampOf(time.Date(2025, 4, 5, 13, 45, 59, 0, time.UTC))
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-04-05 13:45"`, string(b))

	var got Stamp
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, s, got)
}

func TestRange(t *testing.T) {
	r, err := ParseRange("2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.True(t, r.Contains(New(2025, 1, 1)))
	assert.True(t, r.Contains(New(2025, 1, 31)))
	assert.False(t, r.Contains(New(2025, 2, 1)))

	open, err := ParseRange("", "")
	require.NoError(t, err)
	assert.True(t, open.IsOpen())
	assert.True(t, open.Contains(New(1999, 1, 1)))

	_, err = ParseRange("2025-02-01", "2025-01-01")
	assert.Error(t, err)
}
