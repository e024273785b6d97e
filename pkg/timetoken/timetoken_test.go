package timetoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		region  int
		want    Timetoken
		wantErr bool
	}{
		{"seventeen digits", "15628652479932717", 4, Timetoken{Region: 4, Value: 15628652479932717}, false},
		{"handshake", "0", 0, Zero, false},
		{"padded", " 100 ", 1, Timetoken{Region: 1, Value: 100}, false},
		{"empty", "", 0, Timetoken{}, true},
		{"not a number", "abc", 0, Timetoken{}, true},
		{"negative region", "10", -1, Timetoken{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value, tt.region)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare(t *testing.T) {
	a := Timetoken{Region: 1, Value: 100}
	b := Timetoken{Region: 1, Value: 105}
	other := Timetoken{Region: 2, Value: 1}

	c, ok := a.Compare(b)
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = b.Compare(a)
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = a.Compare(a)
	assert.True(t, ok)
	assert.Equal(t, 0, c)

	_, ok = a.Compare(other)
	assert.False(t, ok, "tokens from different regions are not comparable")

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, other.Before(b))
}

func TestWireForms(t *testing.T) {
	tt := Timetoken{Region: 12, Value: 15628652479932717}
	assert.Equal(t, "15628652479932717", tt.ValueString())
	assert.Equal(t, "12", tt.RegionString())
	assert.Equal(t, "15628652479932717@12", tt.String())
	assert.True(t, Zero.IsZero())
	assert.False(t, tt.IsZero())
}
