package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", false},
		{"0X5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", false},
		{"  0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed ", false},
		{"0x0000000000000000000000000000000000000000", false},
		{"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea", true},
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaedff", true},
		{"0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := ParseAddress(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAddress, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
	}
}

func TestAddressHexChecksum(t *testing.T) {
	// EIP-55 reference vectors
	for _, want := range []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	} {
		a, err := ParseAddress(want)
		require.NoError(t, err)
		assert.Equal(t, want, a.Hex())
	}
}

func TestAddressZero(t *testing.T) {
	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, MustParseAddress("0x0000000000000000000000000000000000000001").IsZero())
}

func TestAddressJSON(t *testing.T) {
	a := MustParseAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	b, err := json.Marshal(struct {
		Owner Address `json:"owner"`
	}{a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"}`, string(b))

	var back struct {
		Owner Address `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, a, back.Owner)
	assert.Error(t, json.Unmarshal([]byte(`{"owner":"nope"}`), &back))
}
