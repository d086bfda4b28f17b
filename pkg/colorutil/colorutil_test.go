package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
	}{
		{"#fff", color.RGBA{255, 255, 255, 255}},
		{"#0000ff", color.RGBA{0, 0, 255, 255}},
		{"12345680", color.RGBA{0x12, 0x34, 0x56, 0x80}},
	}
	for _, tc := range cases {
		got, err := ParseHex(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseHex("#12")
	assert.Error(t, err)
}

func TestNormalizeHex(t *testing.T) {
	got, err := NormalizeHex("#ABC")
	require.NoError(t, err)
	assert.Equal(t, "#aabbcc", got)
}

func TestChannelDistance(t *testing.T) {
	assert.Equal(t, 0, ChannelDistance([]byte{10, 20, 30, 255}, []byte{10, 20, 30, 0}))
	assert.Equal(t, 25, ChannelDistance([]byte{10, 20, 30}, []byte{0, 45, 30}))
	assert.Equal(t, 5, ChannelDistance([]byte{5}, []byte{0, 100}))
}
