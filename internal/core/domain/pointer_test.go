package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePointerPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int32
	}{
		{name: "single", input: "10", want: []int32{0x10}},
		{name: "chain", input: "2A1B4C8,10,3C", want: []int32{0x2A1B4C8, 0x10, 0x3C}},
		{name: "prefix and spaces", input: " 0x18 , 0X20,8 ", want: []int32{0x18, 0x20, 0x8}},
		{name: "negative offset", input: "FFFFFFF8", want: []int32{-8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePointerPath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Offsets())
			assert.Equal(t, len(tt.want), p.Len())
		})
	}
}

func TestParsePointerPath_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "10,,20", "zz", "100000000"} {
		_, err := ParsePointerPath(input)
		assert.ErrorIs(t, err, ErrInvalidPointerPath, "input %q", input)
	}
}

func TestPointerPath_Immutable(t *testing.T) {
	src := []int32{1, 2, 3}
	p, err := NewPointerPath(src...)
	require.NoError(t, err)

	src[0] = 99
	got := p.Offsets()
	got[1] = 42

	assert.Equal(t, []int32{1, 2, 3}, p.Offsets())
}

func TestPointerPath_String(t *testing.T) {
	p := MustPointerPath(0x2A1B4C8, 0x10, -8)
	assert.Equal(t, "2A1B4C8,10,FFFFFFF8", p.String())

	back, err := ParsePointerPath(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.Offsets(), back.Offsets())
}

func TestNewPointerPath_Empty(t *testing.T) {
	_, err := NewPointerPath()
	assert.ErrorIs(t, err, ErrInvalidPointerPath)
	assert.True(t, PointerPath{}.IsZero())
}
