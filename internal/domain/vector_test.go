package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    Vector
		wantErr bool
	}{
		{"100x200", Vec(100, 200), false},
		{"100x", Vec(100, 0), false},
		{"x100", Vec(0, 100), false},
		{"x", Vector{}, true},
		{"", Vector{}, true},
		{"100", Vector{}, true},
		{"-1x10", Vector{}, true},
		{"10x10x10", Vector{}, true},
		{"axb", Vector{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVectorFit(t *testing.T) {
	size := Vec(320, 200)

	assert.Equal(t, Vec(100, 62.5), size.Fit(Vec(100, 100)))
	assert.Equal(t, Vec(100, 62.5), size.Fit(Vec(100, 0)))
	assert.Equal(t, Vec(160, 100), size.Fit(Vec(0, 100)))
	assert.Equal(t, Vec(640, 400), size.Fit(Vec(1000, 400)))
}

func TestVectorContain(t *testing.T) {
	size := Vec(320, 200)

	assert.Equal(t, Vec(100, 62.5), size.Contain(Vec(100, 62.5)))
	assert.Equal(t, Vec(320, 200), size.Contain(Vec(640, 400)))
	assert.Equal(t, Vec(200, 200), Vec(200, 200).Contain(Vec(500, 500)))
}

func TestVectorArithmetic(t *testing.T) {
	a := Vec(321, 201)

	assert.Equal(t, Vec(160, 100), a.Half())
	assert.Equal(t, Vec(322, 202), a.Add(Vec(1, 1)))
	assert.Equal(t, Vec(320, 200), a.Sub(Vec(1, 1)))
	assert.Equal(t, Vec(642, 402), a.Mul(Vec(2, 2)))
	assert.Equal(t, Vec(3, 1), Vec(3, 0).Max(Vec(1, 1)))
	assert.Equal(t, Vec(320, 1), Vec(400, 0).Clamp(Vec(1, 1), Vec(320, 200)))
	assert.Equal(t, Vec(1, 1), Vec(5, 5).Clamp(Vec(1, 1), Vec(0, 0)))
	assert.Equal(t, Vec(0, 0.5), Vec(0, 1).Div(Vec(0, 2)))
	assert.Equal(t, Vec(3, 2), Vec(2.5, 1.5).Round())
	assert.Equal(t, "100x62.5", Vec(100, 62.5).String())
	assert.True(t, Vector{}.IsZero())
}
