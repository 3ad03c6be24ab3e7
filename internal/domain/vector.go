package domain

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var ErrInvalidSize = errors.New("invalid size")

var sizePattern = regexp.MustCompile(`^(\d*)x(\d*)$`)

// Vector is a 2D value used for sizes, offsets and gravity points.
type Vector struct {
	X float64
	Y float64
}

func Vec(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

// ParseSize parses "WxH", "Wx" or "xH". A missing side is returned as 0,
// which means unconstrained.
func ParseSize(s string) (Vector, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return Vector{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	var v Vector
	if m[1] != "" {
		x, err := strconv.Atoi(m[1])
		if err != nil {
			return Vector{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		v.X = float64(x)
	}
	if m[2] != "" {
		y, err := strconv.Atoi(m[2])
		if err != nil {
			return Vector{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		v.Y = float64(y)
	}
	return v, nil
}

func (v Vector) Add(o Vector) Vector { return Vector{v.X + o.X, v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector { return Vector{v.X - o.X, v.Y - o.Y} }
func (v Vector) Mul(o Vector) Vector { return Vector{v.X * o.X, v.Y * o.Y} }
func (v Vector) Max(o Vector) Vector { return Vector{math.Max(v.X, o.X), math.Max(v.Y, o.Y)} }
func (v Vector) Scale(f float64) Vector {
	return Vector{v.X * f, v.Y * f}
}

// Div divides component-wise. Division by a zero component yields 0.
func (v Vector) Div(o Vector) Vector {
	var out Vector
	if o.X != 0 {
		out.X = v.X / o.X
	}
	if o.Y != 0 {
		out.Y = v.Y / o.Y
	}
	return out
}

func (v Vector) Floor() Vector { return Vector{math.Floor(v.X), math.Floor(v.Y)} }
func (v Vector) Round() Vector { return Vector{math.Round(v.X), math.Round(v.Y)} }

// Half returns floor(v/2) on each axis.
func (v Vector) Half() Vector {
	return v.Scale(0.5).Floor()
}

// Clamp limits each component to [lo, hi]. lo wins when they conflict.
func (v Vector) Clamp(lo, hi Vector) Vector {
	return Vector{math.Min(v.X, hi.X), math.Min(v.Y, hi.Y)}.Max(lo)
}

func (v Vector) Equal(o Vector) bool {
	return v.X == o.X && v.Y == o.Y
}

func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Fit scales v uniformly so that it fits inside o. A zero component of o
// leaves that axis unconstrained.
func (v Vector) Fit(o Vector) Vector {
	scale := o.Div(v)
	if scale.Y == 0 || (scale.X > 0 && scale.X < scale.Y) {
		return v.Scale(scale.X)
	}
	return v.Scale(scale.Y)
}

// Contain returns o, shrunk to fit inside v if it exceeds v on either axis.
func (v Vector) Contain(o Vector) Vector {
	if o.X > v.X || o.Y > v.Y {
		return o.Fit(v)
	}
	return o
}

// Ints returns the components truncated to integers.
func (v Vector) Ints() (int, int) {
	return int(v.X), int(v.Y)
}

// String formats the vector as "WxH".
func (v Vector) String() string {
	return formatFloat(v.X) + "x" + formatFloat(v.Y)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
