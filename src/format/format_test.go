package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestScore(t *testing.T) {
	cases := []struct {
		in   *float64
		want string
		ok   bool
	}{
		{f(4.8), "4.8", true},
		{f(4), "4.0", true},
		{f(4.25), "4.3", true},
		{f(0), "0.0", true},
		{nil, "", false},
		{f(math.NaN()), "", false},
	}
	for _, c := range cases {
		got, ok := Score(c.in)
		assert.Equal(t, c.want, got)
		assert.Equal(t, c.ok, ok)
	}
}

func TestLines(t *testing.T) {
	assert.Nil(t, Lines(""))
	assert.Equal(t, []string{"11:00-15:00", "17:00-22:00"}, Lines("11:00-15:00\r\n17:00-22:00"))
	assert.Equal(t, []string{"one"}, Lines("one"))
}
