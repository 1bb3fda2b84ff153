package format

import (
	"math"
	"strconv"
	"strings"
)

// Score formats a 0.0-5.0 score with one decimal, rounding halves up.
// The bool is false when the score is absent or not a number.
func Score(v *float64) (string, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return "", false
	}
	return strconv.FormatFloat(math.Round(*v*10)/10, 'f', 1, 64), true
}

// Lines splits free text on line breaks so templates can join them with <br>.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
