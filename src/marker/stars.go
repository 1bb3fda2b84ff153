package marker

import (
	"math"
	"strings"
)

const (
	maxStars   = 5
	glyphFull  = "★"
	glyphHalf  = "⯨"
	glyphEmpty = "☆"
)

// Stars is the glyph breakdown of a score rounded to the nearest half point.
// Full+Half+Empty is always 5 for a rated score.
type Stars struct {
	Rated bool
	Value float64
	Full  int
	Half  int
	Empty int
}

// StarRating rounds score to the nearest half point (4.24 -> 4.0, 4.25 -> 4.5,
// 4.75 -> 5.0). Absent, NaN or out-of-range scores are unrated.
func StarRating(score *float64) Stars {
	if score == nil || math.IsNaN(*score) || *score < 0 || *score > maxStars {
		return Stars{}
	}
	rounded := math.Round(*score*2) / 2
	full := int(math.Floor(rounded))
	half := 0
	if rounded-float64(full) != 0 {
		half = 1
	}
	return Stars{
		Rated: true,
		Value: rounded,
		Full:  full,
		Half:  half,
		Empty: maxStars - full - half,
	}
}

func (s Stars) Glyphs() string {
	if !s.Rated {
		return ""
	}
	return strings.Repeat(glyphFull, s.Full) + strings.Repeat(glyphHalf, s.Half) + strings.Repeat(glyphEmpty, s.Empty)
}
