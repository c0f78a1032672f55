package report

import (
	"fmt"
	"math"
)

// minVisible is the smallest visual share a slice is drawn with.
const minVisible = 0.5

// ChartSlice is one pie segment. Percentage is the normalised share; the
// angles use the share floored to minVisible.
type ChartSlice struct {
	Name       Bucket  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
	LargeArc   bool    `json:"large_arc"`
	Label      string  `json:"label,omitempty"`
	Color      string  `json:"color"`
	Emoji      string  `json:"emoji"`
}

// ChartSlices lays out the type breakdown as pie segments. Slices are labelled
// with their rounded percentage when they cover at least 5%.
func ChartSlices(types []TypeSlice) []ChartSlice {
	out := []ChartSlice{}
	total, count := 0.0, 0
	for _, t := range types {
		total += t.Percentage
		count += t.Count
	}
	if len(types) == 0 || count == 0 {
		return out
	}
	if total == 0 {
		total = 1
	}

	angle := 0.0
	for _, t := range types {
		p := t.Percentage / total * 100
		visual := math.Max(p, minVisible)
		s := ChartSlice{
			Name:       t.Name,
			Count:      t.Count,
			Percentage: p,
			StartAngle: angle,
			EndAngle:   angle + visual*3.6,
			LargeArc:   visual > 50,
			Color:      t.Color,
			Emoji:      t.Emoji,
		}
		if visual >= 5 {
			s.Label = fmt.Sprintf("%d%%", int(math.Round(visual)))
		}
		angle = s.EndAngle
		out = append(out, s)
	}
	return out
}
