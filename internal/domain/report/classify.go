// Package report derives the dashboard, compliance and chart aggregates from
// the medication and reminder collections. Every function here is pure.
package report

import "strings"

// Bucket is a medication type.
type Bucket string

const (
	Antibiotics    Bucket = "Antibiotics"
	Painkillers    Bucket = "Painkillers"
	Cardiovascular Bucket = "Cardiovascular"
	Neurological   Bucket = "Neurological"
	Hormonal       Bucket = "Hormonal"
	Cholesterol    Bucket = "Cholesterol"
	Others         Bucket = "Others"
)

// classifier rules are evaluated in order; the first match wins.
var classifier = []struct {
	bucket   Bucket
	keywords []string
}{
	{Antibiotics, []string{"antibiotic"}},
	{Painkillers, []string{"pain", "nsaid"}},
	{Cardiovascular, []string{"cardio", "blood pressure", "heart", "ace inhibitor"}},
	{Neurological, []string{"neuro", "brain"}},
	{Hormonal, []string{"hormon", "diabetes", "biguanide"}},
	{Cholesterol, []string{"cholesterol", "statin"}},
}

// Classify buckets a free-text description by case-insensitive keyword.
func Classify(description string) Bucket {
	d := strings.ToLower(description)
	if d == "" {
		return Others
	}
	for _, rule := range classifier {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return rule.bucket
			}
		}
	}
	return Others
}

var bucketStyle = map[Bucket]struct{ color, emoji string }{
	Painkillers:    {"#FF6B6B", "🩹"},
	Antibiotics:    {"#4ECDC4", "💊"},
	Hormonal:       {"#FF9F1C", "🧬"},
	Cardiovascular: {"#8675A9", "❤️"},
	Neurological:   {"#5D93E1", "🧠"},
	Cholesterol:    {"#45B7D1", "📉"},
	Others:         {"#D3D3D3", "🏥"},
}

// Color is the chart color for the bucket.
func (b Bucket) Color() string {
	if s, ok := bucketStyle[b]; ok {
		return s.color
	}
	return bucketStyle[Others].color
}

// Emoji is the display icon for the bucket.
func (b Bucket) Emoji() string {
	if s, ok := bucketStyle[b]; ok {
		return s.emoji
	}
	return bucketStyle[Others].emoji
}
