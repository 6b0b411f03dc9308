// Package tier maps numeric scores to performance tiers.
//
// All threshold logic lives in Classify. Display colors are derived from
// the tier, never from the score directly, so a label and its color can
// not disagree.
package tier

// Tier is a performance band.
type Tier string

// Performance tiers, best first.
const (
	Green  Tier = "green"
	Orange Tier = "orange"
	Red    Tier = "red"
	Gray   Tier = "gray"
)

// Lower bounds (inclusive) of each band.
const (
	GreenMin  = 85.0
	OrangeMin = 75.0
	RedMin    = 65.0
)

// Classify returns the tier of score. It is total: scores outside [0,100]
// still fall into a band, and NaN lands in Gray.
func Classify(score float64) Tier {
	switch {
	case score >= GreenMin:
		return Green
	case score >= OrangeMin:
		return Orange
	case score >= RedMin:
		return Red
	default:
		return Gray
	}
}

// Color returns the display color for score.
func Color(score float64) string {
	return Classify(score).Color()
}

// Color returns the display color of the tier.
func (t Tier) Color() string {
	switch t {
	case Green, Orange, Red:
		return string(t)
	default:
		return string(Gray)
	}
}

// Label returns the human-readable tier name.
func (t Tier) Label() string {
	switch t {
	case Green:
		return "Green"
	case Orange:
		return "Orange"
	case Red:
		return "Red"
	default:
		return "Gray"
	}
}

func (t Tier) String() string { return string(t) }

// Tiers lists every tier from best to worst.
func Tiers() []Tier {
	return []Tier{Green, Orange, Red, Gray}
}

// Distribution counts scores per tier.
type Distribution struct {
	Green  int `json:"green"`
	Orange int `json:"orange"`
	Red    int `json:"red"`
	Gray   int `json:"gray"`
}

// Add classifies score and counts it.
func (d *Distribution) Add(score float64) {
	d.AddN(score, 1)
}

// AddN classifies score and counts it n times. Non-positive n is ignored.
func (d *Distribution) AddN(score float64, n int) {
	if n <= 0 {
		return
	}
	switch Classify(score) {
	case Green:
		d.Green += n
	case Orange:
		d.Orange += n
	case Red:
		d.Red += n
	default:
		d.Gray += n
	}
}

// Merge adds the counts of o into d.
func (d *Distribution) Merge(o Distribution) {
	d.Green += o.Green
	d.Orange += o.Orange
	d.Red += o.Red
	d.Gray += o.Gray
}

// Count returns the count for t.
func (d Distribution) Count(t Tier) int {
	switch t {
	case Green:
		return d.Green
	case Orange:
		return d.Orange
	case Red:
		return d.Red
	default:
		return d.Gray
	}
}

// Total returns the number of classified scores.
func (d Distribution) Total() int {
	return d.Green + d.Orange + d.Red + d.Gray
}

// Map returns the counts keyed by tier name.
func (d Distribution) Map() map[string]int {
	out := make(map[string]int, 4)
	for _, t := range Tiers() {
		out[t.String()] = d.Count(t)
	}
	return out
}
