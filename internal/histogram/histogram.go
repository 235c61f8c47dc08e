// Package histogram builds equi-populated ("same-size bin") histograms over
// any scalar projection of a slice of observations, and derives the modal
// bin and a congestion-decision threshold from it. It backs both RTT
// characterization and upstream/downstream usage analysis.
package histogram

import (
	"fmt"
	"math"
	"sort"

	"github.com/tix-net/condenser/internal/wire"
)

// Projection extracts a scalar value from an Observation for histogramming.
// RTT, upstream time and downstream time are all expressed this way; the
// latter two close over a clockfix.PhiFunc.
type Projection func(o wire.Observation) float64

// DefaultAlpha is the threshold policy's slope constant, applied when the
// fastest bin is not also the modal one.
const DefaultAlpha = 0.5

// ErrDegenerate is returned when a histogram cannot be built: too few
// observations to form at least two bins, or a bin with zero width.
type ErrDegenerate struct {
	Reason string
}

func (e *ErrDegenerate) Error() string {
	return fmt.Sprintf("histogram: degenerate input: %s", e.Reason)
}

type bin struct {
	items []wire.Observation
	min   float64
	max   float64
}

func (b bin) width() float64 { return b.max - b.min }
func (b bin) mid() float64   { return b.min + b.width()/2 }

// Histogram is an equi-populated histogram over a Projection.
type Histogram struct {
	proj  Projection
	bins  []bin
	total int
}

// Build sorts observations by proj and distributes them into floor(sqrt(n))
// contiguous, equally sized bins (the remainder, if any, goes to the last
// bin). It fails with ErrDegenerate if n < 4 (fewer than 2 bins) or any bin
// has zero width.
func Build(observations []wire.Observation, proj Projection) (*Histogram, error) {
	n := len(observations)
	if n < 4 {
		return nil, &ErrDegenerate{Reason: fmt.Sprintf("need at least 4 observations, got %d", n)}
	}

	sorted := make([]wire.Observation, n)
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool { return proj(sorted[i]) < proj(sorted[j]) })

	binCount := int(math.Floor(math.Sqrt(float64(n))))
	perBin := n / binCount

	bins := make([]bin, 0, binCount)
	index := 0
	for i := 0; i < binCount; i++ {
		end := index + perBin
		items := sorted[index:end]
		bins = append(bins, newBin(items, proj))
		index = end
	}
	if index < n {
		bins[len(bins)-1].items = append(bins[len(bins)-1].items, sorted[index:]...)
		bins[len(bins)-1] = newBin(bins[len(bins)-1].items, proj)
	}

	for i, b := range bins {
		if b.width() == 0 {
			return nil, &ErrDegenerate{Reason: fmt.Sprintf("bin %d has zero width", i)}
		}
	}

	return &Histogram{proj: proj, bins: bins, total: n}, nil
}

func newBin(items []wire.Observation, proj Projection) bin {
	b := bin{items: items, min: math.Inf(1), max: math.Inf(-1)}
	for _, o := range items {
		v := proj(o)
		if v < b.min {
			b.min = v
		}
		if v > b.max {
			b.max = v
		}
	}
	return b
}

// BinCount returns the number of bins (floor(sqrt(n))).
func (h *Histogram) BinCount() int { return len(h.bins) }

// Count returns the total number of observations across all bins.
func (h *Histogram) Count() int { return h.total }

// probabilities returns the probability density of each bin:
// len(bin) / (total * width(bin)).
func (h *Histogram) probabilities() []float64 {
	pr := make([]float64, len(h.bins))
	for i, b := range h.bins {
		pr[i] = float64(len(b.items)) / (float64(h.total) * b.width())
	}
	return pr
}

func (h *Histogram) modeIndex() int {
	pr := h.probabilities()
	modeIdx := 0
	for i := 1; i < len(pr); i++ {
		if pr[i] > pr[modeIdx] {
			modeIdx = i
		}
	}
	return modeIdx
}

// Mode returns the midpoint of the most probable bin.
func (h *Histogram) Mode() float64 {
	return h.bins[h.modeIndex()].mid()
}

// Threshold returns the congestion-decision boundary: if the fastest bin is
// also the modal one, the midpoint of the second bin; otherwise the mode
// plus alpha times the midpoint of the fastest bin.
func (h *Histogram) Threshold() float64 {
	return h.ThresholdWithAlpha(DefaultAlpha)
}

// ThresholdWithAlpha is Threshold with an explicit alpha constant.
func (h *Histogram) ThresholdWithAlpha(alpha float64) float64 {
	modeIdx := h.modeIndex()
	if modeIdx == 0 {
		return h.bins[1].mid()
	}
	return h.Mode() + alpha*h.bins[0].mid()
}
