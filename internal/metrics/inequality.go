package metrics

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrLengthMismatch is returned when values and weights differ in length.
	ErrLengthMismatch = errors.New("values and weights must have the same length")
	// ErrNoData is returned when a distribution has no positive total weight.
	ErrNoData = errors.New("distribution has no weighted observations")
)

type weighted struct {
	value  float64
	weight float64
}

// sortedPairs pairs values with weights and sorts by value. When
// positiveOnly is set, observations with non-positive weight are dropped.
func sortedPairs(values, weights []float64, positiveOnly bool) ([]weighted, error) {
	if len(values) != len(weights) {
		return nil, fmt.Errorf("%w: %d values, %d weights", ErrLengthMismatch, len(values), len(weights))
	}
	pairs := make([]weighted, 0, len(values))
	for i := range values {
		if positiveOnly && weights[i] <= 0 {
			continue
		}
		pairs = append(pairs, weighted{value: values[i], weight: weights[i]})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })
	return pairs, nil
}

// WeightedGini computes the Gini coefficient of a weighted distribution using
// the Lerman-Yitzhaki formula with midpoint ranks, which is scale-invariant in
// weights. Observations with non-positive weight are ignored. An empty or
// zero-mean distribution has a Gini of 0.
func WeightedGini(values, weights []float64) (float64, error) {
	pairs, err := sortedPairs(values, weights, true)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	totalW, sumWV := 0.0, 0.0
	for _, p := range pairs {
		totalW += p.weight
		sumWV += p.weight * p.value
	}
	mu := sumWV / totalW
	if mu == 0 {
		return 0, nil
	}

	// Midpoint rank: F_i = (cumw_i - w_i/2) / total_w
	cumW, acc := 0.0, 0.0
	for _, p := range pairs {
		cumW += p.weight
		rank := (cumW - p.weight/2) / totalW
		acc += p.weight * p.value * rank
	}
	return 2*acc/(totalW*mu) - 1, nil
}

// DecileShares splits the weighted population into n equal-weight groups by
// ascending value and returns each group's share of total income. Shares sum
// to 1 when total income is positive; otherwise raw group totals are returned.
func DecileShares(values, weights []float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("group count must be at least 1, got %d", n)
	}
	pairs, err := sortedPairs(values, weights, false)
	if err != nil {
		return nil, err
	}

	cum := make([]float64, len(pairs))
	totalW := 0.0
	for i, p := range pairs {
		totalW += p.weight
		cum[i] = totalW
	}
	if len(pairs) == 0 || totalW <= 0 {
		return nil, ErrNoData
	}

	shares := make([]float64, n)
	for g := 0; g < n; g++ {
		lower := float64(g) / float64(n) * totalW
		upper := float64(g+1) / float64(n) * totalW
		for i, p := range pairs {
			if cum[i] > upper {
				break
			}
			if g == 0 || cum[i] > lower {
				shares[g] += p.value * p.weight
			}
		}
	}

	total := 0.0
	for _, s := range shares {
		total += s
	}
	if total > 0 {
		for i := range shares {
			shares[i] /= total
		}
	}
	return shares, nil
}

// LorenzCurve returns points evenly spaced population fractions x in [0,1]
// and the cumulative income share y at each, interpolated linearly. With no
// positive income the curve is the line of equality.
func LorenzCurve(values, weights []float64, points int) (x, y []float64, err error) {
	if points < 2 {
		return nil, nil, fmt.Errorf("lorenz curve needs at least 2 points, got %d", points)
	}
	pairs, err := sortedPairs(values, weights, false)
	if err != nil {
		return nil, nil, err
	}

	popFracs := make([]float64, len(pairs)+1)
	incomeFracs := make([]float64, len(pairs)+1)
	cumW, cumWV := 0.0, 0.0
	for i, p := range pairs {
		cumW += p.weight
		cumWV += p.weight * p.value
		popFracs[i+1] = cumW
		incomeFracs[i+1] = cumWV
	}
	if len(pairs) == 0 || cumW <= 0 {
		return nil, nil, ErrNoData
	}
	for i := range popFracs {
		popFracs[i] /= cumW
		if cumWV > 0 {
			incomeFracs[i] /= cumWV
		} else {
			incomeFracs[i] = popFracs[i]
		}
	}

	x = make([]float64, points)
	y = make([]float64, points)
	for i := range x {
		x[i] = float64(i) / float64(points-1)
		y[i] = interpolate(x[i], popFracs, incomeFracs)
	}
	return x, y, nil
}

// interpolate evaluates the piecewise-linear function through (xp, fp) at x,
// clamping outside the range. xp must be non-decreasing.
func interpolate(x float64, xp, fp []float64) float64 {
	if x <= xp[0] {
		return fp[0]
	}
	last := len(xp) - 1
	if x >= xp[last] {
		return fp[last]
	}
	j := sort.SearchFloat64s(xp, x)
	if xp[j] == x {
		return fp[j]
	}
	x0, x1 := xp[j-1], xp[j]
	t := (x - x0) / (x1 - x0)
	return fp[j-1] + t*(fp[j]-fp[j-1])
}

// LorenzPoints is the number of evenly spaced points on a summary's Lorenz curve.
const LorenzPoints = 11

// LorenzPoint is the cumulative income share held by the poorest
// Population fraction of a distribution.
type LorenzPoint struct {
	Population float64 `json:"population"`
	Income     float64 `json:"income"`
}

// DistributionSummary collects the inequality figures reported for a distribution.
type DistributionSummary struct {
	Observations  int           `json:"observations"`
	TotalWeight   float64       `json:"total_weight"`
	Mean          float64       `json:"mean"`
	Gini          float64       `json:"gini"`
	DecileShares  []float64     `json:"decile_shares"`
	Top10Share    float64       `json:"top_10_share"`
	Bottom10Share float64       `json:"bottom_10_share"`
	Top20Share    float64       `json:"top_20_share"`
	Bottom20Share float64       `json:"bottom_20_share"`
	Lorenz        []LorenzPoint `json:"lorenz"`
}

// Summarize computes the Gini coefficient, decile shares, top/bottom shares
// and Lorenz curve of a weighted distribution. Observations with
// non-positive weight are dropped before any figure is computed.
func Summarize(values, weights []float64) (DistributionSummary, error) {
	pairs, err := sortedPairs(values, weights, true)
	if err != nil {
		return DistributionSummary{}, err
	}
	if len(pairs) == 0 {
		return DistributionSummary{}, ErrNoData
	}

	vs := make([]float64, len(pairs))
	ws := make([]float64, len(pairs))
	totalW, sumWV := 0.0, 0.0
	for i, p := range pairs {
		vs[i], ws[i] = p.value, p.weight
		totalW += p.weight
		sumWV += p.weight * p.value
	}

	gini, err := WeightedGini(vs, ws)
	if err != nil {
		return DistributionSummary{}, err
	}
	deciles, err := DecileShares(vs, ws, 10)
	if err != nil {
		return DistributionSummary{}, err
	}
	xs, ys, err := LorenzCurve(vs, ws, LorenzPoints)
	if err != nil {
		return DistributionSummary{}, err
	}
	lorenz := make([]LorenzPoint, len(xs))
	for i := range xs {
		lorenz[i] = LorenzPoint{Population: xs[i], Income: ys[i]}
	}

	return DistributionSummary{
		Observations:  len(pairs),
		TotalWeight:   totalW,
		Mean:          sumWV / totalW,
		Gini:          gini,
		DecileShares:  deciles,
		Top10Share:    deciles[9],
		Bottom10Share: deciles[0],
		Top20Share:    deciles[8] + deciles[9],
		Bottom20Share: deciles[0] + deciles[1],
		Lorenz:        lorenz,
	}, nil
}
