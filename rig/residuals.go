package rig

import (
	"github.com/golang/geo/r2"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/samcao0416/EpiValid/rimage/transform"
)

// minEstimateMatches is the number of matches the 8 point algorithm needs.
const minEstimateMatches = 8

// Match is a pair of corresponding undistorted pixels, Left in the left camera of a pair and Right in the
// right camera.
type Match struct {
	Left  r2.Point `json:"left"`
	Right r2.Point `json:"right"`
}

// ResidualSummary summarizes symmetric epipolar distances in pixels.
type ResidualSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// ResidualReport tells how well a pair's calibration explains a set of matches. Estimated is the summary
// for a fundamental matrix fit to the matches themselves, a lower bound for what the calibration can reach.
type ResidualReport struct {
	Pair       int              `json:"pair"`
	Count      int              `json:"count"`
	Distances  []float64        `json:"distances"`
	Calibrated ResidualSummary  `json:"calibrated"`
	Estimated  *ResidualSummary `json:"estimated,omitempty"`
}

// Residuals computes the symmetric epipolar distance of every match under the calibrated fundamental
// matrix of the given pair. With at least 8 matches the distances under an 8 point estimate are summarized
// too.
func (r *Rig) Residuals(pairIndex int, matches []Match) (ResidualReport, error) {
	pair, err := r.Pair(pairIndex)
	if err != nil {
		return ResidualReport{}, err
	}
	if len(matches) == 0 {
		return ResidualReport{}, errors.New("no matches given")
	}
	distances, err := epipolarDistances(pair.F, matches)
	if err != nil {
		return ResidualReport{}, errors.Wrapf(err, "pair %d", pairIndex)
	}
	summary, err := summarize(distances)
	if err != nil {
		return ResidualReport{}, err
	}
	report := ResidualReport{
		Pair:       pairIndex,
		Count:      len(matches),
		Distances:  distances,
		Calibrated: summary,
	}

	if len(matches) >= minEstimateMatches {
		left := make([]r2.Point, len(matches))
		right := make([]r2.Point, len(matches))
		for i, m := range matches {
			left[i], right[i] = m.Left, m.Right
		}
		estimated, err := transform.EstimateFundamentalMatrix(left, right, true)
		if err != nil {
			r.logger.Warnw("cannot estimate fundamental matrix from matches", "pair", pairIndex, "error", err)
			return report, nil
		}
		estDistances, err := epipolarDistances(estimated, matches)
		if err != nil {
			r.logger.Warnw("cannot evaluate estimated fundamental matrix", "pair", pairIndex, "error", err)
			return report, nil
		}
		estSummary, err := summarize(estDistances)
		if err != nil {
			return ResidualReport{}, err
		}
		report.Estimated = &estSummary
	}
	r.logger.Debugw("computed residuals", "pair", pairIndex, "matches", len(matches), "mean", summary.Mean)
	return report, nil
}

func epipolarDistances(f mat.Matrix, matches []Match) ([]float64, error) {
	out := make([]float64, 0, len(matches))
	for i, m := range matches {
		d, err := transform.EpipolarDistance(f, m.Left, m.Right)
		if err != nil {
			return nil, errors.Wrapf(err, "match %d", i)
		}
		out = append(out, d)
	}
	return out, nil
}

func summarize(distances []float64) (ResidualSummary, error) {
	data := stats.Float64Data(distances)
	mean, err := data.Mean()
	if err != nil {
		return ResidualSummary{}, err
	}
	median, err := data.Median()
	if err != nil {
		return ResidualSummary{}, err
	}
	p95, err := data.Percentile(95)
	if err != nil {
		return ResidualSummary{}, err
	}
	maxDist, err := data.Max()
	if err != nil {
		return ResidualSummary{}, err
	}
	return ResidualSummary{Mean: mean, Median: median, P95: p95, Max: maxDist}, nil
}
