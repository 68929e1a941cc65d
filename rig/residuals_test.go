package rig

import (
	"context"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/samcao0416/EpiValid/logging"
)

func projectedMatches(t *testing.T, r *Rig, pairIndex, n int, seed int64) []Match {
	t.Helper()
	pair, err := r.Pair(pairIndex)
	test.That(t, err, test.ShouldBeNil)
	rnd := rand.New(rand.NewSource(seed))
	matches := make([]Match, 0, n)
	for i := 0; i < n; i++ {
		world := r3.Vector{X: rnd.Float64()*3 - 1, Y: rnd.Float64()*2 - 1, Z: 4 + rnd.Float64()*6}
		left, err := pair.Left.Project(world)
		test.That(t, err, test.ShouldBeNil)
		right, err := pair.Right.Project(world)
		test.That(t, err, test.ShouldBeNil)
		matches = append(matches, Match{Left: left, Right: right})
	}
	return matches
}

func TestResiduals(t *testing.T) {
	r, err := New(context.Background(), ringConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	matches := projectedMatches(t, r, 1, 25, 3)
	report, err := r.Residuals(1, matches)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Pair, test.ShouldEqual, 1)
	test.That(t, report.Count, test.ShouldEqual, 25)
	test.That(t, len(report.Distances), test.ShouldEqual, 25)
	test.That(t, report.Calibrated.Max, test.ShouldBeLessThan, 1e-6)
	test.That(t, report.Estimated, test.ShouldNotBeNil)
	test.That(t, report.Estimated.Mean, test.ShouldBeLessThan, 1e-3)

	// a miscalibrated match stands out
	matches[0].Right = matches[0].Right.Add(r2.Point{X: 0, Y: 8})
	report, err = r.Residuals(1, matches)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Distances[0], test.ShouldBeGreaterThan, 1)
	test.That(t, report.Calibrated.Max, test.ShouldEqual, report.Distances[0])
	test.That(t, report.Calibrated.Median, test.ShouldBeLessThan, 1e-6)

	report, err = r.Residuals(1, matches[:5])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Estimated, test.ShouldBeNil)

	_, err = r.Residuals(1, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = r.Residuals(9, matches)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSummarize(t *testing.T) {
	data := make([]float64, 20)
	for i := range data {
		data[i] = float64(20 - i)
	}
	summary, err := summarize(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary, test.ShouldResemble, ResidualSummary{Mean: 10.5, Median: 10.5, P95: 19, Max: 20})

	_, err = summarize(nil)
	test.That(t, err, test.ShouldNotBeNil)
}
