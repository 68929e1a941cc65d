package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/samcao0416/EpiValid/rig"
	"github.com/samcao0416/EpiValid/rimage/transform"
)

func printIntrinsics(w io.Writer, r *rig.Rig) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "ID", "Name", "Resolution", "K", "Distortion [k1 k2 p1 p2 k3]"})
	for i := 0; i < r.NumCameras(); i++ {
		cam, err := r.Camera(i)
		if err != nil {
			return err
		}
		k, err := cam.Sensor.GetIntrinsicMatrix()
		if err != nil {
			return errors.Wrapf(err, "camera %q", cam.ID)
		}
		res, _ := cam.Sensor.Resolution()
		dist := "none"
		if coeffs, ok := cam.Sensor.DistortionCoefficients(); ok {
			dist = fmt.Sprintf("%v", coeffs)
		}
		t.AppendRow(table.Row{i, cam.ID, cam.Name, fmt.Sprintf("%dx%d", res.Width, res.Height), formatMatrix(k), dist})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printFundamental(w io.Writer, r *rig.Rig, only int) error {
	if only >= r.NumPairs() {
		return errors.Errorf("pair index %d out of range [0, %d)", only, r.NumPairs())
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Pair", "Left", "Right", "Baseline", "F"})
	for i := 0; i < r.NumPairs(); i++ {
		if only >= 0 && i != only {
			continue
		}
		pair, err := r.Pair(i)
		if err != nil {
			return err
		}
		baseline := transform.RelativePose(pair.Left.Pose, pair.Right.Pose).Baseline()
		t.AppendRow(table.Row{i, pair.Left.ID, pair.Right.ID, fmt.Sprintf("%.4f", baseline), formatMatrix(pair.F)})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func pickAction(c *cli.Context, r *rig.Rig) error {
	index, err := r.IndexOf(c.String(pickFlagCamera))
	if err != nil {
		return err
	}
	pt := r2.Point{X: c.Float64(pickFlagX), Y: c.Float64(pickFlagY)}
	var res rig.PickResult
	if c.Bool(pickFlagRaw) {
		res, err = r.PickRaw(index, pt)
	} else {
		res, err = r.Pick(index, pt)
	}
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(c.App.Writer, "pick (%.2f, %.2f) in camera %q\n",
		res.Point.X, res.Point.Y, res.CameraID); err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Relation", "Camera", "Pair", "A", "B", "C", "Start", "End"})
	for _, l := range res.Lines {
		relation := string(l.Relation)
		if l.Vertical {
			relation = color.YellowString("%s (vertical)", relation)
		}
		t.AppendRow(table.Row{
			relation, l.CameraID, l.Pair,
			fmt.Sprintf("%.6f", l.Line.A), fmt.Sprintf("%.6f", l.Line.B), fmt.Sprintf("%.3f", l.Line.C),
			formatPoint(l.Start), formatPoint(l.End),
		})
	}
	_, err = fmt.Fprintln(c.App.Writer, t.Render())
	return err
}

func printResiduals(w io.Writer, report rig.ResidualReport) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Pair", "Source", "Matches", "Mean", "Median", "P95", "Max"})
	row := func(source string, s rig.ResidualSummary) table.Row {
		return table.Row{
			report.Pair, source, report.Count,
			fmt.Sprintf("%.4f", s.Mean), fmt.Sprintf("%.4f", s.Median),
			fmt.Sprintf("%.4f", s.P95), fmt.Sprintf("%.4f", s.Max),
		}
	}
	t.AppendRow(row("calibration", report.Calibrated))
	if report.Estimated != nil {
		t.AppendRow(row("8-point", *report.Estimated))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// parseMatches reads matches given as groups of four numbers "LX,LY,RX,RY". Values may be split over
// several flag values.
func parseMatches(values []string) ([]rig.Match, error) {
	var nums []float64
	for _, v := range values {
		fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
		for _, f := range fields {
			n, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid match value %q", f)
			}
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 || len(nums)%4 != 0 {
		return nil, errors.Errorf("matches need 4 values each (LX,LY,RX,RY), got %d values", len(nums))
	}
	return lo.Map(lo.Chunk(nums, 4), func(v []float64, _ int) rig.Match {
		return rig.Match{Left: r2.Point{X: v[0], Y: v[1]}, Right: r2.Point{X: v[2], Y: v[3]}}
	}), nil
}

func formatMatrix(m mat.Matrix) string {
	return fmt.Sprintf("%.6g", mat.Formatted(m, mat.Squeeze()))
}

func formatPoint(p r2.Point) string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}
