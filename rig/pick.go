package rig

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/samcao0416/EpiValid/rimage/transform"
)

// Relation tells where a neighbour sits in the ring relative to the picked camera.
type Relation string

const (
	// Next is the camera after the picked one in ring order.
	Next Relation = "next"
	// Previous is the camera before the picked one in ring order.
	Previous Relation = "previous"
)

// NeighborLine is the epipolar line of a pick in one neighbouring camera.
type NeighborLine struct {
	Relation Relation       `json:"relation"`
	Pair     int            `json:"pair"`
	CameraID string         `json:"camera_id"`
	Line     transform.Line `json:"line"`
	Vertical bool           `json:"vertical"`
	// Start and End clip the line to the image of the neighbour, from X = 0 to X = width, or from the top
	// to the bottom row for a vertical line.
	Start r2.Point `json:"start"`
	End   r2.Point `json:"end"`
}

// PickResult holds the epipolar lines induced by a pixel picked in one camera.
type PickResult struct {
	CameraID string         `json:"camera_id"`
	Point    r2.Point       `json:"point"`
	Lines    []NeighborLine `json:"lines"`
}

// Pick returns the epipolar lines of a pixel of the undistorted image of the camera at ring position index:
// in the next camera through pair index (the camera is the left image) and in the previous camera through
// pair index-1 (the camera is the right image). A 2 camera rig gives a single line.
func (r *Rig) Pick(index int, pt r2.Point) (PickResult, error) {
	cam, err := r.Camera(index)
	if err != nil {
		return PickResult{}, err
	}
	n := len(r.cameras)
	result := PickResult{CameraID: cam.ID, Point: pt}

	type lookup struct {
		relation Relation
		pair     int
		source   transform.Side
	}
	var lookups []lookup
	if n == 2 {
		if index == 0 {
			lookups = append(lookups, lookup{Next, 0, transform.LeftImage})
		} else {
			lookups = append(lookups, lookup{Previous, 0, transform.RightImage})
		}
	} else {
		lookups = append(lookups,
			lookup{Next, index, transform.LeftImage},
			lookup{Previous, (index - 1 + n) % n, transform.RightImage},
		)
	}

	for _, l := range lookups {
		nl, err := r.neighborLine(pt, l.relation, l.pair, l.source)
		if err != nil {
			return PickResult{}, errors.Wrapf(err, "pick in camera %q", cam.ID)
		}
		result.Lines = append(result.Lines, nl)
	}
	return result, nil
}

// PickRaw is Pick for a pixel of the raw, distorted image. The pixel is undistorted first.
func (r *Rig) PickRaw(index int, pt r2.Point) (PickResult, error) {
	cam, err := r.Camera(index)
	if err != nil {
		return PickResult{}, err
	}
	undistorted, err := cam.Sensor.UndistortPixel(pt)
	if err != nil {
		return PickResult{}, errors.Wrapf(err, "pick in camera %q", cam.ID)
	}
	return r.Pick(index, undistorted)
}

func (r *Rig) neighborLine(pt r2.Point, relation Relation, pairIndex int, source transform.Side) (NeighborLine, error) {
	pair := r.pairs[pairIndex]
	target := pair.Right
	if source == transform.RightImage {
		target = pair.Left
	}
	line, err := transform.EpilinesFromPoint(pt, source, pair.F)
	vertical := errors.Is(err, transform.ErrVerticalLine)
	if err != nil && !vertical {
		return NeighborLine{}, err
	}
	res, _ := target.Sensor.Resolution()
	start, end, err := line.Segment(res.Width, res.Height)
	if err != nil {
		return NeighborLine{}, err
	}
	if vertical {
		r.logger.Debugw("vertical epipolar line", "pair", pairIndex, "camera", target.ID)
	}
	return NeighborLine{
		Relation: relation,
		Pair:     pairIndex,
		CameraID: target.ID,
		Line:     line,
		Vertical: vertical,
		Start:    start,
		End:      end,
	}, nil
}
