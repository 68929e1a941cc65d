// Package rig arranges calibrated cameras in a ring and evaluates the epipolar geometry between
// neighbouring cameras.
package rig

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/samcao0416/EpiValid/logging"
	"github.com/samcao0416/EpiValid/rimage/transform"
)

// rankTolerance is the largest ratio of the smallest to the largest singular value of a fundamental
// matrix that is accepted as rank 2 without a warning.
const rankTolerance = 1e-8

// Pair is the fundamental matrix of two neighbouring cameras of the ring. Left is the camera at position
// Index, Right the next one.
type Pair struct {
	Index int
	Left  transform.Camera
	Right transform.Camera
	F     *mat.Dense
}

// Rig is a ring of cameras with the fundamental matrices of every neighbour pair. A built Rig is read only
// and safe for concurrent use.
type Rig struct {
	cameras []transform.Camera
	pairs   []Pair
	logger  logging.Logger
}

// New builds the cameras of the config in ring order and computes the fundamental matrix of each pair
// (i, i+1 mod n) concurrently. A ring of 2 cameras has a single pair.
func New(ctx context.Context, cfg *Config, logger logging.Logger) (*Rig, error) {
	if err := cfg.Validate("rig"); err != nil {
		return nil, err
	}
	ordered := cfg.RingOrder()
	cameras := make([]transform.Camera, 0, len(ordered))
	for i := range ordered {
		cam, err := ordered[i].Camera()
		if err != nil {
			return nil, err
		}
		cameras = append(cameras, cam)
	}

	numPairs := len(cameras)
	if numPairs == 2 {
		numPairs = 1
	}
	pairs := make([]Pair, numPairs)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i := range pairs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			left, right := cameras[i], cameras[(i+1)%len(cameras)]
			f, err := transform.ComputeFundamentalMatrix(left, right)
			if err != nil {
				return errors.Wrapf(err, "pair %d", i)
			}
			checkRank(gctx, logger, i, f)
			pairs[i] = Pair{Index: i, Left: left, Right: right, F: f}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Infow("built rig", "cameras", len(cameras), "pairs", len(pairs), "elapsed", time.Since(start))
	return &Rig{cameras: cameras, pairs: pairs, logger: logger}, nil
}

func checkRank(ctx context.Context, logger logging.Logger, pair int, f *mat.Dense) {
	values, err := transform.SingularValues(f)
	if err != nil || values[0] == 0 {
		logger.Warnw("cannot check rank of fundamental matrix", "pair", pair, "error", err)
		return
	}
	ratio := values[2] / values[0]
	if ratio > rankTolerance {
		logger.Warnw("fundamental matrix is not rank 2", "pair", pair, "singular_ratio", ratio)
		return
	}
	logger.CDebugw(ctx, "computed fundamental matrix", "pair", pair, "singular_values", values)
}

// NumCameras returns the number of cameras in the ring.
func (r *Rig) NumCameras() int {
	return len(r.cameras)
}

// Camera returns the camera at the given ring position.
func (r *Rig) Camera(index int) (transform.Camera, error) {
	if index < 0 || index >= len(r.cameras) {
		return transform.Camera{}, errors.Errorf("camera index %d out of range [0, %d)", index, len(r.cameras))
	}
	return r.cameras[index], nil
}

// IndexOf returns the ring position of the camera with the given id.
func (r *Rig) IndexOf(id string) (int, error) {
	for i, cam := range r.cameras {
		if cam.ID == id {
			return i, nil
		}
	}
	return 0, errors.Errorf("no camera with id %q", id)
}

// NumPairs returns the number of neighbour pairs.
func (r *Rig) NumPairs() int {
	return len(r.pairs)
}

// Pair returns the neighbour pair at the given index. The returned matrix is a copy.
func (r *Rig) Pair(index int) (Pair, error) {
	if index < 0 || index >= len(r.pairs) {
		return Pair{}, errors.Errorf("pair index %d out of range [0, %d)", index, len(r.pairs))
	}
	p := r.pairs[index]
	p.F = mat.DenseCopyOf(p.F)
	return p, nil
}
