package rig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/samcao0416/EpiValid/rimage/transform"
	"github.com/samcao0416/EpiValid/spatialmath"
)

// CameraConfig describes one calibrated camera of a rig.
type CameraConfig struct {
	ID         string                `json:"id"`
	Name       string                `json:"name,omitempty"`
	Resolution transform.Resolution  `json:"resolution"`
	Intrinsics transform.Pinhole     `json:"intrinsics"`
	Distortion []float64             `json:"distortion,omitempty"` // [k1, k2, p1, p2, k3], trailing zeros may be omitted
	Pose       []float64             `json:"pose"`                 // [rx, ry, rz, tx, ty, tz]
	Direction  spatialmath.Direction `json:"direction"`
}

// A Config describes the cameras of a rig and the ring they are arranged in.
type Config struct {
	Cameras []CameraConfig `json:"cameras"`
	// Ring lists camera ids in ring order. Empty means the order of Cameras.
	Ring []string `json:"ring,omitempty"`
	// Workers bounds the number of fundamental matrices computed at once. Zero means no bound.
	Workers int `json:"workers,omitempty"`
}

// ReadConfig reads a rig config from the given file. Environment variables in the file are expanded.
func ReadConfig(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read rig config %q", filePath)
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads and validates a rig config from the given reader. originalPath is only used in errors.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse rig config %q", originalPath)
	}
	if err := cfg.Validate("rig"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures all parts of the config are valid. Every problem found is reported.
func (config *Config) Validate(path string) error {
	var errs error
	if len(config.Cameras) < 2 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("a rig needs at least 2 cameras, got %d", len(config.Cameras))))
	}
	seen := make(map[string]int, len(config.Cameras))
	for idx, conf := range config.Cameras {
		camPath := fmt.Sprintf("%s.%s.%d", path, "cameras", idx)
		errs = multierr.Append(errs, conf.Validate(camPath))
		if conf.ID == "" {
			continue
		}
		if first, ok := seen[conf.ID]; ok {
			errs = multierr.Append(errs, utils.NewConfigValidationError(camPath,
				errors.Errorf("duplicate camera id %q, first used by cameras.%d", conf.ID, first)))
			continue
		}
		seen[conf.ID] = idx
	}

	if len(config.Ring) > 0 {
		ringPath := fmt.Sprintf("%s.%s", path, "ring")
		inRing := make(map[string]bool, len(config.Ring))
		for _, id := range config.Ring {
			if _, ok := seen[id]; !ok {
				errs = multierr.Append(errs, utils.NewConfigValidationError(ringPath,
					errors.Errorf("unknown camera id %q", id)))
			}
			if inRing[id] {
				errs = multierr.Append(errs, utils.NewConfigValidationError(ringPath,
					errors.Errorf("camera id %q appears twice", id)))
			}
			inRing[id] = true
		}
		if len(config.Ring) < 2 {
			errs = multierr.Append(errs, utils.NewConfigValidationError(ringPath,
				errors.Errorf("a ring needs at least 2 cameras, got %d", len(config.Ring))))
		}
	}

	if config.Workers < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("workers must not be negative, got %d", config.Workers)))
	}
	return errs
}

// Validate ensures the camera can be built.
func (config *CameraConfig) Validate(path string) error {
	var errs error
	if config.ID == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "id"))
	}
	if config.Resolution.Width <= 0 || config.Resolution.Height <= 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("invalid resolution (%d, %d)", config.Resolution.Width, config.Resolution.Height)))
	}
	for _, focal := range []struct {
		name  string
		value float64
	}{{"fx", config.Intrinsics.Fx}, {"fy", config.Intrinsics.Fy}} {
		if focal.value == 0 || math.IsNaN(focal.value) || math.IsInf(focal.value, 0) {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("invalid focal length %s = %v", focal.name, focal.value)))
		}
	}
	if _, err := transform.NewBrownConrady(config.Distortion); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
	}
	if _, err := spatialmath.NewSE3VectorFromSlice(config.Pose); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
	}
	if config.Direction != spatialmath.ToLocal && config.Direction != spatialmath.ToWorld {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("unknown pose direction %v", config.Direction)))
	}
	return errs
}

// Camera builds the camera described by the config. A config without distortion coefficients gives a
// sensor without a distortion model.
func (config *CameraConfig) Camera() (transform.Camera, error) {
	var dist *transform.BrownConrady
	if len(config.Distortion) > 0 {
		var err error
		if dist, err = transform.NewBrownConrady(config.Distortion); err != nil {
			return transform.Camera{}, errors.Wrapf(err, "camera %q", config.ID)
		}
	}
	sensor, err := transform.NewSensorWithResolution(config.Resolution, config.Intrinsics, dist)
	if err != nil {
		return transform.Camera{}, errors.Wrapf(err, "camera %q", config.ID)
	}
	vec, err := spatialmath.NewSE3VectorFromSlice(config.Pose)
	if err != nil {
		return transform.Camera{}, errors.Wrapf(err, "camera %q", config.ID)
	}
	cam := transform.NewCamera(config.ID, sensor, spatialmath.NewPose(vec, config.Direction))
	cam.Name = config.Name
	return cam, nil
}

// RingOrder returns the cameras in ring order.
func (config *Config) RingOrder() []CameraConfig {
	if len(config.Ring) == 0 {
		ordered := make([]CameraConfig, len(config.Cameras))
		copy(ordered, config.Cameras)
		return ordered
	}
	byID := lo.KeyBy(config.Cameras, func(c CameraConfig) string { return c.ID })
	return lo.FilterMap(config.Ring, func(id string, _ int) (CameraConfig, bool) {
		c, ok := byID[id]
		return c, ok
	})
}
