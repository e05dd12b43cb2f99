package calib

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"
)

// eurocFormatMarker is the mandatory first line of every EuRoC sensor file.
const eurocFormatMarker = "%YAML:1.0"

// ErrFormatMarker is when a structured calibration file does not open with
// the expected format marker and so is not of the expected dialect.
var ErrFormatMarker = errors.Errorf("calibration file does not start with %q", eurocFormatMarker)

// eurocSensorSchema declares the key paths and cardinalities of an EuRoC
// camera sensor file up front; anything that does not fit is a parse error
// rather than an out-of-bounds read later.
type eurocSensorSchema struct {
	SensorType             string         `yaml:"sensor_type"`
	RateHz                 int            `yaml:"rate_hz"`
	Resolution             []int          `yaml:"resolution"`
	CameraModel            string         `yaml:"camera_model"`
	Intrinsics             []float64      `yaml:"intrinsics"`
	DistortionModel        string         `yaml:"distortion_model"`
	DistortionCoefficients []float64      `yaml:"distortion_coefficients"`
	TBS                    eurocTransform `yaml:"T_BS"`
}

// eurocTransform is the flattened row-major body-to-camera transform block.
type eurocTransform struct {
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	Data []float64 `yaml:"data"`
}

func (s *eurocSensorSchema) checkValid() error {
	if len(s.Intrinsics) != 4 {
		return errors.Errorf("expected 4 intrinsics (fx fy cx cy), got %d", len(s.Intrinsics))
	}
	if len(s.DistortionCoefficients) != 4 {
		return errors.Errorf("expected 4 distortion coefficients (k1 k2 p1 p2), got %d",
			len(s.DistortionCoefficients))
	}
	if len(s.Resolution) != 2 {
		return errors.Errorf("expected 2 resolution entries (width height), got %d", len(s.Resolution))
	}
	if s.Resolution[0] <= 0 || s.Resolution[1] <= 0 {
		return errors.Errorf("resolution must be positive, got (%d, %d)", s.Resolution[0], s.Resolution[1])
	}
	if s.RateHz <= 0 {
		return errors.Errorf("rate_hz must be a positive integer, got %d", s.RateHz)
	}
	return nil
}

// ParseEuRoCYAML reads an EuRoC-style structured calibration file into
// CameraParameters. The file must carry the %YAML:1.0 marker as its first
// line; the remainder is decoded against the declared sensor schema. This
// format never supplies a third radial distortion term, so the canonical
// fifth coefficient slot is zero.
func ParseEuRoCYAML(path string) (*CameraParameters, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening calibration file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	reader := bufio.NewReader(f)
	marker, err := reader.ReadString('\n')
	if err != nil {
		return nil, errors.Wrapf(err, "error reading format marker from %q", path)
	}
	if strings.TrimSpace(marker) != eurocFormatMarker {
		return nil, errors.Wrapf(ErrFormatMarker, "file %q", path)
	}

	var schema eurocSensorSchema
	if err := yaml.NewDecoder(reader).Decode(&schema); err != nil {
		return nil, errors.Wrapf(err, "error decoding calibration file %q", path)
	}
	if err := schema.checkValid(); err != nil {
		return nil, errors.Wrapf(err, "invalid calibration file %q", path)
	}

	pose, err := NewPoseFromFlat(schema.TBS.Data, schema.TBS.Rows, schema.TBS.Cols)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid T_BS block in %q", path)
	}
	distortion, err := NewBrownConrady4(schema.DistortionCoefficients)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid distortion block in %q", path)
	}

	cp := &CameraParameters{
		Intrinsics: PinholeCameraIntrinsics{
			Width:  schema.Resolution[0],
			Height: schema.Resolution[1],
			Fx:     schema.Intrinsics[0],
			Fy:     schema.Intrinsics[1],
			Ppx:    schema.Intrinsics[2],
			Ppy:    schema.Intrinsics[3],
		},
		Distortion:     distortion,
		FramePeriodSec: 1.0 / float64(schema.RateHz),
		BodyPoseCam:    pose,
	}
	cp.rebuildProjection()
	if err := cp.CheckValid(); err != nil {
		return nil, errors.Wrapf(err, "invalid calibration file %q", path)
	}
	return cp, nil
}
