package calib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func writeCalibFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

const eurocSensorFixture = `%YAML:1.0
sensor_type: camera
rate_hz: 20
resolution: [752, 480]
camera_model: pinhole
intrinsics: [458.6, 457.3, 367.2, 248.4]
distortion_model: radial-tangential
distortion_coefficients: [-0.28, 0.07, 0.0002, 0.00002]
T_BS:
  rows: 4
  cols: 4
  data: [1.0, 0.0, 0.0, 0.0,
         0.0, 1.0, 0.0, 0.0,
         0.0, 0.0, 1.0, 0.0,
         0.0, 0.0, 0.0, 1.0]
`

func TestParseEuRoCYAML(t *testing.T) {
	path := writeCalibFile(t, "sensor.yaml", eurocSensorFixture)
	cp, err := ParseEuRoCYAML(path)
	test.That(t, err, test.ShouldBeNil)

	t.Run("scenario values", func(t *testing.T) {
		test.That(t, cp.Intrinsics.Tuple(), test.ShouldResemble, [4]float64{458.6, 457.3, 367.2, 248.4})
		test.That(t, cp.Intrinsics.Width, test.ShouldEqual, 752)
		test.That(t, cp.Intrinsics.Height, test.ShouldEqual, 480)
		test.That(t, cp.FramePeriodSec, test.ShouldEqual, 0.05)
	})

	t.Run("camera matrix mirrors intrinsics", func(t *testing.T) {
		m := cp.CameraMatrix()
		test.That(t, m.At(0, 0), test.ShouldEqual, cp.Intrinsics.Fx)
		test.That(t, m.At(1, 1), test.ShouldEqual, cp.Intrinsics.Fy)
		test.That(t, m.At(0, 2), test.ShouldEqual, cp.Intrinsics.Ppx)
		test.That(t, m.At(1, 2), test.ShouldEqual, cp.Intrinsics.Ppy)
		test.That(t, m.At(2, 2), test.ShouldEqual, 1.0)
	})

	t.Run("distortion padded to five slots", func(t *testing.T) {
		coeffs := cp.Distortion.Parameters()
		test.That(t, coeffs, test.ShouldHaveLength, 5)
		test.That(t, coeffs[4], test.ShouldEqual, 0.0)
		test.That(t, cp.Distortion.ModelType(), test.ShouldEqual, FourParamRadialTangentialDistortion)
	})

	t.Run("identity T_BS gives identity pose", func(t *testing.T) {
		test.That(t, cp.BodyPoseCam.Equals(NewZeroPose(), 0), test.ShouldBeTrue)
	})

	t.Run("projection model built from the four coefficients", func(t *testing.T) {
		test.That(t, cp.Projection, test.ShouldNotBeNil)
		test.That(t, cp.Projection.Skew, test.ShouldEqual, 0.0)
		test.That(t, cp.Projection.K1, test.ShouldEqual, -0.28)
		test.That(t, cp.Projection.P2, test.ShouldEqual, 0.00002)
	})
}

func TestParseEuRoCYAMLErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ParseEuRoCYAML(filepath.Join(t.TempDir(), "nope.yaml"))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "error opening")
	})

	t.Run("format marker mismatch", func(t *testing.T) {
		path := writeCalibFile(t, "sensor.yaml", "sensor_type: camera\nrate_hz: 20\n")
		_, err := ParseEuRoCYAML(path)
		test.That(t, errors.Is(err, ErrFormatMarker), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, path)
	})

	t.Run("zero rate_hz rejected", func(t *testing.T) {
		fixture := strings.Replace(eurocSensorFixture, "rate_hz: 20", "rate_hz: 0", 1)
		path := writeCalibFile(t, "sensor.yaml", fixture)
		_, err := ParseEuRoCYAML(path)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "rate_hz")
	})

	t.Run("short intrinsics sequence", func(t *testing.T) {
		fixture := strings.Replace(eurocSensorFixture,
			"intrinsics: [458.6, 457.3, 367.2, 248.4]", "intrinsics: [458.6, 457.3]", 1)
		path := writeCalibFile(t, "sensor.yaml", fixture)
		_, err := ParseEuRoCYAML(path)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected 4 intrinsics")
	})

	t.Run("transform data not matching its dimensions", func(t *testing.T) {
		fixture := strings.Replace(eurocSensorFixture, "rows: 4", "rows: 3", 1)
		path := writeCalibFile(t, "sensor.yaml", fixture)
		_, err := ParseEuRoCYAML(path)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "T_BS")
	})
}
