package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

const eurocFixture = `%YAML:1.0
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
  data: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
`

const kittiFixture = `S_0: 1242 375
K_0: 721.5 0 609.6 0 721.5 172.8 0 0 1
D_0: -0.37 0.2 0 0 0
R_0: 1 0 0 0 1 0 0 0 1
T_0: 0 0 0
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"calibinfo"}, args...))
	return out.String(), err
}

func TestEurocCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensor.yaml")
	test.That(t, os.WriteFile(path, []byte(eurocFixture), 0o600), test.ShouldBeNil)

	out, err := runApp(t, "euroc", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "intrinsics (fx fy cx cy): 458.6 457.3 367.2 248.4")
}

func TestKittiCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calib.txt")
	test.That(t, os.WriteFile(path, []byte(kittiFixture), 0o600), test.ShouldBeNil)

	out, err := runApp(t, "kitti", "--camera-id", "0", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "width= 1242 height= 375")
}

func TestKittiCommandBadRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calib.txt")
	test.That(t, os.WriteFile(path, []byte(kittiFixture), 0o600), test.ShouldBeNil)

	_, err := runApp(t, "kitti", "--rotation", "1,0,0", path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rotation needs 9 values")
}

func TestMissingFileArg(t *testing.T) {
	_, err := runApp(t, "euroc")
	test.That(t, err, test.ShouldNotBeNil)
}
