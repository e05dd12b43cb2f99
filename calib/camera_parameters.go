package calib

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters of the pinhole projection of a
// 3D scene to the 2D image plane, plus the sensor resolution in pixels.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid image size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// Tuple returns the ordered intrinsic 4-tuple (fx, fy, cx, cy).
func (params *PinholeCameraIntrinsics) Tuple() [4]float64 {
	return [4]float64{params.Fx, params.Fy, params.Ppx, params.Ppy}
}

// CameraMatrix builds the 3x3 intrinsic camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) CameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// CameraParameters is the canonical calibration snapshot for one monocular
// camera, produced by every supported calibration format. The rectification
// fields are left nil here and filled in by a downstream rectification stage.
type CameraParameters struct {
	Intrinsics     PinholeCameraIntrinsics
	Distortion     Distorter
	FramePeriodSec float64
	BodyPoseCam    *Pose
	Projection     *RadialTangentialProjection

	RectifyRotation  *mat.Dense
	UndistortMapX    *mat.Dense
	UndistortMapY    *mat.Dense
	ProjectionMatrix *mat.Dense
}

// CameraMatrix builds the 3x3 intrinsic matrix from the stored intrinsics. It
// is always derived, so it cannot drift from the intrinsic 4-tuple.
func (cp *CameraParameters) CameraMatrix() *mat.Dense {
	return cp.Intrinsics.CameraMatrix()
}

// CheckValid checks that a parse populated every field the downstream
// pipeline requires.
func (cp *CameraParameters) CheckValid() error {
	if cp == nil {
		return NewNoIntrinsicsError("camera parameters do not exist")
	}
	if err := cp.Intrinsics.CheckValid(); err != nil {
		return err
	}
	if cp.Distortion == nil {
		return InvalidDistortionError("no distortion model")
	}
	if err := cp.Distortion.CheckValid(); err != nil {
		return err
	}
	return nil
}

// rebuildProjection derives the projection model from the current intrinsics
// and the first four distortion coefficients, with zero skew. The third
// radial coefficient, when present, is carried in Distortion but not in the
// projection model.
func (cp *CameraParameters) rebuildProjection() {
	coeffs := cp.Distortion.Parameters()
	cp.Projection = NewRadialTangentialProjection(
		cp.Intrinsics.Fx, cp.Intrinsics.Fy, 0.0,
		cp.Intrinsics.Ppx, cp.Intrinsics.Ppy,
		coeffs[0], coeffs[1], coeffs[2], coeffs[3])
}

// Equals reports whether two calibration snapshots match within tol: each
// intrinsic, the pose, the frame period, the projection model, and every
// derived matrix elementwise, with the image size matched exactly.
func (cp *CameraParameters) Equals(other *CameraParameters, tol float64) bool {
	if cp == nil || other == nil {
		return cp == other
	}
	areIntrinsicsEqual := true
	otherTuple := other.Intrinsics.Tuple()
	for i, v := range cp.Intrinsics.Tuple() {
		if math.Abs(v-otherTuple[i]) > tol {
			areIntrinsicsEqual = false
			break
		}
	}
	return areIntrinsicsEqual &&
		cp.BodyPoseCam.Equals(other.BodyPoseCam, tol) &&
		math.Abs(cp.FramePeriodSec-other.FramePeriodSec) <= tol &&
		cp.Intrinsics.Width == other.Intrinsics.Width &&
		cp.Intrinsics.Height == other.Intrinsics.Height &&
		cp.Projection.Equals(other.Projection, tol) &&
		denseAlmostEqual(cp.CameraMatrix(), other.CameraMatrix(), tol) &&
		distortionAlmostEqual(cp.Distortion, other.Distortion, tol) &&
		denseAlmostEqual(cp.UndistortMapX, other.UndistortMapX, tol) &&
		denseAlmostEqual(cp.UndistortMapY, other.UndistortMapY, tol) &&
		denseAlmostEqual(cp.RectifyRotation, other.RectifyRotation, tol) &&
		denseAlmostEqual(cp.ProjectionMatrix, other.ProjectionMatrix, tol)
}

// distortionAlmostEqual compares the canonical 5-slot coefficient sequences
// elementwise within tol.
func distortionAlmostEqual(a, b Distorter, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	aParams := a.Parameters()
	bParams := b.Parameters()
	if len(aParams) != len(bParams) {
		return false
	}
	for i, v := range aParams {
		if math.Abs(v-bParams[i]) > tol {
			return false
		}
	}
	return true
}

// String renders a human-readable report of every field for diagnostics.
func (cp *CameraParameters) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "------------ CameraParameters -------------\n")
	tuple := cp.Intrinsics.Tuple()
	fmt.Fprintf(&b, "intrinsics (fx fy cx cy): %v %v %v %v\n", tuple[0], tuple[1], tuple[2], tuple[3])
	fmt.Fprintf(&b, "image size: width= %d height= %d\n", cp.Intrinsics.Width, cp.Intrinsics.Height)
	fmt.Fprintf(&b, "frame period (s): %v\n", cp.FramePeriodSec)
	if cp.BodyPoseCam != nil {
		fmt.Fprintf(&b, "body pose cam:\n%v\n", cp.BodyPoseCam)
	}
	if cp.Projection != nil {
		fmt.Fprintf(&b, "projection model: %v\n", cp.Projection)
	}
	fmt.Fprintf(&b, "camera matrix:\n%v\n", mat.Formatted(cp.CameraMatrix(), mat.Prefix("    "), mat.Squeeze()))
	if cp.Distortion != nil {
		fmt.Fprintf(&b, "distortion (%s): %v\n", cp.Distortion.ModelType(), cp.Distortion.Parameters())
	}
	b.WriteString("rectification fields (populated only by the downstream rectification stage):\n")
	writeOptionalMatrix(&b, "rectify rotation", cp.RectifyRotation)
	writeOptionalMatrix(&b, "undistort map x", cp.UndistortMapX)
	writeOptionalMatrix(&b, "undistort map y", cp.UndistortMapY)
	writeOptionalMatrix(&b, "projection matrix P", cp.ProjectionMatrix)
	return b.String()
}

func writeOptionalMatrix(b *strings.Builder, name string, m *mat.Dense) {
	if m == nil {
		fmt.Fprintf(b, "%s: (empty)\n", name)
		return
	}
	rows, cols := m.Dims()
	if rows*cols > 64 {
		fmt.Fprintf(b, "%s: %dx%d (too large to display)\n", name, rows, cols)
		return
	}
	fmt.Fprintf(b, "%s:\n%v\n", name, mat.Formatted(m, mat.Prefix("    "), mat.Squeeze()))
}
