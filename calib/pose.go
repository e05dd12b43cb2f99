package calib

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Pose is a rigid transform placing a camera in a reference body frame,
// stored as a 3x3 rotation matrix and a translation vector.
type Pose struct {
	Rotation    *mat.Dense
	Translation r3.Vector
}

// NewPose creates a Pose from a 3x3 rotation matrix and a translation vector.
func NewPose(rotation *mat.Dense, translation r3.Vector) (*Pose, error) {
	if rotation == nil {
		return nil, errors.New("rotation matrix cannot be nil")
	}
	if r, c := rotation.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("rotation matrix must be 3x3, got %dx%d", r, c)
	}
	return &Pose{Rotation: rotation, Translation: translation}, nil
}

// NewZeroPose returns a pose with an identity rotation and a zero translation.
func NewZeroPose() *Pose {
	rot := mat.NewDense(3, 3, nil)
	rot.Set(0, 0, 1)
	rot.Set(1, 1, 1)
	rot.Set(2, 2, 1)
	return &Pose{Rotation: rot, Translation: r3.Vector{}}
}

// NewPoseFromFlat reshapes a flattened row-major transform matrix of the given
// dimensions into a Pose. The matrix must have 4 columns and at least 3 rows;
// the top-left 3x3 block is the rotation and the first three entries of the
// last column are the translation.
func NewPoseFromFlat(data []float64, rows, cols int) (*Pose, error) {
	if rows*cols != len(data) {
		return nil, errors.Errorf("transform data has %d entries, expected %dx%d=%d", len(data), rows, cols, rows*cols)
	}
	if cols != 4 || rows < 3 {
		return nil, errors.Errorf("transform matrix must be 3x4 or 4x4, got %dx%d", rows, cols)
	}
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, data[i*cols+j])
		}
	}
	translation := r3.Vector{X: data[3], Y: data[cols+3], Z: data[2*cols+3]}
	return NewPose(rot, translation)
}

// Equals reports whether two poses match, each rotation entry and translation
// component within tol of its counterpart.
func (p *Pose) Equals(other *Pose, tol float64) bool {
	if p == nil || other == nil {
		return p == other
	}
	if !denseAlmostEqual(p.Rotation, other.Rotation, tol) {
		return false
	}
	return math.Abs(p.Translation.X-other.Translation.X) <= tol &&
		math.Abs(p.Translation.Y-other.Translation.Y) <= tol &&
		math.Abs(p.Translation.Z-other.Translation.Z) <= tol
}

func (p *Pose) String() string {
	return fmt.Sprintf("rotation:\n%v\ntranslation: (%v, %v, %v)",
		mat.Formatted(p.Rotation, mat.Prefix("    "), mat.Squeeze()),
		p.Translation.X, p.Translation.Y, p.Translation.Z)
}

// denseAlmostEqual compares two matrices elementwise within tol. Two nil
// matrices are equal; a nil matrix never equals a populated one.
func denseAlmostEqual(a, b *mat.Dense, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			if math.Abs(a.At(i, j)-b.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}
