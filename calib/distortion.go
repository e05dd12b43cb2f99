package calib

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

const (
	// FourParamRadialTangentialDistortion is the Brown-Conrady model with two
	// radial and two tangential coefficients (k1, k2, p1, p2).
	FourParamRadialTangentialDistortion = DistortionType("radial_tangential_4")
	// FiveParamRadialTangentialDistortion adds the third radial coefficient k3.
	FiveParamRadialTangentialDistortion = DistortionType("radial_tangential_5")
)

// Distorter applies a lens distortion model to normalized image coordinates.
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
}

// InvalidDistortionError is used when the distortion parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrapf(errors.New("invalid distortion parameters"), msg)
}

// BrownConrady is the radial-tangential lens distortion model. Parameters
// always report the canonical 5-slot sequence (k1, k2, p1, p2, k3); whether
// the source calibration actually supplied k3 is carried by the model type.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
	RadialK3     float64 `json:"rk3"`

	hasThirdRadial bool
}

// NewBrownConrady4 builds the four-parameter variant from (k1, k2, p1, p2).
// The canonical fifth slot is zero.
func NewBrownConrady4(coeffs []float64) (*BrownConrady, error) {
	if len(coeffs) != 4 {
		return nil, errors.Errorf("expected 4 distortion coefficients (k1 k2 p1 p2), got %d", len(coeffs))
	}
	return &BrownConrady{
		RadialK1:     coeffs[0],
		RadialK2:     coeffs[1],
		TangentialP1: coeffs[2],
		TangentialP2: coeffs[3],
	}, nil
}

// NewBrownConrady5 builds the five-parameter variant from (k1, k2, p1, p2, k3).
func NewBrownConrady5(coeffs []float64) (*BrownConrady, error) {
	if len(coeffs) != 5 {
		return nil, errors.Errorf("expected 5 distortion coefficients (k1 k2 p1 p2 k3), got %d", len(coeffs))
	}
	return &BrownConrady{
		RadialK1:       coeffs[0],
		RadialK2:       coeffs[1],
		TangentialP1:   coeffs[2],
		TangentialP2:   coeffs[3],
		RadialK3:       coeffs[4],
		hasThirdRadial: true,
	}, nil
}

// ModelType returns which radial-tangential variant the source supplied.
func (bc *BrownConrady) ModelType() DistortionType {
	if bc != nil && bc.hasThirdRadial {
		return FiveParamRadialTangentialDistortion
	}
	return FourParamRadialTangentialDistortion
}

// CheckValid checks if the fields for BrownConrady have valid inputs.
func (bc *BrownConrady) CheckValid() error {
	if bc == nil {
		return InvalidDistortionError("BrownConrady shaped distortion parameters not provided")
	}
	return nil
}

// Parameters returns the canonical 5-slot coefficient sequence
// (k1, k2, p1, p2, k3).
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{bc.RadialK1, bc.RadialK2, bc.TangentialP1, bc.TangentialP2, bc.RadialK3}
}

// Transform distorts the normalized undistorted point (x, y):
//
//	x_d = x * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p1*x*y + p2*(r² + 2*x²)
//	y_d = y * (1 + k1*r² + k2*r⁴ + k3*r⁶) + 2*p2*x*y + p1*(r² + 2*y²)
func (bc *BrownConrady) Transform(x, y float64) (float64, float64) {
	if bc == nil {
		return x, y
	}
	r2 := x*x + y*y
	r4 := r2 * r2
	r6 := r4 * r2
	radDist := 1.0 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r6
	xd := x*radDist + 2.0*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2.0*x*x)
	yd := y*radDist + 2.0*bc.TangentialP2*x*y + bc.TangentialP1*(r2+2.0*y*y)
	return xd, yd
}
