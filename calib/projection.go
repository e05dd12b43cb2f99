package calib

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// RadialTangentialProjection maps 3D points in the camera frame to image
// pixels through a pinhole model with four-parameter radial-tangential
// distortion. It is the projection object handed to downstream projection and
// bundle-adjustment stages; skew is always zero for the supported cameras.
type RadialTangentialProjection struct {
	Fx   float64 `json:"fx"`
	Fy   float64 `json:"fy"`
	Skew float64 `json:"skew"`
	Ppx  float64 `json:"ppx"`
	Ppy  float64 `json:"ppy"`
	K1   float64 `json:"k1"`
	K2   float64 `json:"k2"`
	P1   float64 `json:"p1"`
	P2   float64 `json:"p2"`
}

// NewRadialTangentialProjection builds a projection model from its nine
// scalars: focal lengths, skew, principal point, and the first four
// distortion coefficients.
func NewRadialTangentialProjection(fx, fy, skew, ppx, ppy, k1, k2, p1, p2 float64) *RadialTangentialProjection {
	return &RadialTangentialProjection{fx, fy, skew, ppx, ppy, k1, k2, p1, p2}
}

// Project maps a 3D point in the camera frame to pixel coordinates, applying
// the distortion model to the normalized coordinates before the pinhole
// projection. Points at zero depth cannot be projected.
func (c *RadialTangentialProjection) Project(pt r3.Vector) (float64, float64, error) {
	if pt.Z == 0 {
		return 0, 0, errors.New("cannot project point at zero depth")
	}
	x := pt.X / pt.Z
	y := pt.Y / pt.Z
	r2 := x*x + y*y
	radDist := 1.0 + c.K1*r2 + c.K2*r2*r2
	xd := x*radDist + 2.0*c.P1*x*y + c.P2*(r2+2.0*x*x)
	yd := y*radDist + 2.0*c.P2*x*y + c.P1*(r2+2.0*y*y)
	u := c.Fx*xd + c.Skew*yd + c.Ppx
	v := c.Fy*yd + c.Ppy
	return u, v, nil
}

// Parameters returns the nine scalars in construction order.
func (c *RadialTangentialProjection) Parameters() []float64 {
	if c == nil {
		return []float64{}
	}
	return []float64{c.Fx, c.Fy, c.Skew, c.Ppx, c.Ppy, c.K1, c.K2, c.P1, c.P2}
}

// Equals reports whether each scalar of the two projections is within tol.
func (c *RadialTangentialProjection) Equals(other *RadialTangentialProjection, tol float64) bool {
	if c == nil || other == nil {
		return c == other
	}
	params := c.Parameters()
	otherParams := other.Parameters()
	for i, p := range params {
		if math.Abs(p-otherParams[i]) > tol {
			return false
		}
	}
	return true
}

func (c *RadialTangentialProjection) String() string {
	return fmt.Sprintf("fx: %v fy: %v skew: %v ppx: %v ppy: %v k1: %v k2: %v p1: %v p2: %v",
		c.Fx, c.Fy, c.Skew, c.Ppx, c.Ppy, c.K1, c.K2, c.P1, c.P2)
}
