// Package calib normalizes heterogeneous camera-calibration descriptions
// into one canonical in-memory model for a downstream vision pipeline.
//
// Two source dialects are supported: EuRoC-style structured sensor files
// (ParseEuRoCYAML) and KITTI-style line-oriented text files
// (ParseKITTICalib). Both produce the same CameraParameters entity with a
// pinhole intrinsic model, a radial-tangential distortion model, and a
// body-to-camera pose. Calibration estimation and rectification map
// computation happen elsewhere; this package only ingests already-computed
// calibrations.
package calib
