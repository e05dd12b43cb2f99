package calib

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// kittiFramePeriodSec is the implicit frame period of the KITTI calibration
// format; the capture rate is roughly 10 Hz and is never encoded in the file.
const kittiFramePeriodSec = 1.0 / 10.0

type kittiRecordKind int

const (
	kittiRecordUnknown kittiRecordKind = iota
	kittiRecordSize
	kittiRecordIntrinsics
	kittiRecordDistortion
	kittiRecordRotation
	kittiRecordTranslation
)

func (k kittiRecordKind) String() string {
	switch k {
	case kittiRecordSize:
		return "size"
	case kittiRecordIntrinsics:
		return "intrinsics"
	case kittiRecordDistortion:
		return "distortion"
	case kittiRecordRotation:
		return "rotation"
	case kittiRecordTranslation:
		return "translation"
	default:
		return "unknown"
	}
}

// labelPrefix returns the record label prefix for one camera, e.g. "K_0:".
func (k kittiRecordKind) labelPrefix(camID string) string {
	switch k {
	case kittiRecordSize:
		return "S_" + camID + ":"
	case kittiRecordIntrinsics:
		return "K_" + camID + ":"
	case kittiRecordDistortion:
		return "D_" + camID + ":"
	case kittiRecordRotation:
		return "R_" + camID + ":"
	case kittiRecordTranslation:
		return "T_" + camID + ":"
	default:
		return ""
	}
}

// kittiRecord is one classified line of a KITTI calibration file.
type kittiRecord struct {
	kind   kittiRecordKind
	label  string
	line   int
	values []float64
}

var kittiRequiredKinds = []kittiRecordKind{
	kittiRecordSize,
	kittiRecordIntrinsics,
	kittiRecordDistortion,
	kittiRecordRotation,
	kittiRecordTranslation,
}

// classifyKITTILabel matches a leading label token against the record labels
// of the given camera. Labels of other cameras or other record types are
// unknown and skipped by the consumer.
func classifyKITTILabel(label, camID string) kittiRecordKind {
	for _, kind := range kittiRequiredKinds {
		if label == kind.labelPrefix(camID) {
			return kind
		}
	}
	return kittiRecordUnknown
}

// checkArity validates the numeric field count of a classified record.
// Distortion lines carry five coefficients but a four-coefficient line is
// accepted as the four-parameter variant.
func (rec *kittiRecord) checkArity() error {
	want := 0
	switch rec.kind {
	case kittiRecordSize:
		want = 2
	case kittiRecordIntrinsics, kittiRecordRotation:
		want = 9
	case kittiRecordTranslation:
		want = 3
	case kittiRecordDistortion:
		if len(rec.values) != 4 && len(rec.values) != 5 {
			return errors.Errorf("line %d: record %q expects 4 or 5 numeric fields, got %d",
				rec.line, rec.label, len(rec.values))
		}
		return nil
	default:
		return nil
	}
	if len(rec.values) != want {
		return errors.Errorf("line %d: record %q expects %d numeric fields, got %d",
			rec.line, rec.label, want, len(rec.values))
	}
	return nil
}

// readKITTIRecords scans a calibration stream line by line and produces the
// sequence of classified records for one camera. Blank lines are dropped;
// lines whose label is not one of this camera's records come back as unknown
// with no parsed values, since foreign records may carry non-numeric fields.
func readKITTIRecords(r io.Reader, camID string) ([]kittiRecord, error) {
	var records []kittiRecord
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		rec := kittiRecord{
			kind:  classifyKITTILabel(fields[0], camID),
			label: fields[0],
			line:  lineNum,
		}
		if rec.kind != kittiRecordUnknown {
			rec.values = make([]float64, 0, len(fields)-1)
			for _, field := range fields[1:] {
				value, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d: record %q has non-numeric field %q",
						lineNum, rec.label, field)
				}
				rec.values = append(rec.values, value)
			}
			if err := rec.checkArity(); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error scanning calibration file")
	}
	return records, nil
}

// ParseKITTICalib reads a KITTI-style line-oriented calibration file,
// filtered to the records of camID, into CameraParameters. camToRef is the
// caller-known camera-to-reference-frame transform; the resulting pose keeps
// the legacy composition used by existing calibration pipelines,
// R = R_ref * R_parsed and t = t_ref + t_parsed. The frame period is the
// format's implicit 1/10 s.
func ParseKITTICalib(path, camID string, camToRef *Pose, logger golog.Logger) (*CameraParameters, error) {
	if camToRef == nil {
		return nil, errors.New("camera-to-reference transform cannot be nil")
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening calibration file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	records, err := readKITTIRecords(f, camID)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading calibration file %q", path)
	}

	cp := &CameraParameters{FramePeriodSec: kittiFramePeriodSec}
	rotation := mat.NewDense(3, 3, nil)
	var translation r3.Vector
	seen := map[kittiRecordKind]bool{}
	for _, rec := range records {
		if rec.kind == kittiRecordUnknown {
			continue
		}
		logger.Debugw("calibration record", "label", rec.label, "kind", rec.kind.String())
		switch rec.kind {
		case kittiRecordSize:
			cp.Intrinsics.Width = int(math.Round(rec.values[0]))
			cp.Intrinsics.Height = int(math.Round(rec.values[1]))
		case kittiRecordIntrinsics:
			cp.Intrinsics.Fx = rec.values[0]
			cp.Intrinsics.Fy = rec.values[4]
			cp.Intrinsics.Ppx = rec.values[2]
			cp.Intrinsics.Ppy = rec.values[5]
		case kittiRecordDistortion:
			if len(rec.values) == 5 {
				cp.Distortion, err = NewBrownConrady5(rec.values)
			} else {
				cp.Distortion, err = NewBrownConrady4(rec.values)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "line %d of %q", rec.line, path)
			}
		case kittiRecordRotation:
			rotation = mat.NewDense(3, 3, rec.values)
		case kittiRecordTranslation:
			translation = r3.Vector{X: rec.values[0], Y: rec.values[1], Z: rec.values[2]}
		}
		seen[rec.kind] = true
	}

	var missing error
	for _, kind := range kittiRequiredKinds {
		if !seen[kind] {
			missing = multierr.Append(missing,
				errors.Errorf("no %q record for camera %q", kind.labelPrefix(camID), camID))
		}
	}
	if missing != nil {
		return nil, errors.Wrapf(missing, "incomplete calibration file %q", path)
	}

	composedRotation := mat.NewDense(3, 3, nil)
	composedRotation.Mul(camToRef.Rotation, rotation)
	pose, err := NewPose(composedRotation, camToRef.Translation.Add(translation))
	if err != nil {
		return nil, err
	}
	cp.BodyPoseCam = pose
	cp.rebuildProjection()
	if err := cp.CheckValid(); err != nil {
		return nil, errors.Wrapf(err, "invalid calibration file %q", path)
	}
	return cp, nil
}
