// Package main provides calibinfo, a diagnostic tool that parses a camera
// calibration file and prints the resulting canonical parameter model.
package main

import (
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/openvio/camcalib/calib"
)

var app = &cli.App{
	Name:            "calibinfo",
	Usage:           "parse a camera calibration file and dump the canonical model",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "euroc",
			Usage:     "parse an EuRoC-style structured sensor file",
			ArgsUsage: "FILE",
			Action:    eurocAction,
		},
		{
			Name:      "kitti",
			Usage:     "parse a KITTI-style text calibration file",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "camera-id",
					Value: "0",
					Usage: "camera identifier selecting which records to read",
				},
				&cli.Float64SliceFlag{
					Name:  "rotation",
					Usage: "camera-to-reference rotation, 9 row-major values (default identity)",
				},
				&cli.Float64SliceFlag{
					Name:  "translation",
					Usage: "camera-to-reference translation, 3 values (default zero)",
				},
			},
			Action: kittiAction,
		},
	},
}

func newLogger(c *cli.Context) golog.Logger {
	if c.Bool("debug") {
		return golog.NewDebugLogger("calibinfo")
	}
	return golog.NewDevelopmentLogger("calibinfo")
}

func calibFileArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("exactly one calibration file argument is required")
	}
	return c.Args().First(), nil
}

func eurocAction(c *cli.Context) error {
	path, err := calibFileArg(c)
	if err != nil {
		return err
	}
	cp, err := calib.ParseEuRoCYAML(path)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, cp)
	return nil
}

func referencePose(c *cli.Context) (*calib.Pose, error) {
	pose := calib.NewZeroPose()
	if rotation := c.Float64Slice("rotation"); len(rotation) != 0 {
		if len(rotation) != 9 {
			return nil, errors.Errorf("rotation needs 9 values, got %d", len(rotation))
		}
		var err error
		pose, err = calib.NewPose(mat.NewDense(3, 3, rotation), pose.Translation)
		if err != nil {
			return nil, err
		}
	}
	if translation := c.Float64Slice("translation"); len(translation) != 0 {
		if len(translation) != 3 {
			return nil, errors.Errorf("translation needs 3 values, got %d", len(translation))
		}
		pose.Translation = r3.Vector{X: translation[0], Y: translation[1], Z: translation[2]}
	}
	return pose, nil
}

func kittiAction(c *cli.Context) error {
	path, err := calibFileArg(c)
	if err != nil {
		return err
	}
	pose, err := referencePose(c)
	if err != nil {
		return err
	}
	cp, err := calib.ParseKITTICalib(path, c.String("camera-id"), pose, newLogger(c))
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, cp)
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
