package main

import (
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/samcao0416/EpiValid/logging"
	"github.com/samcao0416/EpiValid/rig"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"
	generalFlagPairs  = "debug-pairs"
	generalFlagLog    = "log-file"
	pickFlagCamera    = "camera"
	pickFlagX         = "x"
	pickFlagY         = "y"
	pickFlagRaw       = "raw"
	flagPair          = "pair"
	residualFlagMatch = "match"
)

func newApp() *cli.App {
	var logger logging.Logger
	var logFile *lumberjack.Logger

	return &cli.App{
		Name:  "epivalid",
		Usage: "validate the calibration of a camera ring with epipolar lines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     generalFlagConfig,
				Aliases:  []string{"c"},
				Usage:    "load the rig from `FILE`",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  generalFlagPairs,
				Usage: "log every computed fundamental matrix, whatever the log level",
			},
			&cli.StringFlag{
				Name:  generalFlagLog,
				Usage: "also write logs to `FILE`, rotated every 10MB",
			},
		},
		Before: func(c *cli.Context) error {
			logger = logging.NewBlankLogger("epivalid")
			logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
			if path := c.String(generalFlagLog); path != "" {
				logFile = &lumberjack.Logger{Filename: path, MaxSize: 10, MaxBackups: 3}
				logger.AddAppender(logging.NewWriterAppender(logFile))
			}
			if c.Bool(generalFlagDebug) {
				logger.SetLevel(logging.DEBUG)
			} else {
				logger.SetLevel(logging.WARN)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logFile != nil {
				utils.UncheckedErrorFunc(logFile.Close)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "intrinsics",
				Usage: "print the camera matrix and distortion of every camera",
				Action: func(c *cli.Context) error {
					r, err := loadRig(c, logger)
					if err != nil {
						return err
					}
					return printIntrinsics(c.App.Writer, r)
				},
			},
			{
				Name:  "fundamental",
				Usage: "print the fundamental matrix of every neighbour pair",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagPair,
						Usage: "only print this pair",
						Value: -1,
					},
				},
				Action: func(c *cli.Context) error {
					r, err := loadRig(c, logger)
					if err != nil {
						return err
					}
					return printFundamental(c.App.Writer, r, c.Int(flagPair))
				},
			},
			{
				Name:  "pick",
				Usage: "print the epipolar lines of a pixel in the neighbouring cameras",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     pickFlagCamera,
						Usage:    "id of the camera the pixel is picked in",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     pickFlagX,
						Usage:    "pixel column",
						Required: true,
					},
					&cli.Float64Flag{
						Name:     pickFlagY,
						Usage:    "pixel row",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  pickFlagRaw,
						Usage: "the pixel is from the raw, distorted image",
					},
				},
				Action: func(c *cli.Context) error {
					r, err := loadRig(c, logger)
					if err != nil {
						return err
					}
					return pickAction(c, r)
				},
			},
			{
				Name:  "residuals",
				Usage: "print the epipolar distances of pixel matches of a pair",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     flagPair,
						Usage:    "index of the pair the matches belong to",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     residualFlagMatch,
						Usage:    "a match as `LX,LY,RX,RY`, can be repeated",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					r, err := loadRig(c, logger)
					if err != nil {
						return err
					}
					matches, err := parseMatches(c.StringSlice(residualFlagMatch))
					if err != nil {
						return err
					}
					report, err := r.Residuals(c.Int(flagPair), matches)
					if err != nil {
						return err
					}
					return printResiduals(c.App.Writer, report)
				},
			},
		},
	}
}

func loadRig(c *cli.Context, logger logging.Logger) (*rig.Rig, error) {
	cfg, err := rig.ReadConfig(c.String(generalFlagConfig))
	if err != nil {
		return nil, err
	}
	ctx := c.Context
	if c.Bool(generalFlagPairs) {
		ctx = logging.EnableDebugMode(ctx, "")
	}
	return rig.New(ctx, cfg, logger.Sublogger("rig"))
}
