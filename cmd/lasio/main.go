package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pointstream/lasio/internal/compare"
	"github.com/pointstream/lasio/pkg/compression"
	"github.com/pointstream/lasio/pkg/filter"
	"github.com/pointstream/lasio/pkg/las"
	"github.com/pointstream/lasio/pkg/logger"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "lasio",
		Short: "lasio - LAS point-cloud file toolkit",
		Long: `lasio reads, writes, filters and compares LAS point-cloud files,
including the lasio compressed point-data container.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lasio v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "filters",
		Short: "List available point filters",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range filter.Names() {
				fmt.Println(name)
			}
		},
	})

	root.AddCommand(newInfoCommand())
	root.AddCommand(newDiffCommand())
	root.AddCommand(newCopyCommand())

	if err := root.Execute(); err != nil {
		logger.Get().Error("command failed", zap.Error(err))
		os.Exit(2)
	}
}

// headerSummary is the JSON shape of `lasio info --json`.
type headerSummary struct {
	Path           string     `json:"path"`
	Version        string     `json:"version"`
	PointFormat    uint8      `json:"point_format"`
	RecordLength   uint16     `json:"point_record_length"`
	NumberOfPoints uint32     `json:"number_of_points"`
	Compressed     bool       `json:"compressed"`
	VLRs           int        `json:"vlrs"`
	Scale          [3]float64 `json:"scale"`
	Offset         [3]float64 `json:"offset"`
	Min            [3]float64 `json:"min"`
	Max            [3]float64 `json:"max"`
}

func newInfoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print the public header block of a point file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := las.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			h := r.Header()
			major, minor := h.Version()
			if asJSON {
				out := headerSummary{
					Path:           args[0],
					Version:        fmt.Sprintf("%d.%d", major, minor),
					PointFormat:    uint8(h.PointFormat),
					RecordLength:   h.PointRecordLength,
					NumberOfPoints: h.NumberOfPoints,
					Compressed:     h.Compressed,
					VLRs:           len(h.VLRs),
					Scale:          [3]float64{h.XScale, h.YScale, h.ZScale},
					Offset:         [3]float64{h.XOffset, h.YOffset, h.ZOffset},
					Min:            [3]float64{h.MinX, h.MinY, h.MinZ},
					Max:            [3]float64{h.MaxX, h.MaxY, h.MaxZ},
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("File:            %s\n", args[0])
			fmt.Printf("Version:         %d.%d\n", major, minor)
			fmt.Printf("Point format:    %d (%d bytes)\n", uint8(h.PointFormat), h.PointRecordLength)
			fmt.Printf("Points:          %d\n", h.NumberOfPoints)
			fmt.Printf("Compressed:      %t\n", h.Compressed)
			fmt.Printf("VLRs:            %d\n", len(h.VLRs))
			fmt.Printf("Scale:           %g %g %g\n", h.XScale, h.YScale, h.ZScale)
			fmt.Printf("Offset:          %g %g %g\n", h.XOffset, h.YOffset, h.ZOffset)
			fmt.Printf("Bounds min:      %g %g %g\n", h.MinX, h.MinY, h.MinZ)
			fmt.Printf("Bounds max:      %g %g %g\n", h.MaxX, h.MaxY, h.MaxZ)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the header as JSON")
	return cmd
}

func newDiffCommand() *cobra.Command {
	var inputs []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "diff [fileA fileB]",
		Short: "Compare point files structurally",
		Long: `Compare point files by reading every header field and every decoded
point. All inputs are compared against the first. Exit code 0 means
identical, 1 means a difference was found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := append(append([]string(nil), inputs...), args...)
			if len(paths) < 2 {
				return fmt.Errorf("need at least two files, got %d", len(paths))
			}

			different := false
			for _, other := range paths[1:] {
				res, err := compare.Files(paths[0], other)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					if err := enc.Encode(res); err != nil {
						return err
					}
				} else {
					printResult(res)
				}
				if !res.Identical {
					different = true
				}
			}
			if different {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "input file (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit results as JSON")
	return cmd
}

func printResult(res *compare.Result) {
	if res.Identical {
		fmt.Printf("%s and %s are identical\n", res.PathA, res.PathB)
		return
	}
	fmt.Printf("%s and %s differ:\n", res.PathA, res.PathB)
	for _, d := range res.Differences {
		fmt.Printf("  %-24s %s != %s\n", d.Field, d.A, d.B)
	}
}

func newCopyCommand() *cobra.Command {
	var keep, drop []string
	var compress string
	var level int

	cmd := &cobra.Command{
		Use:   "copy <src> <dst>",
		Short: "Copy a point file through the filter pipeline",
		Long: `Copy every point from src to dst through the read contract.
Filters are given as name or name=argument, e.g.

  lasio copy in.las ground.las --keep classification=2
  lasio copy in.las thinned.laz --drop last-return --compress zstd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain := filter.NewChain()
			if err := appendFilters(chain, keep, false); err != nil {
				return err
			}
			if err := appendFilters(chain, drop, true); err != nil {
				return err
			}

			src, err := las.Open(args[0], las.WithFilter(chain))
			if err != nil {
				return err
			}
			defer src.Close()

			header := *src.Header()
			var opts []las.WriterOption
			if compress != "" {
				alg, err := compression.ParseAlgorithm(compress)
				if err != nil {
					return err
				}
				opts = append(opts, las.WithCompression(&compression.Config{
					Algorithm: alg,
					Level:     compression.Level(level),
				}))
			}

			dst, err := las.Create(args[1], &header, opts...)
			if err != nil {
				return err
			}

			for src.ReadNext() {
				if err := dst.WritePoint(src.Point()); err != nil {
					_ = dst.Close()
					return err
				}
			}
			if err := src.Err(); err != nil {
				_ = dst.Close()
				return err
			}
			if err := dst.Close(); err != nil {
				return err
			}

			logger.Get().Info("copy complete",
				zap.String("src", args[0]),
				zap.String("dst", args[1]),
				zap.Uint32("points", dst.Count()))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&keep, "keep", nil, "inclusion filter, name[=arg] (repeatable)")
	cmd.Flags().StringArrayVar(&drop, "drop", nil, "exclusion filter, name[=arg] (repeatable)")
	cmd.Flags().StringVar(&compress, "compress", "", "compress dst with this algorithm (lz4, zstd, snappy, s2, none)")
	cmd.Flags().IntVar(&level, "level", int(compression.Default), "compression level (1=fastest, 9=best)")
	return cmd
}

func appendFilters(chain *filter.Chain, specs []string, exclude bool) error {
	for _, spec := range specs {
		name, arg := spec, ""
		if i := strings.IndexByte(spec, '='); i >= 0 {
			name, arg = spec[:i], spec[i+1:]
		}
		f, err := filter.New(name, arg, exclude)
		if err != nil {
			return err
		}
		chain.Append(f)
	}
	return nil
}
