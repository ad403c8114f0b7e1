package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/skinproxy/internal/config"
	"github.com/unixpickle/skinproxy/internal/logger"
	"github.com/unixpickle/skinproxy/job"
	"github.com/unixpickle/skinproxy/rawmesh"
	"github.com/unixpickle/skinproxy/shapes"
	"github.com/unixpickle/skinproxy/voxel"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	var voxelSize float64
	var smoothing int
	var shape string
	var shapeSize float64
	var shapeDetail int
	var center bool
	var debug bool
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.Float64Var(&voxelSize, "voxel-size", 0, "side length of each voxel")
	flag.IntVar(&smoothing, "smoothing", 0, "vertex smoothing iterations")
	flag.StringVar(&shape, "shape", "",
		"voxelize a primitive instead of an input file ("+strings.Join(shapes.Names, ", ")+")")
	flag.Float64Var(&shapeSize, "shape-size", 1, "radius or side length of the primitive")
	flag.IntVar(&shapeDetail, "shape-detail", shapes.DefaultCells,
		"marching cubes cells or icosphere subdivisions of the primitive")
	flag.BoolVar(&center, "center", false, "move the mesh's bounding box to the origin")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	args := flag.Args()
	if (shape == "" && len(args) != 2) || (shape != "" && len(args) != 1) {
		fmt.Fprintln(os.Stderr, "Usage: voxelize_mesh [flags] <input.stl> <output.stl>")
		fmt.Fprintln(os.Stderr, "       voxelize_mesh [flags] -shape <name> <output.stl>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	outputPath := args[len(args)-1]

	cfg, err := config.LoadWithFlags(configPath, flag.CommandLine, config.Overrides{
		"voxel-size": func(c *config.Config) { c.Voxel.Size = voxelSize },
		"smoothing":  func(c *config.Config) { c.Voxel.Smoothing = smoothing },
		"debug": func(c *config.Config) {
			if debug {
				c.Logging.Level = "debug"
			}
		},
	})
	essentials.Must(err)
	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var input *rawmesh.Mesh
	if shape != "" {
		logger.Log.Info("creating shape", zap.String("shape", shape),
			zap.Float64("size", shapeSize))
		input, err = shapes.Create(shape, shapeSize, shapeDetail)
	} else {
		logger.Log.Info("loading mesh", zap.String("path", args[0]))
		input, err = rawmesh.LoadSTL(args[0])
	}
	essentials.Must(err)

	var transform model3d.Transform
	if center {
		min, max := input.Bounds()
		transform = &model3d.Translate{Offset: min.Mid(max).Scale(-1)}
	}

	v := voxel.NewVoxelizer(input, cfg.Voxel.Size)
	progress := logger.NewProgressReporter()
	if err := job.Run(ctx, v.Voxelize(transform, cfg.Voxel.RecordTriangles),
		progress.Report); err != nil {
		logger.Fatal("interrupted", zap.Error(err))
	}
	progress.Finish()
	logger.Log.Info("voxelized",
		zap.Any("resolution", v.Resolution),
		zap.Int("inside", v.Count(voxel.Inside)),
		zap.Int("boundary", v.Count(voxel.Boundary)),
		zap.Int("outside", v.Count(voxel.Outside)))
	if cfg.Voxel.RecordTriangles {
		var maxTris int
		for i := 0; i < v.Len(); i++ {
			maxTris = max(maxTris, len(v.TrianglesOverlappingVoxel(i)))
		}
		logger.Log.Info("recorded triangles", zap.Int("max_per_voxel", maxTris))
	}

	essentials.Must(v.BoundaryThinning())
	logger.Log.Info("thinned boundary", zap.Int("boundary", v.Count(voxel.Boundary)))

	result, err := v.CreateMesh(cfg.Voxel.Smoothing)
	essentials.Must(err)
	logger.Log.Info("reconstructed mesh",
		zap.Int("vertices", len(result.Vertices)),
		zap.Int("triangles", result.NumTriangles()))

	logger.Log.Info("writing mesh", zap.String("path", outputPath))
	essentials.Must(rawmesh.SaveSTL(outputPath, result))
}
