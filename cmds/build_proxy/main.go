package main

import (
	"context"
	"flag"
	"fmt"
	"iter"
	"os"
	"os/signal"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/skinproxy/clustermesh"
	"github.com/unixpickle/skinproxy/internal/config"
	"github.com/unixpickle/skinproxy/internal/logger"
	"github.com/unixpickle/skinproxy/job"
	"github.com/unixpickle/skinproxy/rawmesh"
	"github.com/unixpickle/skinproxy/skinmap"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	var writeConfig string
	var weld float64
	var decimate float64
	var winding float64
	var radius float64
	var maxInfluences int
	var previewPath string
	var debug bool
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&writeConfig, "write-config", "", "save the resolved config to this path")
	flag.Float64Var(&weld, "weld", 0, "distance below which clusters are welded")
	flag.Float64Var(&decimate, "decimate", 0, "maximum edge length to collapse")
	flag.Float64Var(&winding, "winding", 0,
		"dot product below which neighboring triangles are flipped after decimating")
	flag.Float64Var(&radius, "radius", 0, "radius of influence for skinning")
	flag.IntVar(&maxInfluences, "max-influences", 0, "maximum clusters per source vertex")
	flag.StringVar(&previewPath, "preview", "", "write the proxy surface to this STL file")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: build_proxy [flags] <input.stl> <output.proxy>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath, outputPath := args[0], args[1]

	cfg, err := config.LoadWithFlags(configPath, flag.CommandLine, config.Overrides{
		"weld":           func(c *config.Config) { c.Weld.Distance = weld },
		"decimate":       func(c *config.Config) { c.Decimate.Distance = decimate },
		"winding":        func(c *config.Config) { c.Decimate.WindingThreshold = winding },
		"radius":         func(c *config.Config) { c.Skin.Radius = radius },
		"max-influences": func(c *config.Config) { c.Skin.MaxInfluences = maxInfluences },
		"debug": func(c *config.Config) {
			if debug {
				c.Logging.Level = "debug"
			}
		},
	})
	essentials.Must(err)
	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()
	if writeConfig != "" {
		essentials.Must(cfg.SaveTo(writeConfig))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Log.Info("loading mesh", zap.String("path", inputPath))
	input, err := rawmesh.LoadSTL(inputPath)
	essentials.Must(err)
	logger.Log.Info("loaded mesh",
		zap.Int("vertices", len(input.Vertices)),
		zap.Int("triangles", input.NumTriangles()))

	mesh := &clustermesh.Mesh{}
	progress := logger.NewProgressReporter()
	runJob(ctx, progress, mesh.Build(input.Vertices, input.Indices))
	logStats("built cluster mesh", mesh)

	runJob(ctx, progress, mesh.Weld(cfg.Weld.Distance, cfg.Weld.WindingThreshold))
	logStats("welded", mesh)

	runJob(ctx, progress, mesh.Decimate(cfg.Decimate.Distance, cfg.Decimate.WindingThreshold))
	logStats("decimated", mesh)

	influences := skinmap.MapClustersToVertices(mesh, mesh.SourceVertices(), cfg.Skin.Params())
	logger.Log.Info("mapped source vertices",
		zap.Int("vertices", influences.NumVertices()),
		zap.Int("unbound", influences.UnboundCount()),
		zap.Int("max_influences", influences.MaxInfluenceCount()))
	if n := influences.UnboundCount(); n > 0 {
		logger.Log.Warn("some source vertices have no cluster in range; increase -radius",
			zap.Int("unbound", n))
	}

	logger.Log.Info("writing proxy", zap.String("path", outputPath))
	essentials.Must(rawmesh.Save(outputPath, mesh, clustermesh.WriteMesh))

	if previewPath != "" {
		logger.Log.Info("writing preview", zap.String("path", previewPath))
		essentials.Must(rawmesh.SaveSTL(previewPath, mesh.Surface()))
	}
}

func runJob(ctx context.Context, progress *logger.ProgressReporter, j iter.Seq[job.Progress]) {
	if err := job.Run(ctx, j, progress.Report); err != nil {
		logger.Fatal("interrupted", zap.Error(err))
	}
	progress.Finish()
}

func logStats(msg string, mesh *clustermesh.Mesh) {
	logger.Log.Info(msg,
		zap.Int("clusters", mesh.ClusterCount()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("border_clusters", mesh.BorderClusterCount()))
	logger.Log.Debug(msg,
		zap.Int("max_neighborhood", mesh.MaxClusterNeighborhoodSize()),
		zap.Float64("max_vertex_distance", mesh.MaxDistanceFromCluster()))
}
