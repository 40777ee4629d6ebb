// voxgen generates a sparse voxel octree and exports its leaf cubes as a mesh.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/icebox/internal/config"
	"github.com/Faultbox/icebox/internal/logger"
	"github.com/Faultbox/icebox/internal/voxel"
	"github.com/Faultbox/icebox/pkg/meshio"
	"github.com/Faultbox/icebox/pkg/octree"
)

var (
	flagInspect  = flag.String("inspect", "", "Print a summary of an existing OBJ/PLY mesh and exit")
	flagSave     = flag.String("save-config", "", "Write the effective config to this path and exit")
	flagSaveUser = flag.Bool("save-user-config", false, "Write the effective config to the user config directory and exit")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("config: %+v", cfg)

	switch {
	case *flagInspect != "":
		err = inspect(*flagInspect)
	case *flagSave != "":
		err = cfg.SaveTo(*flagSave)
	case *flagSaveUser:
		err = cfg.Save()
		if err == nil {
			fmt.Printf("Saved config to %s\n", config.UserConfigPath())
		}
	default:
		err = generate(cfg)
	}
	if err != nil {
		logger.Error("voxgen failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func generate(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logger.Named("voxgen")
	res, err := voxel.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	printStats(res)

	return voxel.Export(res, cfg, log)
}

func printStats(res *voxel.Result) {
	fmt.Printf("nodes:  %d\n", res.Nodes)
	fmt.Printf("leaves: %d\n", res.Stats.Leaves)
	fmt.Printf("depth:  %d\n", res.Stats.MaxDepth)
	fmt.Printf("time:   %v\n", res.Elapsed)

	depths := make([]int, 0, len(res.Stats.LeavesByDepth))
	for d := range res.Stats.LeavesByDepth {
		depths = append(depths, int(d))
	}
	sort.Ints(depths)
	for _, d := range depths {
		fmt.Printf("  depth %2d: %d leaves\n", d, res.Stats.LeavesByDepth[uint8(d)])
	}
}

func inspect(path string) error {
	m, err := meshio.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("file:      %s\n", path)
	fmt.Printf("vertices:  %d\n", m.VertexCount())
	fmt.Printf("triangles: %d\n", m.TriangleCount())
	fmt.Printf("colors:    %v\n", len(m.Colors) == len(m.Positions) && len(m.Colors) > 0)
	if lo, hi, ok := m.Bounds(); ok {
		fmt.Printf("bounds:    [%g %g %g] - [%g %g %g]\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	}
	if m.VertexCount()%octree.VerticesPerCube == 0 && len(m.Indices)%octree.IndicesPerCube == 0 {
		fmt.Printf("cubes:     %d\n", m.VertexCount()/octree.VerticesPerCube)
	}
	return nil
}
