// Package voxel turns a loaded configuration into a generated octree and an
// exported mesh. Both commands share it.
package voxel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/icebox/internal/config"
	"github.com/Faultbox/icebox/pkg/meshio"
	"github.com/Faultbox/icebox/pkg/octree"
)

// Result is a generated tree and what it took to build it.
type Result struct {
	Tree    *octree.VoxelOctree
	Nodes   int
	Stats   octree.Stats
	Elapsed time.Duration
}

// Build generates a tree from the octree and generation sections of cfg.
// ctx only matters for parallel generation.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Result, error) {
	gen := cfg.Generation
	boundary, fill, err := gen.Colors()
	if err != nil {
		return nil, err
	}
	opts := []octree.Option{
		octree.WithBoundaryColor(boundary),
		octree.WithFillColor(fill),
		octree.WithLogger(log),
	}

	center := cfg.Octree.CenterVec()
	tree := octree.New(center, cfg.Octree.SizeVec())

	start := time.Now()
	var nodes int
	switch {
	case gen.Parallel:
		if gen.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, gen.Timeout)
			defer cancel()
		}
		nodes, err = tree.GenerateParallel(ctx, gen.MaxDepth, gen.Classifier(center), opts...)
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", gen.Shape, err)
		}
	case gen.Shape == config.ShapeSphere:
		nodes = tree.GenerateSphere(gen.Radius, gen.MaxDepth, opts...)
	default:
		nodes = tree.Generate(gen.MaxDepth, gen.Classifier(center), opts...)
	}

	res := &Result{
		Tree:    tree,
		Nodes:   nodes,
		Stats:   tree.Stats(),
		Elapsed: time.Since(start),
	}

	if log != nil {
		log.Info("octree generated",
			zap.String("shape", gen.Shape),
			zap.Uint8("max_depth", gen.MaxDepth),
			zap.Bool("parallel", gen.Parallel),
			zap.Int("nodes", res.Nodes),
			zap.Int("leaves", res.Stats.Leaves),
			zap.Uint8("depth", res.Stats.MaxDepth),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	return res, nil
}

// Export writes the tree's mesh to the configured path and format.
func Export(res *Result, cfg *config.Config, log *zap.Logger) error {
	opts, err := cfg.Export.MeshOptions()
	if err != nil {
		return err
	}

	if err := res.Tree.ExportTo(cfg.Export.Path, meshio.NewWriter(opts)); err != nil {
		return err
	}

	if log != nil {
		log.Info("mesh exported",
			zap.String("path", cfg.Export.Path),
			zap.Stringer("format", opts.Format),
			zap.Int("cubes", res.Stats.Leaves),
			zap.Int("vertices", res.Stats.Leaves*octree.VerticesPerCube),
		)
	}
	return nil
}
