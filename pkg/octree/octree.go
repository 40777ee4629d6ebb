package octree

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/icebox/pkg/math"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// Magenta marks leaves whose fill was decided by the depth limit rather than
// by the classifier. It is also the default color for full leaves.
var Magenta = Color{R: 255, G: 0, B: 255}

// GenerateOptions tunes a generation pass.
type GenerateOptions struct {
	// BoundaryColor is used for partial octants forced to leaves at max depth.
	BoundaryColor Color
	// FillColor is used for octants the classifier reported as Full.
	FillColor Color
	Logger    *zap.Logger
}

// Option modifies GenerateOptions.
type Option func(*GenerateOptions)

// WithBoundaryColor overrides the color of depth-limited boundary leaves.
func WithBoundaryColor(c Color) Option {
	return func(o *GenerateOptions) { o.BoundaryColor = c }
}

// WithFillColor overrides the color of full leaves.
func WithFillColor(c Color) Option {
	return func(o *GenerateOptions) { o.FillColor = c }
}

// WithLogger sets the logger that receives generation diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *GenerateOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

func buildOptions(opts []Option) GenerateOptions {
	o := GenerateOptions{
		BoundaryColor: Magenta,
		FillColor:     Magenta,
		Logger:        zap.NewNop(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// VoxelOctree owns the root of a sparse voxel tree.
type VoxelOctree struct {
	root *Octant
}

// New creates a tree with an empty root spanning a box of the given size.
func New(center, size math.Vec3) *VoxelOctree {
	return &VoxelOctree{
		root: NewEmpty(center, size.Scale(0.5), 0),
	}
}

// Root returns the root node.
func (t *VoxelOctree) Root() *Octant {
	return t.root
}

// Generate subdivides the tree from scratch, asking classify about every
// candidate child. Nodes never go deeper than maxDepth. It returns the number
// of nodes created below the root.
func (t *VoxelOctree) Generate(maxDepth uint8, classify Classifier, opts ...Option) int {
	o := buildOptions(opts)
	start := time.Now()

	g := &generator{ctx: context.Background(), maxDepth: maxDepth, classify: classify, opts: o}
	root := NewEmpty(t.root.Center, t.root.HalfSize, t.root.Depth)
	n := g.subdivide(root)
	t.root = root

	o.Logger.Debug("octree generated",
		zap.Int("nodes", n),
		zap.Uint8("max_depth", maxDepth),
		zap.Duration("elapsed", time.Since(start)),
	)
	return n
}

// GenerateParallel produces the same tree as Generate but builds the eight
// root subtrees concurrently. On cancellation the tree is left unchanged and
// the context error is returned.
func (t *VoxelOctree) GenerateParallel(ctx context.Context, maxDepth uint8, classify Classifier, opts ...Option) (int, error) {
	o := buildOptions(opts)
	start := time.Now()

	root := NewEmpty(t.root.Center, t.root.HalfSize, t.root.Depth)
	if !canSubdivide(root, maxDepth) {
		t.root = root
		return 0, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	g := &generator{ctx: egCtx, maxDepth: maxDepth, classify: classify, opts: o}

	var counts [8]int
	for i := range root.children {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			root.children[i], counts[i] = g.build(root, i)
			return egCtx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	// errgroup cancels its derived context once Wait returns.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	for _, c := range counts {
		n += c
	}
	t.root = root

	o.Logger.Debug("octree generated in parallel",
		zap.Int("nodes", n),
		zap.Uint8("max_depth", maxDepth),
		zap.Duration("elapsed", time.Since(start)),
	)
	return n, nil
}

// GenerateSphere fills a solid sphere of the given radius around the root's
// center.
func (t *VoxelOctree) GenerateSphere(radius float32, maxDepth uint8, opts ...Option) int {
	n := t.Generate(maxDepth, SphereClassifier(t.root.Center, radius), opts...)
	buildOptions(opts).Logger.Debug("sphere generated",
		zap.Float32("radius", radius),
		zap.Int("nodes", n),
	)
	return n
}

// generator carries the per-pass parameters down the recursion.
type generator struct {
	ctx      context.Context
	maxDepth uint8
	classify Classifier
	opts     GenerateOptions
}

func canSubdivide(o *Octant, maxDepth uint8) bool {
	return o.Depth < maxDepth
}

// subdivide populates the children of o and returns how many nodes it created.
func (g *generator) subdivide(o *Octant) int {
	if !canSubdivide(o, g.maxDepth) || g.ctx.Err() != nil {
		return 0
	}
	n := 0
	for i := range o.children {
		var created int
		o.children[i], created = g.build(o, i)
		n += created
	}
	return n
}

// build classifies child slot i of parent and constructs it. It returns nil
// only for empty space. A partial octant above maxDepth always becomes an
// interior node, even when nothing below it turns out to be occupied.
func (g *generator) build(parent *Octant, i int) (*Octant, int) {
	sign := signOf(i)
	center := parent.Center.Add(parent.HalfSize.Mul(sign).Scale(0.5))
	half := parent.HalfSize.Scale(0.5)
	inner := center.Add(half.Mul(sign.Neg()))
	outer := center.Add(half.Mul(sign))
	depth := parent.Depth + 1

	switch g.classify(center, inner, outer) {
	case ContainsVoxel:
		if depth < g.maxDepth {
			child := NewEmpty(center, half, depth)
			return child, g.subdivide(child) + 1
		}
		c := g.opts.BoundaryColor
		return NewLeaf(center, half, depth, c.R, c.G, c.B), 1
	case Full:
		c := g.opts.FillColor
		return NewLeaf(center, half, depth, c.R, c.G, c.B), 1
	default:
		return nil, 0
	}
}
