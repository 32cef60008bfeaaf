package assembly

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/kernel"
	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Assembler integrates one boundary operator over pairs of cells and
// scatters the local blocks into a global matrix through the dof maps of the
// test (rows) and trial (columns) spaces
type Assembler[T utils.Scalar] struct {
	Kernel     kernel.Kernel[T]
	Integrand  Integrand
	Wavenumber float64 // Only read by the Helmholtz hypersingular form
	Options    Options
}

func NewAssembler[T utils.Scalar](k kernel.Kernel[T], ig Integrand, wavenumber float64, opts Options) *Assembler[T] {
	return &Assembler[T]{Kernel: k, Integrand: ig, Wavenumber: wavenumber, Options: opts}
}

type pairMode uint8

const (
	allPairs      pairMode = iota
	singularPairs          // Cells sharing at least one vertex
	regularPairs           // Disjoint cells
)

// AssembleIntoDense adds the operator matrix into out, which must be shaped
// [test.GlobalSize(), trial.GlobalSize()]. Nothing is written unless every
// cell pair integrates successfully.
func (a *Assembler[T]) AssembleIntoDense(ctx context.Context, out Matrix[T], trial, test space.FunctionSpace) error {
	return a.assembleInto(ctx, out, trial, test, allPairs)
}

// AssembleNonsingularInto adds only the interactions of disjoint cell pairs.
// With AssembleSingular it splits AssembleIntoDense in two.
func (a *Assembler[T]) AssembleNonsingularInto(ctx context.Context, out Matrix[T], trial, test space.FunctionSpace) error {
	return a.assembleInto(ctx, out, trial, test, regularPairs)
}

// AssembleSingular returns the interactions of touching cell pairs as sparse
// triplets
func (a *Assembler[T]) AssembleSingular(ctx context.Context, trial, test space.FunctionSpace) (*Triplets[T], error) {
	cells := make([]int, test.Grid().NumCells())
	for c := range cells {
		cells[c] = c
	}
	return a.AssembleSingularCells(ctx, trial, test, cells)
}

// AssembleSingularCells is AssembleSingular restricted to the rows of the
// given test cells
func (a *Assembler[T]) AssembleSingularCells(ctx context.Context, trial, test space.FunctionSpace, testCells []int) (*Triplets[T], error) {
	out := NewTriplets[T](test.GlobalSize(), trial.GlobalSize())
	buffers, err := a.run(ctx, trial, test, testCells, singularPairs)
	if err != nil {
		return nil, err
	}
	for _, b := range buffers {
		b.flush(out)
	}
	return out, nil
}

func (a *Assembler[T]) assembleInto(ctx context.Context, out Matrix[T], trial, test space.FunctionSpace, mode pairMode) error {
	if out == nil {
		return fmt.Errorf("%w: nil output", ErrConfiguration)
	}
	if r, c := out.Dims(); r != test.GlobalSize() || c != trial.GlobalSize() {
		return fmt.Errorf("%w: output is %d×%d, spaces need %d×%d",
			ErrDimensionMismatch, r, c, test.GlobalSize(), trial.GlobalSize())
	}
	cells := make([]int, test.Grid().NumCells())
	for c := range cells {
		cells[c] = c
	}
	buffers, err := a.run(ctx, trial, test, cells, mode)
	if err != nil {
		return err
	}
	for _, b := range buffers {
		b.flush(out)
	}
	return nil
}

func (a *Assembler[T]) prepare(trial, test space.FunctionSpace) (*pairContext, error) {
	if a.Kernel == nil {
		return nil, fmt.Errorf("%w: assembler has no kernel", ErrConfiguration)
	}
	if err := a.Options.Validate(); err != nil {
		return nil, err
	}
	if trial.Grid() != test.Grid() {
		return nil, fmt.Errorf("%w: trial and test spaces live on different grids", ErrConfiguration)
	}
	return &pairContext{
		grid:     test.Grid(),
		test:     test,
		trial:    trial,
		selector: quadrature.NewSelector(a.Options.RegularOrder, a.Options.SingularOrder),
		withCurl: a.Integrand == HypersingularIntegrand,
	}, nil
}

// run integrates the pairs selected by mode for the given test cells. The
// cells are split into contiguous ranges, one per worker, and every worker
// fills its own scatter buffer; the buffers come back in range order.
func (a *Assembler[T]) run(ctx context.Context, trial, test space.FunctionSpace, testCells []int, mode pairMode) ([]*scatter[T], error) {
	start := time.Now()
	pc, err := a.prepare(trial, test)
	if err != nil {
		return nil, err
	}
	if mode != singularPairs {
		if err = pc.buildRegularSides(); err != nil {
			return nil, err
		}
	}

	var (
		pm      = utils.NewPartitionMap(a.Options.Workers, len(testCells))
		workers = make([]*worker[T], pm.ParallelDegree)
	)
	g, gctx := errgroup.WithContext(ctx)
	for np := range workers {
		kMin, kMax := pm.GetBucketRange(np)
		w := &worker[T]{
			pc:        pc,
			pi:        newPairIntegrator(a.Kernel, a.Integrand, a.Wavenumber),
			mode:      mode,
			batchSize: a.Options.BatchSize,
			out:       &scatter[T]{},
		}
		workers[np] = w
		g.Go(func() error {
			return w.process(gctx, testCells[kMin:kMax])
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	var (
		buffers                       = make([]*scatter[T], len(workers))
		nSingular, nRegular, nBatches int
	)
	for np, w := range workers {
		buffers[np] = w.out
		nSingular += w.singularPairs
		nRegular += w.regularPairs
		nBatches += w.batches
	}
	a.Options.logger().Debug("assembled cell pairs",
		zap.String("kernel", a.Kernel.Name()),
		zap.Stringer("integrand", a.Integrand),
		zap.Int("test_cells", len(testCells)),
		zap.Int("singular_pairs", nSingular),
		zap.Int("regular_pairs", nRegular),
		zap.Int("batches", nBatches),
		zap.Int("workers", len(workers)),
		zap.Duration("elapsed", time.Since(start)))
	return buffers, nil
}

// scatter collects global (row, column, value) contributions of one worker
type scatter[T utils.Scalar] struct {
	rows, cols []int
	vals       []T
}

func (s *scatter[T]) addBlock(rows, cols []int, block []T) {
	for i, r := range rows {
		for j, c := range cols {
			s.rows = append(s.rows, r)
			s.cols = append(s.cols, c)
			s.vals = append(s.vals, block[i*len(cols)+j])
		}
	}
}

func (s *scatter[T]) flush(out Matrix[T]) {
	for k, v := range s.vals {
		out.AddAt(s.rows[k], s.cols[k], v)
	}
}

type worker[T utils.Scalar] struct {
	pc        *pairContext
	pi        *pairIntegrator[T]
	mode      pairMode
	batchSize int
	out       *scatter[T]
	block     []T

	singularPairs, regularPairs, batches int
}

func (w *worker[T]) zeroBlock(n int) []T {
	if cap(w.block) < n {
		w.block = make([]T, n)
	}
	b := w.block[:n]
	var zero T
	for i := range b {
		b[i] = zero
	}
	return b
}

func (w *worker[T]) process(ctx context.Context, cells []int) error {
	var (
		pc    = w.pc
		K     = pc.grid.NumCells()
		batch = make([]int, 0, w.batchSize)
	)
	for _, tc := range cells {
		if err := ctx.Err(); err != nil {
			return err
		}
		touching := grid.TouchingCells(pc.grid, tc)
		if w.mode != regularPairs {
			for _, sc := range touching {
				block := w.zeroBlock(len(pc.test.CellDofs(tc)) * len(pc.trial.CellDofs(sc)))
				if err := singularBlock(pc, w.pi, tc, sc, block); err != nil {
					return err
				}
				w.out.addBlock(pc.test.CellDofs(tc), pc.trial.CellDofs(sc), block)
				w.singularPairs++
			}
		}
		if w.mode == singularPairs {
			continue
		}
		batch = batch[:0]
		next := 0 // Position in touching, which is ascending
		for sc := 0; sc < K; sc++ {
			if next < len(touching) && touching[next] == sc {
				next++
				continue
			}
			batch = append(batch, sc)
			if len(batch) == w.batchSize {
				if err := w.regularBatch(ctx, tc, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if len(batch) != 0 {
			if err := w.regularBatch(ctx, tc, batch); err != nil {
				return err
			}
		}
	}
	return nil
}

// regularBatch integrates test cell tc against a batch of disjoint trial
// cells with a single kernel call
func (w *worker[T]) regularBatch(ctx context.Context, tc int, batch []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var (
		pc = w.pc
		pi = w.pi
		X  = pc.testSides[tc]
	)
	pi.reset()
	for _, sc := range batch {
		pi.appendTensor(X, pc.trialSides[sc])
	}
	g, err := pi.eval()
	if err != nil {
		return err
	}
	offset := 0
	for _, sc := range batch {
		Y := pc.trialSides[sc]
		n := X.npts * Y.npts
		block := w.zeroBlock(X.np * Y.np)
		regularBlock(pc, pi, tc, sc, g[offset:offset+n], block)
		offset += n
		w.out.addBlock(pc.test.CellDofs(tc), pc.trial.CellDofs(sc), block)
	}
	w.regularPairs += len(batch)
	w.batches++
	return nil
}

// Assemble adds the matrix of ψ_i(x) k(x,y) φ_j(y) into out. The normal
// flags state which normals the caller expects the kernel to read; a kernel
// reading a normal that is not declared is a configuration error.
func Assemble[T utils.Scalar](ctx context.Context, out Matrix[T], k kernel.Kernel[T], needsTrialNormal, needsTestNormal bool,
	trial, test space.FunctionSpace, opts Options) error {
	if k == nil {
		return fmt.Errorf("%w: nil kernel", ErrConfiguration)
	}
	if (k.NeedsSourceNormal() && !needsTrialNormal) || (k.NeedsTargetNormal() && !needsTestNormal) {
		return fmt.Errorf("%w: kernel %s reads normals not declared by the caller", ErrConfiguration, k.Name())
	}
	return NewAssembler(k, KernelIntegrand, 0, opts).AssembleIntoDense(ctx, out, trial, test)
}

// HypersingularAssemble adds the hypersingular matrix into out. k is the
// single layer kernel of the PDE and wavenumber its wavenumber, zero for
// Laplace.
func HypersingularAssemble[T utils.Scalar](ctx context.Context, out Matrix[T], k kernel.Kernel[T], wavenumber float64,
	trial, test space.FunctionSpace, opts Options) error {
	if k == nil {
		return fmt.Errorf("%w: nil kernel", ErrConfiguration)
	}
	if k.NeedsSourceNormal() || k.NeedsTargetNormal() {
		return fmt.Errorf("%w: hypersingular form needs a single layer kernel, got %s", ErrConfiguration, k.Name())
	}
	return NewAssembler(k, HypersingularIntegrand, wavenumber, opts).AssembleIntoDense(ctx, out, trial, test)
}
