package assembly

import (
	"errors"
	"fmt"

	"github.com/notargets/BEMKernel/element"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/kernel"
	"github.com/notargets/BEMKernel/quadrature"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
)

// Integrand selects the bilinear form integrated over a pair of cells
type Integrand uint8

const (
	// KernelIntegrand is ψ_i(x) k(x,y) φ_j(y)
	KernelIntegrand Integrand = iota
	// HypersingularIntegrand is G(x,y) curlψ_i(x)·curlφ_j(y), less
	// k² (n_x·n_y) G ψ_i φ_j when a wavenumber is set
	HypersingularIntegrand
)

func (ig Integrand) String() string {
	if ig == HypersingularIntegrand {
		return "Hypersingular"
	}
	return "Kernel"
}

// sideTable holds the basis data of one side of a cell pair at a point set.
// Basis i at point q lives at [i*npts+q]; quadrature weights and the
// integration element are folded into val, weights alone into curl, where
// the integration element cancels.
type sideTable struct {
	npts, np int
	x, n     []float64 // Points and unit normals [3*npts]
	val      []float64 // ψ_i(q)·|J(q)|·w(q) [np*npts]
	curl     []float64 // (∂_rψ_i t_s − ∂_sψ_i t_r)·w(q) [3*np*npts]
}

func newSideTable(cell int, geom *grid.CellGeometry, el element.Element, r, s, w []float64,
	scale float64, withCurl bool) (*sideTable, error) {
	var (
		gt          grid.GeometryTable
		phi, dr, ds = el.Tabulate(r, s)
		st          = &sideTable{npts: len(r), np: el.Np()}
	)
	geom.Evaluate(r, s, &gt)
	st.x, st.n = gt.X, gt.N
	st.val = make([]float64, st.np*st.npts)
	if withCurl {
		st.curl = make([]float64, 3*st.np*st.npts)
	}
	for q := 0; q < st.npts; q++ {
		if !(gt.J[q] > 0) {
			return nil, fmt.Errorf("%w: cell %d has integration element %g",
				ErrNumericalDegeneracy, cell, gt.J[q])
		}
		wq := scale
		if w != nil {
			wq *= w[q]
		}
		tr, ts := gt.Tr[3*q:3*q+3], gt.Ts[3*q:3*q+3]
		for i := 0; i < st.np; i++ {
			st.val[i*st.npts+q] = wq * gt.J[q] * phi.At(i, q)
			if !withCurl {
				continue
			}
			pr, ps := dr.At(i, q), ds.At(i, q)
			c := st.curl[3*(i*st.npts+q) : 3*(i*st.npts+q)+3]
			for d := 0; d < 3; d++ {
				c[d] = wq * (pr*ts[d] - ps*tr[d])
			}
		}
	}
	return st, nil
}

// pairIntegrator evaluates local interaction blocks. It owns scratch buffers
// and is used by one worker at a time.
type pairIntegrator[T utils.Scalar] struct {
	kern      kernel.Kernel[T]
	integrand Integrand
	k2        float64
	convert   func(float64) T

	tgt, src, tn, sn []float64
	g                []T
	sum              []T
}

func newPairIntegrator[T utils.Scalar](k kernel.Kernel[T], ig Integrand, wavenumber float64) *pairIntegrator[T] {
	return &pairIntegrator[T]{
		kern:      k,
		integrand: ig,
		k2:        wavenumber * wavenumber,
		convert:   utils.RealConverter[T](),
	}
}

func (pi *pairIntegrator[T]) reset() {
	pi.tgt, pi.src = pi.tgt[:0], pi.src[:0]
	pi.tn, pi.sn = pi.tn[:0], pi.sn[:0]
}

func (pi *pairIntegrator[T]) appendPoint(X *sideTable, qx int, Y *sideTable, qy int) {
	pi.tgt = append(pi.tgt, X.x[3*qx:3*qx+3]...)
	pi.src = append(pi.src, Y.x[3*qy:3*qy+3]...)
	pi.tn = append(pi.tn, X.n[3*qx:3*qx+3]...)
	pi.sn = append(pi.sn, Y.n[3*qy:3*qy+3]...)
}

// appendTensor queues every (test point, trial point) combination
func (pi *pairIntegrator[T]) appendTensor(X, Y *sideTable) {
	for qx := 0; qx < X.npts; qx++ {
		for qy := 0; qy < Y.npts; qy++ {
			pi.appendPoint(X, qx, Y, qy)
		}
	}
}

// appendPaired queues the point pairs (q, q)
func (pi *pairIntegrator[T]) appendPaired(X, Y *sideTable) {
	for q := 0; q < X.npts; q++ {
		pi.appendPoint(X, q, Y, q)
	}
}

// eval runs the kernel once on everything queued since the last reset
func (pi *pairIntegrator[T]) eval() ([]T, error) {
	n := len(pi.tgt) / 3
	if cap(pi.g) < n {
		pi.g = make([]T, n)
	}
	g := pi.g[:n]
	if err := pi.kern.Eval(pi.tgt, pi.src, pi.tn, pi.sn, g); err != nil {
		if errors.Is(err, kernel.ErrCoincidentPoints) {
			return nil, fmt.Errorf("%w: %w", ErrNumericalDegeneracy, err)
		}
		return nil, err
	}
	return g, nil
}

func dot3(a, b []float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// hypersingularTerm is the real factor multiplying G at one point pair
func (pi *pairIntegrator[T]) hypersingularTerm(X *sideTable, i, qx int, Y *sideTable, j, qy int) float64 {
	ix, jy := i*X.npts+qx, j*Y.npts+qy
	f := dot3(X.curl[3*ix:3*ix+3], Y.curl[3*jy:3*jy+3])
	if pi.k2 != 0 {
		f -= pi.k2 * dot3(X.n[3*qx:3*qx+3], Y.n[3*qy:3*qy+3]) * X.val[ix] * Y.val[jy]
	}
	return f
}

// accumulateTensor adds the block of a tensor point set into block[i*Y.np+j],
// with g[qx*Y.npts+qy] the kernel values
func (pi *pairIntegrator[T]) accumulateTensor(block []T, X, Y *sideTable, g []T) {
	if pi.integrand == HypersingularIntegrand {
		for qx := 0; qx < X.npts; qx++ {
			for qy := 0; qy < Y.npts; qy++ {
				gq := g[qx*Y.npts+qy]
				for i := 0; i < X.np; i++ {
					for j := 0; j < Y.np; j++ {
						block[i*Y.np+j] += gq * pi.convert(pi.hypersingularTerm(X, i, qx, Y, j, qy))
					}
				}
			}
		}
		return
	}
	if cap(pi.sum) < Y.np {
		pi.sum = make([]T, Y.np)
	}
	sum := pi.sum[:Y.np]
	for qx := 0; qx < X.npts; qx++ {
		for j := range sum {
			var s T
			for qy := 0; qy < Y.npts; qy++ {
				s += g[qx*Y.npts+qy] * pi.convert(Y.val[j*Y.npts+qy])
			}
			sum[j] = s
		}
		for i := 0; i < X.np; i++ {
			a := pi.convert(X.val[i*X.npts+qx])
			for j, s := range sum {
				block[i*Y.np+j] += a * s
			}
		}
	}
}

// accumulatePaired adds the block of a paired point set, g[q] the kernel
// value at pair q
func (pi *pairIntegrator[T]) accumulatePaired(block []T, X, Y *sideTable, g []T) {
	for q, gq := range g {
		for i := 0; i < X.np; i++ {
			if pi.integrand == HypersingularIntegrand {
				for j := 0; j < Y.np; j++ {
					block[i*Y.np+j] += gq * pi.convert(pi.hypersingularTerm(X, i, q, Y, j, q))
				}
				continue
			}
			a := gq * pi.convert(X.val[i*X.npts+q])
			for j := 0; j < Y.np; j++ {
				block[i*Y.np+j] += a * pi.convert(Y.val[j*Y.npts+q])
			}
		}
	}
}

// pairContext is the read-only data shared by the workers of one call
type pairContext struct {
	grid       grid.Grid
	test       space.FunctionSpace
	trial      space.FunctionSpace
	selector   *quadrature.Selector
	withCurl   bool
	testSides  []*sideTable // Regular rule tables per cell, nil when unused
	trialSides []*sideTable
}

func (pc *pairContext) buildRegularSides() (err error) {
	K := pc.grid.NumCells()
	build := func(fs space.FunctionSpace) ([]*sideTable, error) {
		sides := make([]*sideTable, K)
		for c := 0; c < K; c++ {
			ct := pc.grid.CellType(c)
			rule := pc.selector.Regular(ct)
			st, err := newSideTable(c, pc.grid.Geometry(c), fs.Element(ct), rule.R, rule.S, rule.W, 1, pc.withCurl)
			if err != nil {
				return nil, err
			}
			sides[c] = st
		}
		return sides, nil
	}
	if pc.testSides, err = build(pc.test); err != nil {
		return
	}
	if pc.trial == pc.test {
		pc.trialSides = pc.testSides
		return
	}
	pc.trialSides, err = build(pc.trial)
	return
}

// subTriangle returns the sub-triangle of a cell with its corners reordered
// so that the corners listed in shared come first, in that order
func subTriangle(ct utils.GeometryType, corners [3]int, ids [3]int, shared []int) quadrature.SubTriangle {
	var (
		ref   = element.ReferenceVertices(ct)
		order = make([]int, 0, 3)
		used  [3]bool
	)
	for _, id := range shared {
		for k := 0; k < 3; k++ {
			if ids[k] == id && !used[k] {
				order = append(order, k)
				used[k] = true
			}
		}
	}
	for k := 0; k < 3; k++ {
		if !used[k] {
			order = append(order, k)
		}
	}
	var st quadrature.SubTriangle
	for n, k := range order {
		st[n] = ref[corners[k]]
	}
	return st
}

// sharedIDs returns the point ids common to a and b in ascending order
func sharedIDs(a, b [3]int) (shared []int) {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				shared = append(shared, x)
			}
		}
	}
	for i := 1; i < len(shared); i++ {
		for j := i; j > 0 && shared[j] < shared[j-1]; j-- {
			shared[j], shared[j-1] = shared[j-1], shared[j]
		}
	}
	return
}

func (pc *pairContext) cornerIDs(c int, corners [3]int) (ids [3]int) {
	verts := pc.grid.CellVertices(c)
	for k, lv := range corners {
		ids[k] = pc.grid.PointID(verts[lv])
	}
	return
}

// singularBlock adds the interaction of a touching pair of cells into block.
// Both cells are split into reference sub-triangles and every sub-triangle
// pair is integrated with the rule of its own adjacency.
func singularBlock[T utils.Scalar](pc *pairContext, pi *pairIntegrator[T], tc, sc int, block []T) error {
	var (
		ctX, ctY = pc.grid.CellType(tc), pc.grid.CellType(sc)
		elx, ely = pc.test.Element(ctX), pc.trial.Element(ctY)
		gx, gy   = pc.grid.Geometry(tc), pc.grid.Geometry(sc)
	)
	for a, cx := range element.ReferenceSubTriangles(ctX) {
		idsX := pc.cornerIDs(tc, cx)
		for b, cy := range element.ReferenceSubTriangles(ctY) {
			idsY := pc.cornerIDs(sc, cy)
			shared := sharedIDs(idsX, idsY)
			adj, err := quadrature.Classify(tc == sc && a == b, len(shared))
			if err != nil {
				return fmt.Errorf("%w: cells %d and %d: %w", ErrNumericalDegeneracy, tc, sc, err)
			}
			if adj == quadrature.Identical {
				shared = sharedIDs(idsX, idsX)
			}
			var (
				stx, sty = subTriangle(ctX, cx, idsX, shared), subTriangle(ctY, cy, idsY, shared)
				X, Y     *sideTable
				g        []T
			)
			if adj == quadrature.Disjoint {
				rule := pc.selector.SubTriangleRule()
				rx, sx := mapPoints(rule.Npts(), func(q int) (float64, float64) { return stx.FromStandard(rule.R[q], rule.S[q]) })
				ry, sy := mapPoints(rule.Npts(), func(q int) (float64, float64) { return sty.FromStandard(rule.R[q], rule.S[q]) })
				if X, err = newSideTable(tc, gx, elx, rx, sx, rule.W, stx.Det(), pc.withCurl); err != nil {
					return err
				}
				if Y, err = newSideTable(sc, gy, ely, ry, sy, rule.W, sty.Det(), pc.withCurl); err != nil {
					return err
				}
				pi.reset()
				pi.appendTensor(X, Y)
				if g, err = pi.eval(); err != nil {
					return err
				}
				pi.accumulateTensor(block, X, Y, g)
				continue
			}
			rule := pc.selector.Singular(adj)
			rx, sx := mapPoints(rule.Npts(), func(q int) (float64, float64) { return stx.FromCanonical(rule.X1[q], rule.X2[q]) })
			ry, sy := mapPoints(rule.Npts(), func(q int) (float64, float64) { return sty.FromCanonical(rule.Y1[q], rule.Y2[q]) })
			if X, err = newSideTable(tc, gx, elx, rx, sx, rule.W, stx.Det()*sty.Det(), pc.withCurl); err != nil {
				return err
			}
			if Y, err = newSideTable(sc, gy, ely, ry, sy, nil, 1, pc.withCurl); err != nil {
				return err
			}
			pi.reset()
			pi.appendPaired(X, Y)
			if g, err = pi.eval(); err != nil {
				return err
			}
			pi.accumulatePaired(block, X, Y, g)
		}
	}
	return nil
}

// regularBlock adds the interaction of a disjoint pair into block using the
// precomputed kernel values g of the pair
func regularBlock[T utils.Scalar](pc *pairContext, pi *pairIntegrator[T], tc, sc int, g []T, block []T) {
	pi.accumulateTensor(block, pc.testSides[tc], pc.trialSides[sc], g)
}

func mapPoints(n int, f func(q int) (float64, float64)) (r, s []float64) {
	r, s = make([]float64, n), make([]float64, n)
	for q := range r {
		r[q], s[q] = f(q)
	}
	return
}
