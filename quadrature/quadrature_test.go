package quadrature

import (
	"math"
	"testing"

	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

func TestJacobiGQ(t *testing.T) {
	// Gauss-Legendre with N+1 points integrates x^k exactly for k <= 2N+1
	N := 4
	x, w := JacobiGQ(0, 0, N)
	require.Len(t, x, N+1)
	for k := 0; k <= 2*N+1; k++ {
		var sum float64
		for i := range x {
			sum += w[i] * math.Pow(x[i], float64(k))
		}
		exact := 0.0
		if k%2 == 0 {
			exact = 2. / float64(k+1)
		}
		assert.InDeltaf(t, exact, sum, 1.e-13, "x^%d", k)
	}

	// Jacobi(1,0): ∫(1-x) dx = 2, ∫(1-x)x dx = -2/3
	x, w = JacobiGQ(1, 0, 2)
	var s0, s1 float64
	for i := range x {
		s0 += w[i]
		s1 += w[i] * x[i]
	}
	assert.InDelta(t, 2., s0, 1.e-13)
	assert.InDelta(t, -2./3., s1, 1.e-13)
}

func TestRegularRulesIntegrateMonomials(t *testing.T) {
	n := 5
	tri := RegularRule(utils.Triangle, n)
	quad := RegularRule(utils.Quadrilateral, n)
	assert.Equal(t, n*n, tri.Npts())
	assert.Equal(t, n*n, quad.Npts())
	for a := 0; a < 4; a++ {
		for b := 0; a+b < 5; b++ {
			var st, sq float64
			for q := range tri.W {
				st += tri.W[q] * math.Pow(tri.R[q], float64(a)) * math.Pow(tri.S[q], float64(b))
			}
			for q := range quad.W {
				sq += quad.W[q] * math.Pow(quad.R[q], float64(a)) * math.Pow(quad.S[q], float64(b))
			}
			// ∫_T r^a s^b = a! b! / (a+b+2)!
			assert.InDeltaf(t, factorial(a)*factorial(b)/factorial(a+b+2), st, 1.e-13, "tri r^%d s^%d", a, b)
			assert.InDeltaf(t, 1./float64((a+1)*(b+1)), sq, 1.e-13, "quad r^%d s^%d", a, b)
		}
	}
}

func TestSauterSchwabMoments(t *testing.T) {
	for _, adj := range []Adjacency{Vertex, Edge, Identical} {
		rule := SauterSchwab(adj, 4)
		var vol, mx1, mx2, my1, my2, mixed float64
		for q := range rule.W {
			w := rule.W[q]
			vol += w
			mx1 += w * rule.X1[q]
			mx2 += w * rule.X2[q]
			my1 += w * rule.Y1[q]
			my2 += w * rule.Y2[q]
			mixed += w * (rule.X1[q]*rule.Y1[q] + rule.X2[q]*rule.Y2[q])
			assert.True(t, rule.X2[q] <= rule.X1[q] && rule.X1[q] <= 1)
			assert.True(t, rule.Y2[q] <= rule.Y1[q] && rule.Y1[q] <= 1)
		}
		// The canonical triangle has area 1/2, ∫x1 = 1/3, ∫x2 = 1/6
		assert.InDeltaf(t, 0.25, vol, 1.e-13, "%v volume", adj)
		assert.InDeltaf(t, 1./6., mx1, 1.e-13, "%v x1", adj)
		assert.InDeltaf(t, 1./12., mx2, 1.e-13, "%v x2", adj)
		assert.InDeltaf(t, 1./6., my1, 1.e-13, "%v y1", adj)
		assert.InDeltaf(t, 1./12., my2, 1.e-13, "%v y2", adj)
		assert.InDeltaf(t, 5./36., mixed, 1.e-12, "%v x.y", adj)
	}
}

func TestSauterSchwabIntegratesInverseDistance(t *testing.T) {
	// ∫∫ 1/|x-y| over identical canonical triangles converges with order
	integrate := func(n int) float64 {
		rule := SauterSchwab(Identical, n)
		var sum float64
		for q := range rule.W {
			d := math.Hypot(rule.X1[q]-rule.Y1[q], rule.X2[q]-rule.Y2[q])
			sum += rule.W[q] / d
		}
		return sum
	}
	coarse, fine, finest := integrate(4), integrate(6), integrate(8)
	assert.Less(t, math.Abs(finest-fine), math.Abs(fine-coarse)+1.e-14)
	assert.InDelta(t, finest, fine, 1.e-6)
}

func TestSymmetricPairRules(t *testing.T) {
	for _, adj := range []Adjacency{Vertex, Edge, Identical} {
		rule := SauterSchwab(adj, 3)
		swapped := rule.Swapped()
		type key struct{ x1, x2, y1, y2, w float64 }
		count := make(map[key]int)
		for q := range rule.W {
			count[key{rule.X1[q], rule.X2[q], rule.Y1[q], rule.Y2[q], rule.W[q]}]++
		}
		for q := range swapped.W {
			count[key{swapped.X1[q], swapped.X2[q], swapped.Y1[q], swapped.Y2[q], swapped.W[q]}]--
		}
		for k, c := range count {
			assert.Zerof(t, c, "%v rule not closed under swap at %v", adj, k)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		same   bool
		shared int
		want   Adjacency
	}{
		{false, 0, Disjoint},
		{false, 1, Vertex},
		{false, 2, Edge},
		{true, 4, Identical},
	}
	for _, c := range cases {
		adj, err := Classify(c.same, c.shared)
		require.NoError(t, err)
		assert.Equal(t, c.want, adj)
	}
	_, err := Classify(false, 3)
	assert.Error(t, err)
}

func TestSubTriangleMaps(t *testing.T) {
	st := SubTriangle{{0, 0}, {1, 1}, {0, 1}}
	assert.InDelta(t, 1., st.Det(), 1.e-15)
	r, s := st.FromCanonical(1, 1)
	assert.Equal(t, [2]float64{0, 1}, [2]float64{r, s})
	r, s = st.FromStandard(0, 1)
	assert.Equal(t, [2]float64{0, 1}, [2]float64{r, s})
}

func TestSelectorCachesRules(t *testing.T) {
	sel := NewSelector(4, SingularOrder{Vertex: 2, Edge: 3, Identical: 3})
	assert.Same(t, sel.Regular(utils.Triangle), sel.Regular(utils.Triangle))
	assert.Same(t, sel.Singular(Edge), sel.Singular(Edge))
	assert.Equal(t, 2*2*2*2*2, sel.Singular(Vertex).Npts())
	assert.Equal(t, 3*3*3*3*5*2, sel.Singular(Edge).Npts())
	assert.Equal(t, 3*3*3*3*6, sel.Singular(Identical).Npts())
	assert.Panics(t, func() { sel.Singular(Disjoint) })
}
