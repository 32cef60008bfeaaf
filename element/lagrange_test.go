package element

import (
	"testing"

	"github.com/notargets/BEMKernel/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

var cellTypes = []utils.GeometryType{utils.Triangle, utils.Quadrilateral}

func TestNodalBasis(t *testing.T) {
	for _, ct := range cellTypes {
		for degree := 0; degree <= 4; degree++ {
			le, err := NewLagrangeElement(ct, degree, Discontinuous)
			require.NoError(t, err)
			phi, dr, ds := le.Tabulate(le.R(), le.S())
			Np := le.Np()
			for i := 0; i < Np; i++ {
				for q := 0; q < Np; q++ {
					want := 0.
					if i == q {
						want = 1
					}
					assert.InDelta(t, want, phi.At(i, q), 1.e-10, "%s φ_%d at node %d", le.ShortName(), i, q)
				}
			}
			// Partition of unity
			for q := 0; q < Np; q++ {
				var sum, sumR, sumS float64
				for i := 0; i < Np; i++ {
					sum += phi.At(i, q)
					sumR += dr.At(i, q)
					sumS += ds.At(i, q)
				}
				assert.InDelta(t, 1., sum, 1.e-10)
				assert.InDelta(t, 0., sumR, 1.e-9)
				assert.InDelta(t, 0., sumS, 1.e-9)
			}
		}
	}
}

func TestDerivatives(t *testing.T) {
	const h = 1.e-6
	r, s := []float64{0.21, 0.05}, []float64{0.13, 0.4}
	for _, ct := range cellTypes {
		le, err := NewLagrangeElement(ct, 3, Continuous)
		require.NoError(t, err)
		_, dr, ds := le.Tabulate(r, s)
		plusR, _, _ := le.Tabulate([]float64{r[0] + h, r[1] + h}, s)
		minusR, _, _ := le.Tabulate([]float64{r[0] - h, r[1] - h}, s)
		plusS, _, _ := le.Tabulate(r, []float64{s[0] + h, s[1] + h})
		minusS, _, _ := le.Tabulate(r, []float64{s[0] - h, s[1] - h})
		for i := 0; i < le.Np(); i++ {
			for q := range r {
				assert.InDelta(t, (plusR.At(i, q)-minusR.At(i, q))/(2*h), dr.At(i, q), 1.e-6)
				assert.InDelta(t, (plusS.At(i, q)-minusS.At(i, q))/(2*h), ds.At(i, q), 1.e-6)
			}
		}
	}
}

func TestEntityDofs(t *testing.T) {
	tri2, err := NewLagrangeFamily(2, Continuous).Element(utils.Triangle)
	require.NoError(t, err)
	assert.Equal(t, "Tri2", tri2.ShortName())
	assert.Equal(t, 6, tri2.Np())
	for v := 0; v < 3; v++ {
		assert.Len(t, tri2.EntityDofs(0, v), 1)
		assert.Len(t, tri2.EntityDofs(1, v), 1)
	}
	assert.Empty(t, tri2.EntityDofs(2, 0))

	quad3, err := NewLagrangeFamily(3, Discontinuous).Element(utils.Quadrilateral)
	require.NoError(t, err)
	assert.Equal(t, "DQuad3", quad3.ShortName())
	assert.Equal(t, 16, quad3.Np())
	assert.Len(t, quad3.EntityDofs(1, 2), 2)
	assert.Len(t, quad3.EntityDofs(2, 0), 4)

	// Every node is owned by exactly one entity, and vertex nodes sit on
	// the reference vertices
	for _, le := range []*LagrangeElement{tri2, quad3} {
		owner := make([]int, le.Np())
		count := func(dofs []int) {
			for _, d := range dofs {
				owner[d]++
			}
		}
		verts := ReferenceVertices(le.CellType())
		for v := range verts {
			count(le.EntityDofs(0, v))
			d := le.EntityDofs(0, v)[0]
			assert.True(t, floats.EqualApprox([]float64{le.R()[d], le.S()[d]}, verts[v][:], 1.e-14))
		}
		for e := range ReferenceEdges(le.CellType()) {
			count(le.EntityDofs(1, e))
		}
		count(le.EntityDofs(2, 0))
		for i, n := range owner {
			assert.Equal(t, 1, n, "%s node %d", le.ShortName(), i)
		}
	}

	dp0, err := NewLagrangeElement(utils.Quadrilateral, 0, Discontinuous)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, dp0.EntityDofs(2, 0))
}

func TestInvalidFamilies(t *testing.T) {
	assert.Error(t, NewLagrangeFamily(0, Continuous).Validate())
	assert.Error(t, NewLagrangeFamily(-1, Discontinuous).Validate())
	_, err := NewLagrangeElement(utils.Line, 1, Continuous)
	assert.Error(t, err)
}
