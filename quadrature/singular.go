package quadrature

import "fmt"

// PairRule is a quadrature rule on the product of two canonical triangles
// {0 <= x2 <= x1 <= 1}. Point q pairs the test point (X1[q], X2[q]) with the
// trial point (Y1[q], Y2[q]). Shared entities sit at canonical positions:
// a shared vertex at (0,0), a shared edge along (0,0)-(1,0).
type PairRule struct {
	Adjacency Adjacency
	X1, X2    []float64
	Y1, Y2    []float64
	W         []float64
}

func (p *PairRule) Npts() int { return len(p.W) }

func (p *PairRule) add(w, x1, x2, y1, y2 float64) {
	p.X1 = append(p.X1, x1)
	p.X2 = append(p.X2, x2)
	p.Y1 = append(p.Y1, y1)
	p.Y2 = append(p.Y2, y2)
	p.W = append(p.W, w)
}

// Swapped returns the rule with test and trial roles exchanged
func (p *PairRule) Swapped() *PairRule {
	return &PairRule{Adjacency: p.Adjacency, X1: p.Y1, X2: p.Y2, Y1: p.X1, Y2: p.X2, W: p.W}
}

// symmetrized makes the rule closed under test/trial exchange so that
// symmetric kernels produce exactly symmetric interaction blocks
func (p *PairRule) symmetrized() *PairRule {
	out := &PairRule{Adjacency: p.Adjacency}
	for q := range p.W {
		out.add(0.5*p.W[q], p.X1[q], p.X2[q], p.Y1[q], p.Y2[q])
		out.add(0.5*p.W[q], p.Y1[q], p.Y2[q], p.X1[q], p.X2[q])
	}
	return out
}

// SauterSchwab builds the singularity-cancelling pair rule for touching
// triangles with n Gauss points per direction of the unit 4-cube. The
// regions and Jacobians follow Sauter & Schwab, Boundary Element Methods,
// §5.2: every region Jacobian vanishes like |x-y| on the singular set.
func SauterSchwab(adj Adjacency, n int) *PairRule {
	if n < 1 {
		panic(fmt.Sprintf("singular rule needs at least one point, got %d", n))
	}
	g, w := GaussLegendre01(n)
	rule := &PairRule{Adjacency: adj}
	for i0 := 0; i0 < n; i0++ {
		for i1 := 0; i1 < n; i1++ {
			for i2 := 0; i2 < n; i2++ {
				for i3 := 0; i3 < n; i3++ {
					var (
						xi, e1, e2, e3 = g[i0], g[i1], g[i2], g[i3]
						wt             = w[i0] * w[i1] * w[i2] * w[i3]
					)
					switch adj {
					case Identical:
						identicalRegions(rule, wt, xi, e1, e2, e3)
					case Edge:
						edgeRegions(rule, wt, xi, e1, e2, e3)
					case Vertex:
						vertexRegions(rule, wt, xi, e1, e2, e3)
					default:
						panic(fmt.Sprintf("no singular rule for %v pairs", adj))
					}
				}
			}
		}
	}
	if adj == Edge {
		return rule.symmetrized()
	}
	return rule
}

func identicalRegions(p *PairRule, wt, xi, e1, e2, e3 float64) {
	wj := wt * xi * xi * xi * e1 * e1 * e2
	p.add(wj, xi, xi*(1-e1+e1*e2), xi*(1-e1*e2*e3), xi*(1-e1))
	p.add(wj, xi*(1-e1*e2*e3), xi*(1-e1), xi, xi*(1-e1+e1*e2))
	p.add(wj, xi, xi*e1*(1-e2+e2*e3), xi*(1-e1*e2), xi*e1*(1-e2))
	p.add(wj, xi*(1-e1*e2), xi*e1*(1-e2), xi, xi*e1*(1-e2+e2*e3))
	p.add(wj, xi*(1-e1*e2*e3), xi*e1*(1-e2*e3), xi, xi*e1*(1-e2))
	p.add(wj, xi, xi*e1*(1-e2), xi*(1-e1*e2*e3), xi*e1*(1-e2*e3))
}

func edgeRegions(p *PairRule, wt, xi, e1, e2, e3 float64) {
	w0 := wt * xi * xi * xi * e1 * e1
	wj := w0 * e2
	p.add(w0, xi, xi*e1*e3, xi*(1-e1*e2), xi*e1*(1-e2))
	p.add(wj, xi, xi*e1, xi*(1-e1*e2*e3), xi*e1*e2*(1-e3))
	p.add(wj, xi*(1-e1*e2), xi*e1*(1-e2), xi, xi*e1*e2*e3)
	p.add(wj, xi*(1-e1*e2*e3), xi*e1*e2*(1-e3), xi, xi*e1)
	p.add(wj, xi*(1-e1*e2*e3), xi*e1*(1-e2*e3), xi, xi*e1*e2)
}

func vertexRegions(p *PairRule, wt, xi, e1, e2, e3 float64) {
	wj := wt * xi * xi * xi * e2
	p.add(wj, xi, xi*e1, xi*e2, xi*e2*e3)
	p.add(wj, xi*e2, xi*e2*e3, xi, xi*e1)
}
