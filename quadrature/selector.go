package quadrature

import (
	"fmt"
	"sync"

	"github.com/notargets/BEMKernel/utils"
)

// Adjacency classifies the geometric relation of a test/trial cell pair
type Adjacency uint8

const (
	Disjoint Adjacency = iota
	Vertex
	Edge
	Identical
)

func (a Adjacency) String() string {
	switch a {
	case Disjoint:
		return "Disjoint"
	case Vertex:
		return "Vertex"
	case Edge:
		return "Edge"
	case Identical:
		return "Identical"
	default:
		return fmt.Sprintf("Adjacency(%d)", uint8(a))
	}
}

// Classify derives the adjacency from the number of shared vertices
func Classify(sameCell bool, sharedVertices int) (Adjacency, error) {
	if sameCell {
		return Identical, nil
	}
	switch sharedVertices {
	case 0:
		return Disjoint, nil
	case 1:
		return Vertex, nil
	case 2:
		return Edge, nil
	default:
		return Disjoint, fmt.Errorf("distinct cells share %d vertices", sharedVertices)
	}
}

// SingularOrder holds the Gauss points per cube direction of each singular
// rule
type SingularOrder struct {
	Vertex    int `yaml:"vertex"`
	Edge      int `yaml:"edge"`
	Identical int `yaml:"identical"`
}

func (so SingularOrder) For(adj Adjacency) int {
	switch adj {
	case Vertex:
		return so.Vertex
	case Edge:
		return so.Edge
	default:
		return so.Identical
	}
}

// Selector hands out precomputed rules. Selection is a pure function of
// (cell type, adjacency, configured order); rules are built once and shared
// read-only between workers.
type Selector struct {
	RegularOrder  int
	SingularOrder SingularOrder

	mu       sync.Mutex
	regular  map[utils.GeometryType]*Rule
	singular map[Adjacency]*PairRule
	standard *Rule
}

func NewSelector(regularOrder int, singularOrder SingularOrder) *Selector {
	return &Selector{
		RegularOrder:  regularOrder,
		SingularOrder: singularOrder,
		regular:       make(map[utils.GeometryType]*Rule),
		singular:      make(map[Adjacency]*PairRule),
	}
}

// Regular returns the rule used on a cell of a disjoint pair
func (s *Selector) Regular(ct utils.GeometryType) *Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regular[ct]
	if !ok {
		r = RegularRule(ct, s.RegularOrder)
		s.regular[ct] = r
	}
	return r
}

// SubTriangleRule returns the regular triangle rule used on disjoint
// sub-triangle pairs of touching cells
func (s *Selector) SubTriangleRule() *Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.standard == nil {
		s.standard = TriangleRule(s.RegularOrder)
	}
	return s.standard
}

// Singular returns the pair rule of a touching sub-triangle pair
func (s *Selector) Singular(adj Adjacency) *PairRule {
	if adj == Disjoint {
		panic("disjoint pairs use regular rules")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.singular[adj]
	if !ok {
		r = SauterSchwab(adj, s.SingularOrder.For(adj))
		s.singular[adj] = r
	}
	return r
}
