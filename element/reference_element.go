package element

import (
	"fmt"

	"github.com/notargets/BEMKernel/utils"
)

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D elements (points)
	D1                       // 1D elements (lines, edges)
	D2                       // 2D elements (triangles, quadrilaterals)
)

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name       string             // Full descriptive name (e.g., "Discontinuous Lagrange Triangle Order 1")
	ShortName  string             // Abbreviated name (e.g., "DTri1")
	Type       utils.GeometryType // Element shape
	Order      int                // Polynomial degree
	Np         int                // Total number of nodes/basis functions
	NEp        int                // Number of nodes strictly inside each edge
	NVp        int                // Number of vertex nodes
	NIp        int                // Number of strictly interior nodes
	NEdges     int                // Number of edges of the reference cell
	Dimensions Dimensionality     // Spatial dimension of the reference cell
}

// ReferenceGeometry defines the layout of nodes on the reference cell
// Triangle: (0,0),(1,0),(0,1). Quadrilateral: (0,0),(1,0),(0,1),(1,1).
type ReferenceGeometry struct {
	// Node coordinates in reference space, length Np each
	R, S []float64

	// Node classification by topological entity
	VertexPoints   []int   // Indices of nodes located at vertices
	EdgePoints     [][]int // [edge_num][point_indices] - nodes inside each edge, first to second vertex
	InteriorPoints []int   // Indices of nodes strictly inside the cell
}

// ReferenceVertices returns the corner coordinates of the reference cell
func ReferenceVertices(ct utils.GeometryType) [][2]float64 {
	switch ct {
	case utils.Triangle:
		return [][2]float64{{0, 0}, {1, 0}, {0, 1}}
	case utils.Quadrilateral:
		return [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	default:
		panic(fmt.Sprintf("no reference cell for %v", ct))
	}
}

// ReferenceEdges returns the vertex pairs of the reference cell's edges
// Triangle edge i is opposite vertex i; quadrilateral edges follow the
// tensor-product ordering.
func ReferenceEdges(ct utils.GeometryType) [][2]int {
	switch ct {
	case utils.Triangle:
		return [][2]int{{1, 2}, {0, 2}, {0, 1}}
	case utils.Quadrilateral:
		return [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}
	default:
		panic(fmt.Sprintf("no reference cell for %v", ct))
	}
}

// ReferenceSubTriangles splits the reference cell into triangles whose
// corners are reference vertices. Quadrilaterals are cut along the 0-3
// diagonal.
func ReferenceSubTriangles(ct utils.GeometryType) [][3]int {
	switch ct {
	case utils.Triangle:
		return [][3]int{{0, 1, 2}}
	case utils.Quadrilateral:
		return [][3]int{{0, 1, 3}, {0, 3, 2}}
	default:
		panic(fmt.Sprintf("no reference cell for %v", ct))
	}
}

// ReferenceElement exposes the metadata and node layout of an element
type ReferenceElement interface {
	GetProperties() ElementProperties
	GetReferenceGeometry() ReferenceGeometry
}
