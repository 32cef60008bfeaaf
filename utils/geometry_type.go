package utils

import "fmt"

// GeometryType identifies the reference shape of a mesh entity
type GeometryType uint8

const (
	Point GeometryType = iota
	Line

	// Surface cell types
	Triangle
	Quadrilateral
)

func (g GeometryType) String() string {
	switch g {
	case Point:
		return "Point"
	case Line:
		return "Line"
	case Triangle:
		return "Triangle"
	case Quadrilateral:
		return "Quadrilateral"
	default:
		return fmt.Sprintf("GeometryType(%d)", uint8(g))
	}
}

// Dim returns the topological dimension of the shape
func (g GeometryType) Dim() int {
	switch g {
	case Point:
		return 0
	case Line:
		return 1
	default:
		return 2
	}
}

// NumVertices returns the number of corner vertices
func (g GeometryType) NumVertices() int {
	switch g {
	case Point:
		return 1
	case Line:
		return 2
	case Triangle:
		return 3
	case Quadrilateral:
		return 4
	default:
		panic(fmt.Sprintf("unsupported geometry type %v", g))
	}
}

// NumEdges returns the number of edges bounding the shape
func (g GeometryType) NumEdges() int {
	switch g {
	case Point:
		return 0
	case Line:
		return 1
	case Triangle:
		return 3
	case Quadrilateral:
		return 4
	default:
		panic(fmt.Sprintf("unsupported geometry type %v", g))
	}
}

// CellTypeFromVertexCount infers the surface cell type from its corner count
func CellTypeFromVertexCount(n int) (GeometryType, error) {
	switch n {
	case 3:
		return Triangle, nil
	case 4:
		return Quadrilateral, nil
	default:
		return 0, fmt.Errorf("no surface cell type has %d vertices", n)
	}
}
