package geometry

// Triangle is three vertices laid out as x0,y0,z0,x1,y1,z1,x2,y2,z2.
type Triangle [9]float64

// Mesh is a triangle soup as returned by Backend.Triangulate.
type Mesh []Triangle

// IndexedMesh is a mesh with duplicate vertices merged. Cell i spans
// Connectivity[Offsets[i]:Offsets[i+1]], so Offsets has one more entry than
// there are cells.
type IndexedMesh struct {
	Points       [][3]float32
	Connectivity []int64
	Offsets      []int64
}

// Cells returns the number of triangles in the indexed mesh.
func (m *IndexedMesh) Cells() int {
	if m == nil || len(m.Offsets) == 0 {
		return 0
	}
	return len(m.Offsets) - 1
}

// Index merges vertices that are equal at float32 precision and returns the
// mesh in points/connectivity/offsets form.
func Index(mesh Mesh) *IndexedMesh {
	out := &IndexedMesh{
		Points:       make([][3]float32, 0, len(mesh)),
		Connectivity: make([]int64, 0, len(mesh)*3),
		Offsets:      make([]int64, 0, len(mesh)+1),
	}
	ids := make(map[[3]float32]int64, len(mesh))

	out.Offsets = append(out.Offsets, 0)
	for _, tri := range mesh {
		for v := 0; v < 3; v++ {
			p := [3]float32{float32(tri[v*3]), float32(tri[v*3+1]), float32(tri[v*3+2])}
			id, ok := ids[p]
			if !ok {
				id = int64(len(out.Points))
				ids[p] = id
				out.Points = append(out.Points, p)
			}
			out.Connectivity = append(out.Connectivity, id)
		}
		out.Offsets = append(out.Offsets, int64(len(out.Connectivity)))
	}
	return out
}
