package importer

import (
	"fmt"
	"math"

	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
	"github.com/yofu/dxf/table"
)

// DXFOptions supplies what a floor plan cannot: box height and weight.
type DXFOptions struct {
	Height float64 // mm, required
	Weight float64 // kg per box
	// Origin shifts every footprint so that the drawing point Origin lands on
	// the container's rear-left corner.
	Origin model.Point2D
}

// edge is one piece of a shape boundary: its endpoints and the rectangle it
// sweeps, which for an arc reaches beyond the chord.
type edge struct {
	from, to model.Point2D
	extent   model.BBox
}

type footprint struct {
	extent model.BBox
	layer  string
}

// ImportDXF imports box footprints from a DXF floor plan. Each closed shape
// (LWPOLYLINE, CIRCLE, or closed chain of LINEs and ARCs) becomes a box
// covering the shape's extent, placed at its min corner. Shapes on a named
// layer (other than "0") are named after the layer.
func ImportDXF(path string, opts DXFOptions) ImportResult {
	result := ImportResult{}

	if !(opts.Height > 0) {
		result.Errors = append(result.Errors, "Box height must be positive")
		return result
	}
	if opts.Weight < 0 {
		result.Errors = append(result.Errors, "Box weight must not be negative")
		return result
	}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var shapes []footprint
	var loose []edge
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if len(e.Vertices) < 3 {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
				continue
			}
			pts := make([]model.Point2D, len(e.Vertices))
			for i, v := range e.Vertices {
				pts[i] = model.Point2D{X: v[0], Y: v[1]}
			}
			bulges := e.Bulges
			if !e.Closed && len(bulges) >= len(pts) {
				bulges = bulges[:len(pts)-1]
			}
			shapes = append(shapes, footprint{extent: polygonExtent(pts, bulges), layer: layerName(e.Layer())})

		case *entity.Circle:
			cx, cy, r := e.Center[0], e.Center[1], e.Radius
			shapes = append(shapes, footprint{
				extent: model.BBox{MinX: cx - r, MinY: cy - r, MaxX: cx + r, MaxY: cy + r},
				layer:  layerName(e.Layer()),
			})

		case *entity.Arc:
			sweep := e.Angle[1] - e.Angle[0]
			if sweep <= 0 {
				sweep += 360
			}
			loose = append(loose, arcEdge(
				model.Point2D{X: e.Circle.Center[0], Y: e.Circle.Center[1]},
				e.Circle.Radius, e.Angle[0]*math.Pi/180, sweep*math.Pi/180))

		case *entity.Line:
			loose = append(loose, lineEdge(
				model.Point2D{X: e.Start[0], Y: e.Start[1]},
				model.Point2D{X: e.End[0], Y: e.End[1]}))
		}
	}

	for _, bb := range chainEdges(loose, 0.01) {
		shapes = append(shapes, footprint{extent: bb})
	}

	if len(shapes) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	perLayer := map[string]int{}
	for i, sh := range shapes {
		length, width := sh.extent.Width(), sh.extent.Height()
		if length < 0.01 || width < 0.01 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", length, width))
			continue
		}

		name := fmt.Sprintf("DXF Box %d", i+1)
		if sh.layer != "" {
			perLayer[sh.layer]++
			name = fmt.Sprintf("%s_%d", sh.layer, perLayer[sh.layer])
		}

		b := model.NewBox(name, length, width, opts.Height)
		b.Weight = opts.Weight
		b.Color = Palette[len(result.Items)%len(Palette)]
		b.MoveTo(sh.extent.MinX-opts.Origin.X, sh.extent.MinY-opts.Origin.Y)
		result.Items = append(result.Items, b)
	}

	return result
}

// layerName returns the layer of an entity, or "" for the default layer.
func layerName(l *table.Layer) string {
	if l == nil || l.Name() == "0" {
		return ""
	}
	return l.Name()
}

// polygonExtent returns the extent of a closed polyline. bulges[i] curves the
// edge from vertex i to vertex i+1 (wrapping to the first vertex).
func polygonExtent(pts []model.Point2D, bulges []float64) model.BBox {
	bb := pointExtent(pts[0])
	for i, p := range pts {
		next := pts[(i+1)%len(pts)]
		e := lineEdge(p, next)
		if i < len(bulges) && math.Abs(bulges[i]) > 1e-9 {
			e = bulgeEdge(p, next, bulges[i])
		}
		bb = union(bb, e.extent)
	}
	return bb
}

func lineEdge(a, b model.Point2D) edge {
	return edge{from: a, to: b, extent: union(pointExtent(a), pointExtent(b))}
}

// bulgeEdge is the arc from p1 to p2 with the DXF bulge factor b, the tangent
// of a quarter of the included angle. Positive bulges turn counter-clockwise.
func bulgeEdge(p1, p2 model.Point2D, b float64) edge {
	if math.Hypot(p2.X-p1.X, p2.Y-p1.Y) < 1e-9 {
		return lineEdge(p1, p2)
	}
	k := (1 - b*b) / (4 * b)
	center := model.Point2D{
		X: (p1.X+p2.X)/2 - (p2.Y-p1.Y)*k,
		Y: (p1.Y+p2.Y)/2 + (p2.X-p1.X)*k,
	}
	r := math.Hypot(p1.X-center.X, p1.Y-center.Y)
	start := math.Atan2(p1.Y-center.Y, p1.X-center.X)
	e := arcEdge(center, r, start, 4*math.Atan(b))
	e.from, e.to = p1, p2
	return e
}

// arcEdge is the arc of radius r around c from angle start sweeping by sweep
// radians (negative sweeps run clockwise).
func arcEdge(c model.Point2D, r, start, sweep float64) edge {
	at := func(a float64) model.Point2D {
		return model.Point2D{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	from, to := at(start), at(start+sweep)
	bb := union(pointExtent(from), pointExtent(to))

	lo, hi := math.Min(start, start+sweep), math.Max(start, start+sweep)
	for k := math.Ceil(lo / (math.Pi / 2)); k*math.Pi/2 <= hi; k++ {
		bb = union(bb, pointExtent(at(k*math.Pi/2)))
	}
	return edge{from: from, to: to, extent: bb}
}

// chainEdges joins loose edges end to end and returns the extent of every
// chain that closes on itself, in drawing order. Open chains are dropped.
func chainEdges(edges []edge, tolerance float64) []model.BBox {
	used := make([]bool, len(edges))
	var closed []model.BBox

	for first := range edges {
		if used[first] {
			continue
		}
		used[first] = true
		head, tail := edges[first].from, edges[first].to
		bb := edges[first].extent

		for extended := true; extended; {
			extended = false
			for i, e := range edges {
				if used[i] {
					continue
				}
				switch {
				case pointsClose(tail, e.from, tolerance):
					tail = e.to
				case pointsClose(tail, e.to, tolerance):
					tail = e.from
				default:
					continue
				}
				used[i] = true
				bb = union(bb, e.extent)
				extended = true
				break
			}
		}

		if pointsClose(head, tail, tolerance) && bb.Width() > 0 && bb.Height() > 0 {
			closed = append(closed, bb)
		}
	}
	return closed
}

func pointsClose(a, b model.Point2D, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

func pointExtent(p model.Point2D) model.BBox {
	return model.BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
}

func union(a, b model.BBox) model.BBox {
	return model.BBox{
		MinX: math.Min(a.MinX, b.MinX),
		MinY: math.Min(a.MinY, b.MinY),
		MaxX: math.Max(a.MaxX, b.MaxX),
		MaxY: math.Max(a.MaxY, b.MaxY),
	}
}
