// Package export renders positioned topology graphs into portable formats:
// JSON, SVG, Graphviz DOT, and draw.io (diagrams.net) XML. Node positions
// come from the layout pass and are used as-is.
package export

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/layout"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// GraphToJSON returns the graph as indented JSON bytes.
func GraphToJSON(g *models.TopologyGraph) ([]byte, error) {
	if g == nil {
		return []byte("null"), nil
	}
	return json.MarshalIndent(g, "", "  ")
}

// GraphToSVG returns an SVG document representing the graph.
func GraphToSVG(g *models.TopologyGraph) ([]byte, error) {
	if g == nil || len(g.Nodes) == 0 {
		return []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="100"><text x="20" y="50" font-size="14">No resources</text></svg>`), nil
	}

	minX, minY := g.Nodes[0].Position.X, g.Nodes[0].Position.Y
	maxX, maxY := minX, minY
	for _, n := range g.Nodes {
		size := layout.SizeOf(n.Type)
		if n.Position.X < minX {
			minX = n.Position.X
		}
		if n.Position.Y < minY {
			minY = n.Position.Y
		}
		if right := n.Position.X + size.W; right > maxX {
			maxX = right
		}
		if bottom := n.Position.Y + size.H; bottom > maxY {
			maxY = bottom
		}
	}
	width := int(maxX-minX) + 40
	height := int(maxY-minY) + 40
	if width < 400 {
		width = 400
	}
	if height < 200 {
		height = 200
	}

	type box struct {
		x, y, w, h float64
	}
	boxes := make(map[string]box, len(g.Nodes))
	for _, n := range g.Nodes {
		size := layout.SizeOf(n.Type)
		boxes[n.ID] = box{
			x: n.Position.X - minX + 20,
			y: n.Position.Y - minY + 20,
			w: size.W,
			h: size.H,
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	buf.WriteString(`<defs><style>.node { fill: #e2e8f0; stroke: #64748b; stroke-width: 1; } .edge { stroke: #94a3b8; stroke-width: 2; fill: none; } .label { font: 12px sans-serif; fill: #334155; }</style></defs>`)
	for _, e := range g.Edges {
		src, ok1 := boxes[e.Source]
		dst, ok2 := boxes[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&buf, `<path class="edge" d="M %f %f L %f %f"/>`,
			src.x+src.w/2, src.y+src.h, dst.x+dst.w/2, dst.y)
	}
	for _, n := range g.Nodes {
		b := boxes[n.ID]
		label := n.Data.Label
		if len(label) > 18 {
			label = label[:15] + "..."
		}
		fmt.Fprintf(&buf, `<rect class="node" x="%f" y="%f" width="%f" height="%f" rx="4"/>`, b.x, b.y, b.w, b.h)
		fmt.Fprintf(&buf, `<text class="label" x="%f" y="%f" text-anchor="middle">%s: %s</text>`,
			b.x+b.w/2, b.y+b.h/2+4, escapeXML(string(n.Type)), escapeXML(label))
	}
	buf.WriteString("</svg>")
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;").Replace(s)
}

// GraphToDOT returns the graph in Graphviz DOT form. Layout positions are
// carried as pos attributes (points, y flipped since DOT grows upward) so
// neato -n can reproduce the arrangement.
func GraphToDOT(g *models.TopologyGraph) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph topology {\n")
	buf.WriteString("  node [shape=box style=rounded fontname=\"sans-serif\"];\n")
	if g != nil {
		present := make(map[string]bool, len(g.Nodes))
		for _, n := range g.Nodes {
			present[n.ID] = true
			size := layout.SizeOf(n.Type)
			fmt.Fprintf(&buf, "  %q [label=%q pos=\"%.0f,%.0f\" width=%.2f height=%.2f];\n",
				n.ID,
				string(n.Type)+": "+n.Data.Label,
				n.Position.X+size.W/2, -(n.Position.Y + size.H/2),
				size.W/72, size.H/72)
		}
		for _, e := range g.Edges {
			if !present[e.Source] || !present[e.Target] {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
		}
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// draw.io mxfile structure (minimal valid export)
type mxfile struct {
	XMLName  xml.Name  `xml:"mxfile"`
	Host     string    `xml:"host,attr"`
	Modified string    `xml:"modified,attr"`
	Agent    string    `xml:"agent,attr"`
	Version  string    `xml:"version,attr"`
	Diagram  mxDiagram `xml:"diagram"`
}

type mxDiagram struct {
	XMLName      xml.Name     `xml:"diagram"`
	ID           string       `xml:"id,attr"`
	Name         string       `xml:"name,attr"`
	MxGraphModel mxGraphModel `xml:"mxGraphModel"`
}

type mxGraphModel struct {
	XMLName  xml.Name `xml:"mxGraphModel"`
	DX       int      `xml:"dx,attr"`
	DY       int      `xml:"dy,attr"`
	Grid     int      `xml:"grid,attr"`
	GridSize int      `xml:"gridSize,attr"`
	Root     mxRoot   `xml:"root"`
}

type mxRoot struct {
	XMLName xml.Name `xml:"root"`
	Cells   []mxCell `xml:"mxCell"`
}

type mxCell struct {
	XMLName  xml.Name    `xml:"mxCell"`
	ID       string      `xml:"id,attr"`
	Parent   string      `xml:"parent,attr,omitempty"`
	Value    string      `xml:"value,attr,omitempty"`
	Style    string      `xml:"style,attr,omitempty"`
	Vertex   string      `xml:"vertex,attr,omitempty"`
	Edge     string      `xml:"edge,attr,omitempty"`
	Source   string      `xml:"source,attr,omitempty"`
	Target   string      `xml:"target,attr,omitempty"`
	Geometry *mxGeometry `xml:"mxGeometry,omitempty"`
}

type mxGeometry struct {
	XMLName  xml.Name `xml:"mxGeometry"`
	X        string   `xml:"x,attr,omitempty"`
	Y        string   `xml:"y,attr,omitempty"`
	Width    string   `xml:"width,attr,omitempty"`
	Height   string   `xml:"height,attr,omitempty"`
	Relative string   `xml:"relative,attr,omitempty"`
	As       string   `xml:"as,attr,omitempty"`
}

// GraphToDrawioXML returns draw.io (diagrams.net) XML bytes.
func GraphToDrawioXML(g *models.TopologyGraph) ([]byte, error) {
	if g == nil || len(g.Nodes) == 0 {
		return []byte(`<mxfile host="app.diagrams.net"><diagram id="0" name="empty"><mxGraphModel dx="0" dy="0" grid="1" gridSize="10"><root><mxCell id="1"/></root></mxGraphModel></diagram></mxfile>`), nil
	}

	cellID := 2
	cells := []mxCell{{XMLName: xml.Name{Local: "mxCell"}, ID: "1"}}
	nodeIDToCell := make(map[string]string)
	for _, n := range g.Nodes {
		cid := fmt.Sprintf("%d", cellID)
		cellID++
		nodeIDToCell[n.ID] = cid
		label := string(n.Type) + ": " + n.Data.Label
		if len(label) > 40 {
			label = label[:37] + "..."
		}
		size := layout.SizeOf(n.Type)
		cells = append(cells, mxCell{
			ID:     cid,
			Parent: "1",
			Value:  label,
			Style:  "rounded=1;whiteSpace=wrap;html=1;fillColor=#e2e8f0;strokeColor=#64748b;",
			Vertex: "1",
			Geometry: &mxGeometry{
				X: fmt.Sprintf("%f", n.Position.X), Y: fmt.Sprintf("%f", n.Position.Y),
				Width: fmt.Sprintf("%f", size.W), Height: fmt.Sprintf("%f", size.H), As: "geometry",
			},
		})
	}
	for _, e := range g.Edges {
		srcID, ok1 := nodeIDToCell[e.Source]
		dstID, ok2 := nodeIDToCell[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		cells = append(cells, mxCell{
			ID:       fmt.Sprintf("%d", cellID),
			Parent:   "1",
			Edge:     "1",
			Source:   srcID,
			Target:   dstID,
			Style:    "endArrow=classic;html=1;strokeColor=#94a3b8;",
			Geometry: &mxGeometry{Relative: "1", As: "geometry"},
		})
		cellID++
	}
	mx := mxfile{
		Host: "app.diagrams.net", Modified: "2025-01-01T00:00:00.000Z", Agent: "Kaptivan", Version: "21.0.0",
		Diagram: mxDiagram{
			ID: "topology", Name: "Topology",
			MxGraphModel: mxGraphModel{DX: 1200, DY: 800, Grid: 1, GridSize: 10, Root: mxRoot{Cells: cells}},
		},
	}
	return xml.MarshalIndent(mx, "", "  ")
}
