package cell_views

import (
	"fmt"
	"html/template"
	"strconv"

	"gridmdp/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Snapshot is the view-model of one sweep: its index, residual, rendered text and cells.
type Snapshot struct {
	K        int
	Residual float64
	Text     string
	Cells    [][]Cell
}

// ValuesGrid is an svg grid showing each cell's value and an arrow for its policy action.
type ValuesGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

// NewValuesGrid returns a view whose updates follow the snapshots chan.
func NewValuesGrid(
	done <-chan struct{},
	snapshots <-chan Snapshot,
) (vg *ValuesGrid) {
	vg = &ValuesGrid{id: "valuesgrid"}
	vg.updates = channerics.Convert(done, snapshots, vg.onUpdate)
	return
}

func (vg *ValuesGrid) Updates() <-chan []fastview.EleUpdate {
	return vg.updates
}

// Parse defines the grid over the page's initial .Cells.
func (vg *ValuesGrid) Parse(parent *template.Template) (name string, err error) {
	name = vg.id
	_, err = parent.Parse(`{{ define "` + name + `" }}
		<div id="state_values">
			{{ $cell_width := 100 }}
			{{ $cell_height := $cell_width }}
			{{ $rows := len .Cells }}
			{{ $cols := len (index .Cells 0) }}
			{{ $half_width := div $cell_width 2 }}
			{{ $half_height := div $cell_height 2 }}
			<svg id="` + vg.id + `"
				width="{{ add (mult $cell_width $cols) 1 }}px"
				height="{{ add (mult $cell_height $rows) 1 }}px"
				style="shape-rendering: crispEdges;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
					<g>
						<rect
							x="{{ mult $cell.X $cell_width }}"
							y="{{ mult $cell.Y $cell_height }}"
							width="{{ $cell_width }}"
							height="{{ $cell_height }}"
							fill="{{ $cell.Fill }}"
							stroke="black"
							stroke-width="1"/>
						<text id="{{$cell.X}}-{{$cell.Y}}-value-text"
							x="{{ add (mult $cell.X $cell_width) $half_width }}"
							y="{{ add (mult $cell.Y $cell_height) (sub $half_height 10) }}"
							stroke="blue"
							dominant-baseline="text-top" text-anchor="middle"
							>{{ $cell.Value }}</text>
						<g transform="translate({{ add (mult $cell.X $cell_width) $half_width }}, {{ add (mult $cell.Y $cell_height) (add $half_height 20) }})">
							<text id="{{$cell.X}}-{{$cell.Y}}-policy-arrow"
							stroke="blue" stroke-width="1"
							dominant-baseline="central" text-anchor="middle"
							visibility="{{ visibility $cell.Policy }}"
							transform="rotate({{ $cell.PolicyArrowRotation }})"
							>&uarr;</text>
						</g>
					</g>
					{{ end }}
				{{ end }}
			</svg>
		</div>
	{{ end }}`)
	return
}

// Visibility hides the policy arrow of cells without a compass action.
func Visibility(policy string) string {
	switch policy {
	case "N", "E", "S", "W":
		return "visible"
	}
	return "hidden"
}

func (vg *ValuesGrid) onUpdate(snapshot Snapshot) (ops []fastview.EleUpdate) {
	for _, row := range snapshot.Cells {
		for _, cell := range row {
			ops = append(ops, fastview.SetText(
				fmt.Sprintf("%d-%d-value-text", cell.X, cell.Y),
				cell.Value))
			ops = append(ops, fastview.EleUpdate{
				EleId: fmt.Sprintf("%d-%d-policy-arrow", cell.X, cell.Y),
				Ops: []fastview.Op{
					{Key: "transform", Value: "rotate(" + strconv.Itoa(cell.PolicyArrowRotation) + ")"},
					{Key: "visibility", Value: Visibility(cell.Policy)},
				},
			})
		}
	}
	return
}
