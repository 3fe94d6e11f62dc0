package cell_views

import (
	"html/template"
	"strconv"

	"gridmdp/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// SweepText shows the sweep index, its residual and the rendered value grid.
type SweepText struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewSweepText(
	done <-chan struct{},
	snapshots <-chan Snapshot,
) (st *SweepText) {
	st = &SweepText{id: "sweeptext"}
	st.updates = channerics.Convert(done, snapshots, st.onUpdate)
	return
}

func (st *SweepText) Updates() <-chan []fastview.EleUpdate {
	return st.updates
}

func (st *SweepText) Parse(parent *template.Template) (name string, err error) {
	name = st.id
	_, err = parent.Parse(`{{ define "` + name + `" }}
		<div id="` + st.id + `">
			<p>sweep <span id="sweep-k">-</span>, residual <span id="sweep-residual">-</span></p>
			<pre id="sweep-text"></pre>
		</div>
	{{ end }}`)
	return
}

func (st *SweepText) onUpdate(snapshot Snapshot) []fastview.EleUpdate {
	return []fastview.EleUpdate{
		fastview.SetText("sweep-k", strconv.Itoa(snapshot.K)),
		fastview.SetText("sweep-residual", strconv.FormatFloat(snapshot.Residual, 'g', 6, 64)),
		fastview.SetText("sweep-text", snapshot.Text),
	}
}
