package root_view

import (
	"context"
	"html/template"

	"gridmdp/cell_views"
	"gridmdp/grid_world"
	"gridmdp/reinforcement"
	"gridmdp/server/fastview"
)

// RootView is a run's page: the container for the view components, the wiring of their
// channels, and the websocket bootstrap.
type RootView struct {
	grid    *grid_world.Grid
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// PageModel is the data the page template is executed with.
type PageModel struct {
	Title        string
	Cells        [][]cell_views.Cell
	WsPath       string
	DocumentPath string
}

// NewRootView builds the views of a run over the grid, fed by its replayed sweeps. The
// update chan closes once sweeps is closed and drained, or ctx is cancelled.
func NewRootView(
	ctx context.Context,
	grid *grid_world.Grid,
	sweeps <-chan reinforcement.Sweep,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[reinforcement.Sweep, cell_views.Snapshot]().
		WithContext(ctx).
		WithModel(sweeps, SnapshotOf(grid)).
		WithView(func(
			done <-chan struct{},
			snapshots <-chan cell_views.Snapshot) fastview.ViewComponent {
			return cell_views.NewValuesGrid(done, snapshots)
		}).
		WithView(func(
			done <-chan struct{},
			snapshots <-chan cell_views.Snapshot) fastview.ViewComponent {
			return cell_views.NewSweepText(done, snapshots)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		grid:    grid,
		views:   views,
		updates: fastview.FanIn(ctx.Done(), views),
	}, nil
}

// SnapshotOf returns the conversion from sweeps over grid to view-models.
func SnapshotOf(grid *grid_world.Grid) func(reinforcement.Sweep) cell_views.Snapshot {
	return func(sweep reinforcement.Sweep) cell_views.Snapshot {
		text := sweep.ValuesText
		if sweep.Policy != nil {
			text += "\n" + sweep.PolicyText
		}
		return cell_views.Snapshot{
			K:        sweep.K,
			Residual: sweep.Residual,
			Text:     text,
			Cells:    cell_views.Convert(grid, sweep.Values, sweep.Policy),
		}
	}
}

// Updates returns the element-update chan for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Model returns the page data before any sweep has been received.
func (rv *RootView) Model(title, wsPath, documentPath string) PageModel {
	return PageModel{
		Title:        title,
		Cells:        cell_views.Convert(rv.grid, grid_world.NewValueFunction(rv.grid), nil),
		WsPath:       wsPath,
		DocumentPath: documentPath,
	}
}

// Parse builds the page template, with websocket bootstrap code, and returns its name.
// It also sets up the func-map the child components depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":        func(i, j int) int { return i + j },
			"sub":        func(i, j int) int { return i - j },
			"mult":       func(i, j int) int { return i * j },
			"div":        func(i, j int) int { return i / j },
			"visibility": cell_views.Visibility,
		})

	var bodySpec string
	for _, vc := range rv.views {
		var tname string
		if tname, err = vc.Parse(rt); err != nil {
			return
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	// The page bootstraps the rest: opens the websocket and applies element updates; once the
	// server closes the socket the final document is fetched.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>{{ .Title }}</title>
			<link rel="icon" href="data:,">
			<script>
				const scheme = location.protocol === "https:" ? "wss://" : "ws://";
				const ws = new WebSocket(scheme + location.host + "{{ .WsPath }}");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// When the server pushes view updates, find these eles and update them.
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}

				ws.onclose = function (event) {
					fetch("{{ .DocumentPath }}")
						.then(resp => resp.text())
						.then(text => { document.getElementById("document").textContent = text; });
				};
			</script>
		</head>
		<body>
		<h3>{{ .Title }}</h3>
		` + bodySpec + `
		<pre id="document"></pre>
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}
