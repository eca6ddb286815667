// root_view builds the single page served by the replay viewer: one
// taxi board view, wired to a stream of world.State updates.
package root_view

import (
	"context"
	"html/template"
	"log"

	"taxi/server/cell_views"
	"taxi/server/fastview"
	"taxi/world"
)

// RootView is the main page's index.html, the container for the board
// view and the wiring for its update channel.
type RootView struct {
	view    fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the main page and the taxi board view it contains.
func NewRootView(
	ctx context.Context,
	w *world.World,
	stateUpdates <-chan world.State,
) *RootView {
	views, err := fastview.NewViewBuilder[world.State, [][]cell_views.Cell]().
		WithContext(ctx).
		WithModel(stateUpdates, func(s world.State) [][]cell_views.Cell {
			return cell_views.Convert(w, s)
		}).
		WithView(func(
			done <-chan struct{},
			cellUpdates <-chan [][]cell_views.Cell,
		) fastview.ViewComponent {
			return cell_views.NewTaxiBoard(done, cellUpdates)
		}).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	return &RootView{
		view:    views[0],
		updates: views[0].Updates(),
	}
}

// Updates returns the board's ele-update channel.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code
// and the keyboard handler that drives step navigation (the replay
// viewer's arrow-forward/back, Esc-exits contract).
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add": func(i, j int) int { return i + j },
			"sub": func(i, j int) int { return i - j },
		})

	var tname string
	if tname, err = rv.view.Parse(rt); err != nil {
		return
	}

	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + window.location.host + "/ws");
				ws.onopen = function (event) {
					console.log("replay socket opened");
				};
				ws.onerror = function (event) {
					console.log("replay socket error: ", event);
				};
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data);
					for (const update of items) {
						const ele = document.getElementById(update.EleId);
						if (!ele) { continue; }
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value);
							}
						}
					}
				};
				document.addEventListener("keydown", function (event) {
					if (event.key === "ArrowRight") {
						ws.send("next");
					} else if (event.key === "ArrowLeft") {
						ws.send("prev");
					} else if (event.key === "Escape") {
						ws.send("esc");
					}
				});
			</script>
		</head>
		<body>
			<p id="step-label">step 0</p>
			{{ template "` + tname + `" . }}
		</body>
	</html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}
