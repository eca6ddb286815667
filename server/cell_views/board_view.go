package cell_views

import (
	"fmt"
	"html/template"

	"taxi/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// TaxiBoard renders the grid as an html table: one <td> per cell, each
// independently addressable by id so onUpdate can diff and push only the
// cells that changed between steps, the same EleUpdate contract the rest
// of fastview's views use.
type TaxiBoard struct {
	id      string
	last    [][]Cell
	updates <-chan []fastview.EleUpdate
}

// NewTaxiBoard builds the board view from a stream of converted cell grids.
func NewTaxiBoard(
	done <-chan struct{},
	cells <-chan [][]Cell,
) *TaxiBoard {
	id := "taxiboard"
	tb := &TaxiBoard{id: template.HTMLEscapeString(id)}
	tb.updates = channerics.Convert(done, cells, tb.onUpdate)
	return tb
}

func (tb *TaxiBoard) Updates() <-chan []fastview.EleUpdate {
	return tb.updates
}

func cellID(x, y int) string {
	return fmt.Sprintf("%s-cell-%d-%d", "taxiboard", x, y)
}

// onUpdate diffs the incoming grid against the last one rendered and
// returns only the cells whose label or fill actually changed.
func (tb *TaxiBoard) onUpdate(cells [][]Cell) (ops []fastview.EleUpdate) {
	for x, row := range cells {
		for y, cell := range row {
			if tb.last != nil && tb.last[x][y] == cell {
				continue
			}
			ops = append(ops, fastview.EleUpdate{
				EleId: cellID(x, y),
				Ops: []fastview.Op{
					{Key: "textContent", Value: cell.Label},
					{Key: "style", Value: "background-color:" + cell.Fill},
				},
			})
		}
	}
	tb.last = cells
	return
}

// Parse builds a template that ranges over the [][]Cell passed to
// Execute at serve time (the initial board), then relies on onUpdate's
// EleUpdate diffs, pushed over websocket, to keep individual cells in
// sync thereafter. Rows are emitted in increasing y so grid row 0 ends
// up at the top of the page, matching world.RenderLines' top-down
// orientation.
func (tb *TaxiBoard) Parse(t *template.Template) (name string, err error) {
	name = tb.id
	addedMap := template.FuncMap{
		"cellID": cellID,
		"until": func(n int) []int {
			r := make([]int, n)
			for i := range r {
				r[i] = i
			}
			return r
		},
	}
	_, err = t.Funcs(addedMap).Parse(
		`{{ define "` + name + `" }}
		<table id="` + tb.id + `" style="border-collapse:collapse;">
		{{ $cells := . }}
		{{ $width := len $cells }}
		{{ $height := len (index $cells 0) }}
		{{ range $y := until $height }}
			<tr>
			{{ range $x := until $width }}
				{{ $cell := index $cells $x $y }}
				<td id="{{ cellID $x $y }}" style="width:40px;height:40px;border:1px solid black;text-align:center;background-color:{{ $cell.Fill }}">{{ $cell.Label }}</td>
			{{ end }}
			</tr>
		{{ end }}
		</table>
		{{ end }}`)
	return
}
