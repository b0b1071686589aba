// Package views renders the server-side HTML shell with templ components.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/cdm/internal/core"
)

// EntitySummary is one dashboard card.
type EntitySummary struct {
	Info  core.EntityInfo
	Count int
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title>`+
			`<meta name="viewport" content="width=device-width, initial-scale=1"></head><body><main>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// Dashboard lists every entity kind with its record count.
func Dashboard(entities []EntitySummary, uploads core.UploadLimiterStatus) templ.Component {
	return layout("Canonical Data Model", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Canonical Data Model</h1><table class="entities"><thead><tr><th>Entity</th><th>Records</th><th>Columns</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, e := range entities {
			_, err := fmt.Fprintf(w, `<tr><td><a href="/api/%s">%s</a></td><td>%d</td><td>%d</td></tr>`,
				templ.EscapeString(string(e.Info.Kind)), templ.EscapeString(e.Info.Label), e.Count, len(e.Info.Columns))
			if err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `</tbody></table><p class="uploads">Uploads: %d active of %d</p>`,
			uploads.Active, uploads.MaxConcurrent)
		return err
	}))
}

// GraphPage renders a graph as node and edge tables.
func GraphPage(title string, g core.Graph) templ.Component {
	return layout(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1><h2>Nodes</h2><table class="nodes"><thead><tr><th>Label</th><th>Kind</th><th>Depth</th></tr></thead><tbody>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		for _, n := range g.Nodes {
			_, err := fmt.Fprintf(w, `<tr id="node-%s"><td>%s</td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(n.ID), templ.EscapeString(n.Label), templ.EscapeString(string(n.Kind)), strconv.Itoa(n.Depth))
			if err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table><h2>Edges</h2><table class="edges"><thead><tr><th>From</th><th>To</th><th>Type</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, e := range g.Edges {
			_, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(g.Label(e.From)), templ.EscapeString(g.Label(e.To)), templ.EscapeString(e.Label))
			if err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	}))
}

// ErrorAlert is the HTML rendering of a user-facing error.
func ErrorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="error" role="alert"><p>%s</p>`, templ.EscapeString(msg.Message))
		if err != nil {
			return err
		}
		if msg.Action != "" {
			if _, err := fmt.Fprintf(w, `<p class="action">%s</p>`, templ.EscapeString(msg.Action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<p class="code">Code: %s</p></div>`, templ.EscapeString(msg.Code))
		return err
	})
}
