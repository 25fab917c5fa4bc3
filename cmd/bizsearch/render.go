package main

import (
	"fmt"
	"io"

	"github.com/ralfiz/bizdesk/internal/search"
)

type renderer struct {
	w io.Writer
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w}
}

// render печатает состояние поля поиска. Промежуточное состояние ожидания без запроса не выводится.
func (r *renderer) render(v search.View) {
	switch v.State {
	case search.StatePending:
		if v.Loading {
			fmt.Fprintf(r.w, "searching %q...\n", v.Query)
		}
	case search.StateError:
		fmt.Fprintln(r.w, v.Message)
	case search.StateDisplaying:
		if len(v.Results) == 0 {
			fmt.Fprintf(r.w, "no results for %q\n", v.Query)
			return
		}
		for _, g := range search.GroupByType(v.Results) {
			fmt.Fprintf(r.w, "%s\n", g.Label)
			for _, res := range g.Results {
				if res.Subtitle != "" {
					fmt.Fprintf(r.w, "  %s (%s)  %s\n", res.Title, res.Subtitle, res.URL)
					continue
				}
				fmt.Fprintf(r.w, "  %s  %s\n", res.Title, res.URL)
			}
		}
	}
}
