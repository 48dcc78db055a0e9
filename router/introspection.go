// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

// RouteInfo is a printable summary of a compiled route.
type RouteInfo struct {
	Method  string
	URI     string
	Handler string
	Filters []string
}

// RouteInfos summarizes the compiled routes in registration order.
func (r *Router) RouteInfos() []RouteInfo {
	routes := r.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, spec := range routes {
		handler := "-"
		if ref, ok := spec.Handler(); ok {
			handler = ref.String()
		}
		out = append(out, RouteInfo{
			Method:  spec.Method(),
			URI:     spec.URI(),
			Handler: handler,
			Filters: spec.FilterChain().Names(),
		})
	}

	return out
}

var methodColors = map[string]string{
	http.MethodGet:     "10",
	http.MethodPost:    "12",
	http.MethodPut:     "11",
	http.MethodDelete:  "9",
	http.MethodPatch:   "13",
	http.MethodHead:    "14",
	http.MethodOptions: "7",
	MethodWS:           "208",
}

// PrintRoutes renders the compiled routes as a table. Colors are used only
// when w is a terminal.
func (r *Router) PrintRoutes(w io.Writer) {
	infos := r.RouteInfos()
	if len(infos) == 0 {
		return
	}

	useColors := false
	width := 120
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		useColors = true
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			width = tw
		}
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		method := info.Method
		if color, ok := methodColors[method]; ok && useColors {
			method = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(method)
		}
		filters := "-"
		if len(info.Filters) > 0 {
			filters = strings.Join(info.Filters, " → ")
		}
		rows = append(rows, []string{method, info.URI, info.Handler, filters})
	}

	border := lipgloss.NewStyle()
	if useColors {
		border = border.Foreground(lipgloss.Color("240"))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Align(lipgloss.Left).Padding(0, 1)
			if row == table.HeaderRow && useColors {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}

			return style
		}).
		Headers("Method", "Route", "Handler", "Filters").
		Rows(rows...)
	if useColors {
		t = t.Width(width)
	}

	_, _ = fmt.Fprintln(w, t.Render()) //nolint:errcheck // display output
}
