package dispatcher

import (
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/strategy"
)

// Describe renders the private action table followed by each active
// strategy's listing. Names starting with "_" are hidden unless
// ShowInternalActions is set.
func (d *Dispatcher) Describe() string {
	var rows [][]string
	for _, a := range d.registry.Actions() {
		if !d.config.ShowInternalActions && strings.HasPrefix(a.Name(), "_") {
			continue
		}
		rows = append(rows, []string{a.PrivatePath(), a.Controller(), a.Name()})
	}

	var b strings.Builder
	b.WriteString(strategy.RenderTable("Loaded Private actions:", []string{"Private", "Controller", "Action"}, rows))
	for _, s := range d.strategies {
		b.WriteString(s.List())
	}
	return b.String()
}
