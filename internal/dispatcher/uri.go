package dispatcher

import (
	"net/url"
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/action"
)

// URIForAction asks each strategy in order for the path of a. The first
// strategy that owns the action wins; an empty rendering becomes "/".
func (d *Dispatcher) URIForAction(a *action.Action, captures []string) (string, bool) {
	if a == nil {
		return "", false
	}
	for _, s := range d.strategies {
		if uri, ok := s.URIForAction(a, captures); ok {
			if uri == "" {
				uri = "/"
			}
			return uri, true
		}
	}
	return "", false
}

// URIFor builds the URI of a with escaped trailing args and an encoded query.
func (d *Dispatcher) URIFor(a *action.Action, captures, args []string, query url.Values) (string, bool) {
	uri, ok := d.URIForAction(a, captures)
	if !ok {
		return "", false
	}

	if len(args) > 0 {
		var b strings.Builder
		b.WriteString(strings.TrimSuffix(uri, "/"))
		for _, arg := range args {
			b.WriteByte('/')
			b.WriteString(url.PathEscape(arg))
		}
		uri = b.String()
	}
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	return uri, true
}
