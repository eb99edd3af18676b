// Package strategy provides the pluggable matchers that map request paths to
// actions and actions back to URIs.
//
// A dispatcher holds an ordered list of strategies. During setup every
// public action is offered to each strategy, which keeps the ones whose
// attributes it understands. At request time the dispatcher asks each
// strategy in order whether it can resolve a path prefix; the first one
// reporting ExactMatch wins and has already written the request state.
//
// Strategies are written to once during setup and only read afterwards, so
// they carry no locks.
package strategy

import (
	"net/url"
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
)

// MatchType is the outcome of a match attempt.
type MatchType uint8

const (
	// NoMatch means the strategy cannot resolve the path.
	NoMatch MatchType = iota
	// PartialMatch means the strategy recognized part of the path. It does
	// not stop resolution.
	PartialMatch
	// ExactMatch means the strategy resolved the path and set the action.
	ExactMatch
)

// String returns a string representation of the match type.
func (m MatchType) String() string {
	switch m {
	case NoMatch:
		return "no-match"
	case PartialMatch:
		return "partial"
	case ExactMatch:
		return "exact"
	default:
		return "unknown"
	}
}

// Strategy maps paths to actions.
type Strategy interface {
	// Name identifies the strategy in logs and listings.
	Name() string

	// RegisterAction offers an action during setup and reports whether the
	// strategy kept it.
	RegisterAction(a *action.Action) bool

	// Match tries to resolve path with the given trailing args. On
	// ExactMatch the strategy has set the context action and request state.
	Match(ctx *execctx.ExecutionContext, path string, args []string) MatchType

	// URIForAction renders the path of a registered action.
	URIForAction(a *action.Action, captures []string) (string, bool)

	// InUse reports whether the strategy holds anything to match.
	InUse() bool

	// List renders the registered actions as a table.
	List() string
}

// Validator is implemented by strategies that can check their registrations
// once setup is complete.
type Validator interface {
	Validate() []error
}

// Unescape percent-decodes a path segment, returning it unchanged if it is
// not valid percent-encoding.
func Unescape(segment string) string {
	if !strings.Contains(segment, "%") {
		return segment
	}
	s, err := url.PathUnescape(segment)
	if err != nil {
		return segment
	}
	return s
}

func unescapeAll(segments []string) []string {
	if len(segments) == 0 {
		return nil
	}
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = Unescape(s)
	}
	return out
}
