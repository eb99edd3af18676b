package strategy

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/namespace"
)

// Path matches literal paths declared with the Path attribute.
//
// A value starting with "/" is absolute; any other value is relative to the
// action namespace, and an empty value means the namespace itself. Paths are
// stored without their leading separator, the root as "/".
type Path struct {
	paths    map[string][]*action.Action
	byAction map[*action.Action][]string
}

// NewPath creates an empty Path strategy.
func NewPath() *Path {
	return &Path{
		paths:    make(map[string][]*action.Action),
		byAction: make(map[*action.Action][]string),
	}
}

// Name implements Strategy.
func (p *Path) Name() string {
	return "Path"
}

// RegisterAction implements Strategy.
func (p *Path) RegisterAction(a *action.Action) bool {
	if !a.HasAttribute(action.AttrPath) {
		return false
	}

	values := a.AttributeValues(action.AttrPath)
	if len(values) == 0 {
		values = []string{""}
	}
	for _, v := range values {
		key := p.resolve(a, v)
		p.paths[key] = append(p.paths[key], a)
		p.byAction[a] = append(p.byAction[a], key)
	}
	return true
}

func (p *Path) resolve(a *action.Action, value string) string {
	switch {
	case value == "":
		value = a.Namespace()
	case !strings.HasPrefix(value, "/") && a.Namespace() != "":
		value = a.Namespace() + "/" + value
	}
	key := namespace.Trim(value)
	if key == "" {
		return "/"
	}
	return key
}

// Match implements Strategy. Among actions sharing the path the first one
// accepting len(args) wins, else the first registered one.
func (p *Path) Match(ctx *execctx.ExecutionContext, path string, args []string) MatchType {
	key := strings.TrimPrefix(path, "/")
	if key == "" {
		key = "/"
	}

	actions := p.paths[key]
	if len(actions) == 0 {
		return NoMatch
	}

	chosen := actions[0]
	for _, a := range actions {
		if a.Match(len(args)) {
			chosen = a
			break
		}
	}

	req := ctx.Request()
	req.Match = path
	req.Args = args
	req.Captures = nil
	ctx.SetAction(chosen)
	return ExactMatch
}

// URIForAction implements Strategy. Path actions take no captures.
func (p *Path) URIForAction(a *action.Action, captures []string) (string, bool) {
	if len(captures) > 0 {
		return "", false
	}
	keys := p.byAction[a]
	if len(keys) == 0 {
		return "", false
	}
	if keys[0] == "/" {
		return "/", true
	}
	return "/" + keys[0], true
}

// InUse implements Strategy.
func (p *Path) InUse() bool {
	return len(p.paths) > 0
}

// List implements Strategy.
func (p *Path) List() string {
	keys := make([]string, 0, len(p.paths))
	for k := range p.paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows [][]string
	for _, k := range keys {
		display := "/" + k
		if k == "/" {
			display = "/"
		}
		for _, a := range p.paths[k] {
			path := display
			switch n := a.NumberOfArgs(); {
			case n == action.Unlimited:
				path += "/..."
			case n > 0:
				path += strings.Repeat("/*", n)
			}
			rows = append(rows, []string{path, a.PrivatePath(), argsLabel(a)})
		}
	}
	return RenderTable("Loaded Path actions:", []string{"Path", "Private", "Args"}, rows)
}

func argsLabel(a *action.Action) string {
	if n := a.NumberOfArgs(); n != action.Unlimited {
		return strconv.Itoa(n)
	}
	return "*"
}
