package strategy

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/dispatcher/namespace"
)

// maxChainDepth bounds the descent through chain links so a link chained
// to itself cannot recurse forever.
const maxChainDepth = 64

const rootParent = "/"

// Chained matches paths built from a chain of actions. Each action names its
// parent with the Chained attribute and the segment(s) it consumes with
// PathPart. Links carry CaptureArgs and consume that many segments after
// their path part; endpoints take the remaining segments as arguments.
type Chained struct {
	// children[parent][pathPart] lists actions in declaration order.
	children  map[string]map[string][]*action.Action
	partOrder map[string][]string

	links     map[string]*action.Action
	parentOf  map[*action.Action]string
	partOf    map[*action.Action]string
	endpoints []*action.Action
	order     []*action.Action
}

// NewChained creates an empty Chained strategy.
func NewChained() *Chained {
	return &Chained{
		children:  make(map[string]map[string][]*action.Action),
		partOrder: make(map[string][]string),
		links:     make(map[string]*action.Action),
		parentOf:  make(map[*action.Action]string),
		partOf:    make(map[*action.Action]string),
	}
}

// Name implements Strategy.
func (c *Chained) Name() string {
	return "Chained"
}

// RegisterAction implements Strategy.
func (c *Chained) RegisterAction(a *action.Action) bool {
	if !a.HasAttribute(action.AttrChained) {
		return false
	}

	parent := parentPath(a)
	part := a.Name()
	if v, ok := a.Attribute(action.AttrPathPart); ok {
		part = strings.Trim(v, "/")
	}

	byPart, ok := c.children[parent]
	if !ok {
		byPart = make(map[string][]*action.Action)
		c.children[parent] = byPart
	}
	if _, seen := byPart[part]; !seen {
		c.partOrder[parent] = append(c.partOrder[parent], part)
	}
	byPart[part] = append(byPart[part], a)

	c.parentOf[a] = parent
	c.partOf[a] = part
	c.links[a.PrivatePath()] = a
	c.order = append(c.order, a)
	if !a.HasAttribute(action.AttrCaptureArgs) {
		c.endpoints = append(c.endpoints, a)
	}
	return true
}

// parentPath resolves the Chained attribute of a to the private path of its
// parent, or "/" for the root.
func parentPath(a *action.Action) string {
	v, _ := a.Attribute(action.AttrChained)
	if v == "" || v == rootParent {
		return rootParent
	}
	if strings.HasPrefix(v, "/") {
		return "/" + namespace.Trim(v)
	}

	ns := a.Namespace()
	for strings.HasPrefix(v, "../") {
		v = v[3:]
		ns = namespace.Parent(ns)
	}
	if ns == "" {
		return "/" + namespace.Trim(v)
	}
	return "/" + ns + "/" + namespace.Trim(v)
}

type candidate struct {
	actions  []*action.Action
	captures [][]string
	args     []string
	consumed int
}

func (c candidate) better(than candidate) bool {
	if len(c.args) != len(than.args) {
		return len(c.args) < len(than.args)
	}
	return c.consumed > than.consumed
}

// Match implements Strategy. A chain consumes the whole path itself, so it
// only matches when no trailing args are pending.
func (c *Chained) Match(ctx *execctx.ExecutionContext, path string, args []string) MatchType {
	if len(args) > 0 {
		return NoMatch
	}

	trimmed := strings.TrimPrefix(path, "/")
	var parts []string
	if trimmed != "" {
		parts = strings.Split(trimmed, "/")
	}

	best, ok := c.descend(rootParent, parts, 0)
	if !ok {
		return NoMatch
	}

	chain := action.NewChain(best.actions, best.captures)
	req := ctx.Request()
	req.Match = path
	req.Args = unescapeAll(best.args)
	req.Captures = chain.Captures()
	ctx.SetAction(chain)
	return ExactMatch
}

func (c *Chained) descend(parent string, parts []string, depth int) (candidate, bool) {
	if depth >= maxChainDepth {
		return candidate{}, false
	}

	var best candidate
	found := false
	consider := func(cand candidate) {
		if !found || cand.better(best) {
			best = cand
			found = true
		}
	}

	for _, part := range c.partOrder[parent] {
		remaining, consumed, ok := consumePart(parts, part)
		if !ok {
			continue
		}

		for _, a := range c.children[parent][part] {
			if a.HasAttribute(action.AttrCaptureArgs) {
				n := a.NumberOfCaptures()
				if len(remaining) < n {
					continue
				}
				sub, ok := c.descend(a.PrivatePath(), remaining[n:], depth+1)
				if !ok {
					continue
				}
				consider(candidate{
					actions:  append([]*action.Action{a}, sub.actions...),
					captures: append([][]string{unescapeAll(remaining[:n])}, sub.captures...),
					args:     sub.args,
					consumed: consumed + n + sub.consumed,
				})
				continue
			}

			if !a.Match(len(remaining)) {
				continue
			}
			consider(candidate{
				actions:  []*action.Action{a},
				captures: [][]string{nil},
				args:     remaining,
				consumed: consumed,
			})
		}
	}
	return best, found
}

// consumePart strips the segments of part from the front of parts.
func consumePart(parts []string, part string) ([]string, int, bool) {
	if part == "" {
		return parts, 0, true
	}
	segs := strings.Split(part, "/")
	if len(parts) < len(segs) {
		return nil, 0, false
	}
	for i, s := range segs {
		if parts[i] != s {
			return nil, 0, false
		}
	}
	return parts[len(segs):], len(segs), true
}

// URIForAction implements Strategy. Only endpoints have URIs; captures are
// consumed from the end while walking up to the root.
func (c *Chained) URIForAction(a *action.Action, captures []string) (string, bool) {
	if _, ok := c.parentOf[a]; !ok || a.HasAttribute(action.AttrCaptureArgs) {
		return "", false
	}

	caps := captures
	var parts []string
	seen := make(map[*action.Action]bool)
	for curr := a; ; {
		if seen[curr] {
			return "", false
		}
		seen[curr] = true

		if curr.HasAttribute(action.AttrCaptureArgs) {
			n := curr.NumberOfCaptures()
			if len(caps) < n {
				return "", false
			}
			taken := caps[len(caps)-n:]
			caps = caps[:len(caps)-n]
			escaped := make([]string, n)
			for i, s := range taken {
				escaped[i] = url.PathEscape(s)
			}
			parts = append(escaped, parts...)
		}
		if part := c.partOf[curr]; part != "" {
			parts = append([]string{part}, parts...)
		}

		parent := c.parentOf[curr]
		if parent == rootParent {
			break
		}
		next, ok := c.links[parent]
		if !ok {
			return "", false
		}
		curr = next
	}

	if len(caps) > 0 {
		return "", false
	}
	return "/" + strings.Join(parts, "/"), true
}

// InUse implements Strategy.
func (c *Chained) InUse() bool {
	return len(c.endpoints) > 0
}

// Validate reports actions chained to a parent that was never registered.
func (c *Chained) Validate() []error {
	var errs []error
	for _, a := range c.order {
		parent := c.parentOf[a]
		if parent == rootParent {
			continue
		}
		if _, ok := c.links[parent]; !ok {
			errs = append(errs, fmt.Errorf("chained action %s: unknown parent %s", a.PrivatePath(), parent))
		}
	}
	return errs
}

// List implements Strategy.
func (c *Chained) List() string {
	var rows [][]string
	for _, e := range c.endpoints {
		chain, ok := c.lineage(e)
		if !ok {
			continue
		}

		var spec, private []string
		for _, a := range chain {
			if part := c.partOf[a]; part != "" {
				spec = append(spec, part)
			}
			if a.HasAttribute(action.AttrCaptureArgs) {
				for i := 0; i < a.NumberOfCaptures(); i++ {
					spec = append(spec, "*")
				}
			}
			private = append(private, a.PrivatePath())
		}
		switch n := e.NumberOfArgs(); {
		case n == action.Unlimited:
			spec = append(spec, "...")
		default:
			for i := 0; i < n; i++ {
				spec = append(spec, "*")
			}
		}
		rows = append(rows, []string{"/" + strings.Join(spec, "/"), strings.Join(private, " -> ")})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return RenderTable("Loaded Chained actions:", []string{"Path Spec", "Private"}, rows)
}

// lineage returns the links from the root down to a.
func (c *Chained) lineage(a *action.Action) ([]*action.Action, bool) {
	var out []*action.Action
	for curr := a; len(out) < maxChainDepth; {
		out = append([]*action.Action{curr}, out...)
		parent := c.parentOf[curr]
		if parent == rootParent {
			return out, true
		}
		next, ok := c.links[parent]
		if !ok {
			return nil, false
		}
		curr = next
	}
	return nil, false
}
