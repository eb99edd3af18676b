package action

import (
	"strings"

	"github.com/dshills/switchyard/internal/dispatcher/execctx"
)

// Chain is the composite a chained match resolves to: every link from the
// root down to the endpoint, each with the captures it consumed.
type Chain struct {
	actions  []*Action
	captures [][]string
}

// NewChain creates a chain. captures[i] holds the captures of actions[i];
// the endpoint is the last action.
func NewChain(actions []*Action, captures [][]string) *Chain {
	c := &Chain{
		actions:  make([]*Action, len(actions)),
		captures: make([][]string, len(actions)),
	}
	copy(c.actions, actions)
	for i := range c.captures {
		if i < len(captures) {
			c.captures[i] = captures[i]
		}
	}
	return c
}

// Endpoint returns the last action of the chain.
func (c *Chain) Endpoint() *Action {
	if len(c.actions) == 0 {
		return nil
	}
	return c.actions[len(c.actions)-1]
}

// Actions returns a copy of the chain links, root-most first.
func (c *Chain) Actions() []*Action {
	out := make([]*Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Captures returns every capture of the chain, root-most first.
func (c *Chain) Captures() []string {
	var out []string
	for _, caps := range c.captures {
		out = append(out, caps...)
	}
	return out
}

// Name returns the endpoint name.
func (c *Chain) Name() string {
	if e := c.Endpoint(); e != nil {
		return e.Name()
	}
	return ""
}

// Namespace returns the endpoint namespace.
func (c *Chain) Namespace() string {
	if e := c.Endpoint(); e != nil {
		return e.Namespace()
	}
	return ""
}

// Reverse returns the endpoint reverse id.
func (c *Chain) Reverse() string {
	if e := c.Endpoint(); e != nil {
		return e.Reverse()
	}
	return ""
}

// Call runs every link with its captures as arguments, then the endpoint
// with the request arguments. The first failing link stops the chain.
func (c *Chain) Call(ctx *execctx.ExecutionContext) bool {
	end := len(c.actions) - 1
	if end < 0 {
		return false
	}
	for i, a := range c.actions[:end] {
		if !ctx.ExecuteWithArgs(a, c.captures[i]) {
			return false
		}
	}

	endpoint := c.actions[end]
	if !endpoint.checkArgs(ctx) {
		return false
	}
	return ctx.Execute(endpoint)
}

// String lists the private paths of the links.
func (c *Chain) String() string {
	parts := make([]string, len(c.actions))
	for i, a := range c.actions {
		parts[i] = a.PrivatePath()
	}
	return strings.Join(parts, " -> ")
}
