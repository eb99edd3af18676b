package strategy_test

import (
	"strings"
	"testing"

	"github.com/dshills/switchyard/internal/dispatcher/action"
	"github.com/dshills/switchyard/internal/dispatcher/strategy"
)

// chainFixture builds:
//
//	/users/*            users/base    (link, 1 capture)
//	/users/*/view       users/view    (endpoint, 0 args)
//	/users/*/edit/...   users/edit    (endpoint, unlimited args)
//	/users/*/posts/*/*  users/posts   (link, 2 captures) -> users/show (endpoint, PathPart "")
func chainFixture(t *testing.T) (*strategy.Chained, map[string]*action.Action) {
	t.Helper()

	c := strategy.NewChained()
	actions := map[string]*action.Action{
		"base":  action.New("base", "users", nil, action.WithChained("/"), action.WithPathPart("users"), action.WithCaptureArgs(1)),
		"view":  action.New("view", "users", nil, action.WithChained("base"), action.WithArgs(0)),
		"edit":  action.New("edit", "users", nil, action.WithChained("/users/base")),
		"posts": action.New("posts", "users", nil, action.WithChained("base"), action.WithCaptureArgs(2)),
		"show":  action.New("show", "users", nil, action.WithChained("posts"), action.WithPathPart(""), action.WithArgs(0)),
	}
	for _, name := range []string{"base", "view", "edit", "posts", "show"} {
		if !c.RegisterAction(actions[name]) {
			t.Fatalf("RegisterAction(%s) rejected", name)
		}
	}
	return c, actions
}

func TestChainedRegisterAction(t *testing.T) {
	c := strategy.NewChained()
	if c.RegisterAction(action.New("plain", "", nil, action.WithPath("x"))) {
		t.Error("action without Chained must be rejected")
	}

	if !c.RegisterAction(action.New("link", "", nil, action.WithChained("/"), action.WithCaptureArgs(1))) {
		t.Fatal("expected link to be accepted")
	}
	if c.InUse() {
		t.Error("links alone do not put the strategy in use")
	}

	c.RegisterAction(action.New("end", "", nil, action.WithChained("link")))
	if !c.InUse() {
		t.Error("an endpoint puts the strategy in use")
	}
}

func TestChainedMatch(t *testing.T) {
	c, acts := chainFixture(t)

	tests := []struct {
		path     string
		endpoint string
		captures []string
		args     []string
	}{
		{"users/42/view", "view", []string{"42"}, nil},
		{"users/42/edit", "edit", []string{"42"}, nil},
		{"users/42/edit/a/b", "edit", []string{"42"}, []string{"a", "b"}},
		{"users/7/posts/2024/05", "show", []string{"7", "2024", "05"}, nil},
		{"users/john%20doe/view", "view", []string{"john doe"}, nil},
		{"users/1/edit/x%2Fy", "edit", []string{"1"}, []string{"x/y"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ctx := newCtx(tt.path)
			if got := c.Match(ctx, tt.path, nil); got != strategy.ExactMatch {
				t.Fatalf("Match(%q) = %v, want exact", tt.path, got)
			}

			chain, ok := ctx.Action().(*action.Chain)
			if !ok {
				t.Fatalf("expected *action.Chain, got %T", ctx.Action())
			}
			if chain.Endpoint() != acts[tt.endpoint] {
				t.Errorf("endpoint = %s, want %s", chain.Reverse(), tt.endpoint)
			}

			req := ctx.Request()
			if strings.Join(req.Captures, "|") != strings.Join(tt.captures, "|") {
				t.Errorf("Captures = %v, want %v", req.Captures, tt.captures)
			}
			if strings.Join(req.Args, "|") != strings.Join(tt.args, "|") {
				t.Errorf("Args = %v, want %v", req.Args, tt.args)
			}
			if req.Match != tt.path {
				t.Errorf("Match = %q, want %q", req.Match, tt.path)
			}
		})
	}
}

func TestChainedNoMatch(t *testing.T) {
	c, _ := chainFixture(t)

	for _, path := range []string{"", "users", "users/42", "users/42/view/extra", "people/42/view", "users/7/posts/2024"} {
		if got := c.Match(newCtx(path), path, nil); got != strategy.NoMatch {
			t.Errorf("Match(%q) = %v, want no match", path, got)
		}
	}

	if got := c.Match(newCtx("users/42/view"), "users/42/view", []string{"x"}); got != strategy.NoMatch {
		t.Error("pending args must prevent a chained match")
	}
}

func TestChainedPrefersFewestArgs(t *testing.T) {
	c := strategy.NewChained()
	greedy := action.New("greedy", "", nil, action.WithChained("/"), action.WithPathPart("a"))
	base := action.New("b", "", nil, action.WithChained("/"), action.WithPathPart("a"), action.WithCaptureArgs(1))
	exact := action.New("exact", "", nil, action.WithChained("b"), action.WithPathPart("c"), action.WithArgs(0))
	for _, a := range []*action.Action{greedy, base, exact} {
		c.RegisterAction(a)
	}

	ctx := newCtx("a/1/c")
	c.Match(ctx, "a/1/c", nil)
	if chain := ctx.Action().(*action.Chain); chain.Endpoint() != exact {
		t.Errorf("expected the candidate with no leftover args, got %s", chain.Reverse())
	}

	ctx = newCtx("a/1/d")
	c.Match(ctx, "a/1/d", nil)
	if chain := ctx.Action().(*action.Chain); chain.Endpoint() != greedy {
		t.Errorf("expected greedy fallback, got %s", chain.Reverse())
	}
}

func TestChainedParentResolution(t *testing.T) {
	c := strategy.NewChained()
	root := action.New("root", "", nil, action.WithChained("/"), action.WithCaptureArgs(0))
	up := action.New("up", "shop/items", nil, action.WithChained("../../root"), action.WithArgs(0))
	c.RegisterAction(root)
	c.RegisterAction(up)

	if errs := c.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}

	ctx := newCtx("root/up")
	if c.Match(ctx, "root/up", nil) != strategy.ExactMatch {
		t.Fatal("expected ../ parent to resolve to the root namespace")
	}
}

func TestChainedValidateUnknownParent(t *testing.T) {
	c := strategy.NewChained()
	c.RegisterAction(action.New("orphan", "users", nil, action.WithChained("missing")))

	errs := c.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "/users/missing") {
		t.Errorf("error should name the missing parent: %v", errs[0])
	}
}

func TestChainedSelfReferenceTerminates(t *testing.T) {
	c := strategy.NewChained()
	c.RegisterAction(action.New("loop", "", nil, action.WithChained("loop"), action.WithPathPart(""), action.WithCaptureArgs(0)))

	if c.Match(newCtx("x"), "x", nil) != strategy.NoMatch {
		t.Error("expected no match for a self-referencing chain")
	}
	if _, ok := c.URIForAction(action.New("loop", "", nil), nil); ok {
		t.Error("unregistered action must yield no URI")
	}
}

func TestChainedURIForAction(t *testing.T) {
	c, acts := chainFixture(t)

	tests := []struct {
		name     string
		captures []string
		want     string
		ok       bool
	}{
		{"view", []string{"42"}, "/users/42/view", true},
		{"view", []string{"john doe"}, "/users/john%20doe/view", true},
		{"show", []string{"7", "2024", "05"}, "/users/7/posts/2024/05", true},
		{"view", nil, "", false},
		{"view", []string{"1", "2"}, "", false},
		{"base", []string{"1"}, "", false},
	}

	for _, tt := range tests {
		got, ok := c.URIForAction(acts[tt.name], tt.captures)
		if ok != tt.ok || got != tt.want {
			t.Errorf("URIForAction(%s, %v) = %q, %v; want %q, %v", tt.name, tt.captures, got, ok, tt.want, tt.ok)
		}
	}
}

func TestChainedURIRoundTrip(t *testing.T) {
	c, acts := chainFixture(t)

	uri, ok := c.URIForAction(acts["show"], []string{"a b", "x/y", "z"})
	if !ok {
		t.Fatal("expected a URI")
	}

	path := strings.TrimPrefix(uri, "/")
	ctx := newCtx(path)
	if c.Match(ctx, path, nil) != strategy.ExactMatch {
		t.Fatalf("URI %q did not match back", uri)
	}
	if got := strings.Join(ctx.Request().Captures, "|"); got != "a b|x/y|z" {
		t.Errorf("captures after round trip = %q", got)
	}
}

func TestChainedList(t *testing.T) {
	c, _ := chainFixture(t)

	out := c.List()
	for _, want := range []string{"Loaded Chained actions:", "/users/*/view", "/users/*/edit/...", "/users/*/posts/*/*", "/users/base -> /users/view"} {
		if !strings.Contains(out, want) {
			t.Errorf("List() missing %q:\n%s", want, out)
		}
	}
}
