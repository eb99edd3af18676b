// Package script runs Lua chunks as action handlers.
//
// Scripts are compiled once with gopher-lua and executed on pooled,
// sandboxed states: only the base, table, string and math libraries are
// opened, and the loaders (dofile, loadfile, load, loadstring, require)
// are removed.
//
// # Environment
//
// Each run gets its own globals table:
//
//	method, path, match  request fields
//	args                 positional arguments of the running action
//	captures             chain captures, root-most first
//	query                first value of each query parameter
//	request_id           execution context id
//
//	write(...)           append to the response
//	status(code)         set the response status
//	forward(name)        run another action, returns its result
//	log(msg)             log at info level
//	get(key), set(key, value)  read and write the context data map
//
// # Results
//
// A chunk that returns false cancels the action. A returned string is
// written to the response. Any other value, or none, is success. Lua
// errors and timeouts become error results wrapping ErrRuntime or
// ErrTimeout.
//
// # Usage
//
//	s, err := script.CompileString("hello", `return "hello " .. args[1]`)
//	if err != nil {
//	    return err
//	}
//	c.Handle("hello", s, action.WithPath("hello"), action.WithArgs(1))
package script
