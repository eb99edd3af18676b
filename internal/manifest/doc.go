// Package manifest declares controllers and actions in YAML.
//
// A manifest lists controllers, each with a namespace, optional lifecycle
// hooks and actions. Action keys map onto dispatcher attributes; handler
// keys pick what the action does:
//
//	controllers:
//	  - name: Root
//	    namespace: ""
//	    auto:
//	      script: |
//	        set("started", true)
//	    actions:
//	      - name: index
//	        path: /
//	        respond: "welcome"
//	      - name: about
//	        path: about
//	        args: 0
//	        forward: /pages/about
//
//	  - name: Users
//	    namespace: users
//	    actions:
//	      - name: base
//	        chained: /
//	        path_part: users
//	        capture_args: 1
//	      - name: view
//	        chained: base
//	        args: 0
//	        script_file: scripts/view.lua
//
// path accepts a single string or a list. An empty path ("") means the
// controller namespace itself. Handlers are respond (with an optional
// status), script (inline Lua), script_file (Lua file relative to the
// manifest) or forward (an action name or path). An action without a
// handler succeeds without output.
package manifest
