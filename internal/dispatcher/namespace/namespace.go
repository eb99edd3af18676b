// Package namespace canonicalizes the slash-delimited namespaces actions live in.
package namespace

import "strings"

// Separator delimits namespace levels and path segments.
const Separator = '/'

// Clean collapses every run of separators into one and strips a leading
// separator. "a///b" becomes "a/b" and "/a/b" becomes "a/b".
// A trailing separator is kept.
func Clean(ns string) string {
	if ns == "" {
		return ns
	}

	var b strings.Builder
	b.Grow(len(ns))

	// Start as if a separator was just seen so a leading one is dropped.
	lastWasSep := true
	for i := 0; i < len(ns); i++ {
		c := ns[i]
		if c == Separator {
			if lastWasSep {
				continue
			}
			lastWasSep = true
		} else {
			lastWasSep = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Trim cleans ns and also drops a trailing separator, giving the form
// actions store their namespace in.
func Trim(ns string) string {
	return strings.TrimSuffix(Clean(ns), string(Separator))
}

// Parent returns the namespace one level up. The root's parent is the root.
func Parent(ns string) string {
	idx := strings.LastIndexByte(ns, Separator)
	if idx < 0 {
		return ""
	}
	return ns[:idx]
}

// Join builds the reverse id of name inside ns: ns + "/" + name.
// Root actions therefore get a leading separator ("/index").
func Join(ns, name string) string {
	return ns + string(Separator) + name
}

// Split breaks a reverse id or private path into its namespace and name at
// the last separator. A leading separator is ignored.
func Split(path string) (ns, name string) {
	path = strings.TrimPrefix(path, string(Separator))
	idx := strings.LastIndexByte(path, Separator)
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}
