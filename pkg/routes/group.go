package routes

import "net/http"

// Group collects routes under a shared prefix. Children nest beneath it.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk("", groups, func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, h)
	})
}

// Patterns lists the ServeMux patterns groups would register, in declaration order.
func Patterns(groups ...Group) []string {
	var out []string
	walk("", groups, func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func walk(parent string, groups []Group, visit func(string, http.HandlerFunc)) {
	for _, g := range groups {
		prefix := parent + g.Prefix
		for _, r := range g.Routes {
			visit(r.pattern(prefix), r.Handler)
		}
		walk(prefix, g.Children, visit)
	}
}
