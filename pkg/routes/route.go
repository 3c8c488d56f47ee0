// Package routes declares HTTP routes as data so domain handlers can describe
// their endpoints and the API module can register them on a ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// pattern returns the ServeMux pattern for r beneath prefix.
func (r Route) pattern(prefix string) string {
	if r.Method == "" {
		return prefix + r.Pattern
	}
	return r.Method + " " + prefix + r.Pattern
}
