// Package apiurl maps the paths used by views onto the REST backend.
package apiurl

import "strings"

// Resolve maps path onto base.
//
//	http://x/y    -> unchanged
//	/api/products -> base + /api/products
//	products      -> base + /api/products
//	/other        -> base + /other
func Resolve(base, path string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(path, "http"):
		return path
	case strings.HasPrefix(path, "/api"):
		return base + path
	case !strings.HasPrefix(path, "/"):
		return base + "/api/" + path
	default:
		return base + path
	}
}
