package client

import (
	"net/url"
	"strings"
)

// Key identifies a cached read: a root path plus request parameters.
type Key struct {
	Path   string
	Params map[string]string
}

// K is shorthand for a Key with alternating name/value params.
func K(path string, kv ...string) Key {
	k := Key{Path: path}
	for i := 0; i+1 < len(kv); i += 2 {
		if k.Params == nil {
			k.Params = make(map[string]string, len(kv)/2)
		}
		k.Params[kv[i]] = kv[i+1]
	}
	return k
}

// String encodes params as a sorted query string. Empty values are dropped
// so an unset filter shares the unfiltered cache entry.
func (k Key) String() string {
	v := url.Values{}
	for name, val := range k.Params {
		if val != "" {
			v.Set(name, val)
		}
	}
	if len(v) == 0 {
		return k.Path
	}
	return k.Path + "?" + v.Encode()
}

// tagsFor returns path and each ancestor below /api, so invalidating
// /api/products also drops /api/products/7.
func tagsFor(path string) []string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	var tags []string
	for path != "" && path != "/api" {
		tags = append(tags, path)
		i := strings.LastIndexByte(path, '/')
		if i <= 0 {
			break
		}
		path = path[:i]
	}
	return tags
}
