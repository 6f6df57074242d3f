// Package placeholder fills unknown required fields with the sentinel so
// every entry is schema-complete.
package placeholder

import (
	"github.com/matsen/prettybib/internal/reference"
	"github.com/matsen/prettybib/internal/schema"
)

// Resolve returns a copy of e in which every required field that is absent
// or blank holds the sentinel. Status becomes sentinel-filled when any
// required field holds the sentinel afterwards, complete otherwise.
func Resolve(e reference.Entry) reference.Entry {
	out := e.Clone()
	filled := false
	for _, f := range schema.RequiredFields(e.Type) {
		v, ok := out.Fields[f]
		if !ok || reference.IsBlank(v) {
			out.Fields[f] = reference.Sentinel
		}
		if reference.IsSentinel(out.Fields[f]) {
			filled = true
		}
	}

	if filled {
		out.Status = reference.StatusSentinelFilled
	} else {
		out.Status = reference.StatusComplete
	}
	return out
}

// ResolveAll applies Resolve to every entry.
func ResolveAll(entries []reference.Entry) []reference.Entry {
	out := make([]reference.Entry, len(entries))
	for i, e := range entries {
		out[i] = Resolve(e)
	}
	return out
}
