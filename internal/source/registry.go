// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import "github.com/pdiddy/variant-research/pkg/types"

// All returns the five standard clients in report order. The literature and
// clinical clients share one NCBI pacer.
func All(opts Options) []Client {
	opts = opts.withDefaults()
	return []Client{
		NewLiterature(opts),
		NewPatents(opts),
		NewClinical(opts),
		NewProtein(opts),
		NewDrugTargets(opts),
	}
}

// Filter returns the clients whose names are listed in only, preserving the
// order of clients. An empty only returns clients unchanged.
func Filter(clients []Client, only []string) []Client {
	if len(only) == 0 {
		return clients
	}
	want := make(map[string]bool, len(only))
	for _, n := range only {
		want[n] = true
	}
	var out []Client
	for _, c := range clients {
		if want[c.Name()] {
			out = append(out, c)
		}
	}
	return out
}

// Names returns the standard source names in report order.
func Names() []string {
	return []string{
		types.SourceLiterature,
		types.SourcePatents,
		types.SourceClinical,
		types.SourceProtein,
		types.SourceDrugTargets,
	}
}
