package javasrc

import "github.com/DeusData/beanprops-mcp/internal/introspect"

// Describe parses one compilation unit on its own and returns the origins of
// every type it declares, in source order. Only types declared in the same
// file count as known; other unimported simple names stay as written.
func Describe(source []byte, fluent bool) ([]*introspect.Source, error) {
	u, err := parseUnit(source)
	if err != nil {
		return nil, err
	}
	local := make(map[string]bool, len(u.types))
	for _, td := range u.types {
		local[td.qn] = true
	}
	known := func(qn string) bool { return local[qn] }

	out := make([]*introspect.Source, 0, len(u.types))
	for _, td := range u.types {
		out = append(out, sourceOrigin(u, td, known, fluent))
	}
	return out, nil
}
