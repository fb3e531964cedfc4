package schema

import "github.com/scimplex/core/attrrep"

// attrRepOf is a small convenience for building an unbounded AttrRep from a
// bare name, used internally wherever this package reaches into a
// container by sub-attribute name.
func attrRepOf(name string) attrrep.AttrRep {
	return attrrep.New(name, "")
}
