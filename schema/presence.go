package schema

import (
	"strings"

	"github.com/scimplex/core/attrrep"
)

// AttrPresenceConfig is the caller-supplied policy steering which attributes
// must, may, or must not be present, per spec.md §4.D "Presence semantics".
// Grounded on original_source/src/data/attr_presence.py.
type AttrPresenceConfig struct {
	Direction Direction
	AttrReps  []attrrep.BoundedAttrRep // nil/empty means "no restriction"
	Include   bool                     // only meaningful when AttrReps is non-empty
	// IgnoreIssuer lists attributes for which the issuer==server check is
	// suppressed (e.g. attributes the server sets but a client is allowed to
	// echo back unchanged).
	IgnoreIssuer []attrrep.BoundedAttrRep
}

func (cfg *AttrPresenceConfig) ignoresIssuer(rep attrrep.BoundedAttrRep) bool {
	if cfg == nil {
		return false
	}
	for _, r := range cfg.IgnoreIssuer {
		if r.Equals(rep) {
			return true
		}
	}
	return false
}

// desired reports whether rep should be present in the output under cfg's
// include/exclude policy. A parent listed for inclusion delegates to its
// children; under exclusion only the exactly-listed attr_rep is affected.
// Listing one sub-attribute does not change whether its siblings are
// desired: under inclusion an unlisted sibling is undesired unless its
// parent is listed, and under exclusion it stays desired.
func desired(rep attrrep.BoundedAttrRep, cfg *AttrPresenceConfig) bool {
	if cfg == nil || len(cfg.AttrReps) == 0 {
		return true
	}

	listed := false
	parentListed := false
	anySiblingListed := false
	for _, want := range cfg.AttrReps {
		if want.Equals(rep) {
			listed = true
		}
		if rep.HasSubAttr() && !want.HasSubAttr() && want.Equals(attrrep.BoundedAttrRep{AttrRep: attrrep.New(rep.Attr, ""), Schema: rep.Schema}) {
			parentListed = true
		}
		if rep.HasSubAttr() && want.HasSubAttr() && strings.EqualFold(want.Attr, rep.Attr) {
			anySiblingListed = true
		}
	}

	if cfg.Include {
		if listed || parentListed {
			return true
		}
		return false
	}

	// Exclude policy: present by default. Only the exactly-listed attr_rep
	// itself is undesired; listing a complex parent excludes the parent,
	// not each of its sub-attributes individually.
	if listed {
		return false
	}
	if rep.HasSubAttr() && anySiblingListed {
		return true
	}
	return true
}
