package filter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/scimplex/core/attrrep"
	"github.com/scimplex/core/container"
	"github.com/scimplex/core/schema"
)

func attrFor(name string) attrrep.AttrRep { return attrrep.New(name, "") }

// CompareContext carries the attribute metadata a binary operator needs to
// decide case sensitivity and PRECIS normalization (spec.md §4.E "Matching
// semantics").
type CompareContext struct {
	Attr schema.Attribute
}

// UnaryOperator evaluates a unary filter operator (only "pr" by default)
// against an already-resolved attribute value.
type UnaryOperator func(value interface{}) bool

// BinaryOperator evaluates a binary filter operator against an
// already-resolved attribute value and the filter's literal operand.
type BinaryOperator func(value interface{}, literal interface{}, ctx CompareContext) (bool, error)

// Registry is the process-wide operator keyword -> operator mapping
// (spec.md §4.E "Registration"). Grounded on original_source/src/filter/
// operator.py's fixed class-per-operator hierarchy, generalized into a
// runtime-extensible map per spec.md's explicit requirement that "clients
// may add their own to extend the filter language."
type Registry struct {
	mu     sync.RWMutex
	unary  map[string]UnaryOperator
	binary map[string]BinaryOperator
}

// NewRegistry returns a Registry pre-populated with the built-in operators
// (pr, eq, ne, co, sw, ew, gt, ge, lt, le).
func NewRegistry() *Registry {
	r := &Registry{unary: map[string]UnaryOperator{}, binary: map[string]BinaryOperator{}}
	r.unary["pr"] = presentOp
	r.binary["eq"] = eqOp
	r.binary["ne"] = neOp
	r.binary["co"] = coOp
	r.binary["sw"] = swOp
	r.binary["ew"] = ewOp
	r.binary["gt"] = gtOp
	r.binary["ge"] = geOp
	r.binary["lt"] = ltOp
	r.binary["le"] = leOp
	return r
}

// DefaultRegistry is the registry used by Parse when none is given
// explicitly.
var DefaultRegistry = NewRegistry()

var errAlreadyRegistered = fmt.Errorf("operator already registered")

// RegisterUnary adds a new unary operator keyword. Re-registering an
// existing keyword fails, per spec.md §4.E "Registration".
func (r *Registry) RegisterUnary(name string, op UnaryOperator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	if _, exists := r.unary[key]; exists {
		return errAlreadyRegistered
	}
	r.unary[key] = op
	return nil
}

// RegisterBinary adds a new binary operator keyword. Re-registering an
// existing keyword fails.
func (r *Registry) RegisterBinary(name string, op BinaryOperator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	if _, exists := r.binary[key]; exists {
		return errAlreadyRegistered
	}
	r.binary[key] = op
	return nil
}

// Unary looks up a unary operator by keyword, case-insensitively.
func (r *Registry) Unary(name string) (UnaryOperator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.unary[strings.ToLower(name)]
	return op, ok
}

// Binary looks up a binary operator by keyword, case-insensitively.
func (r *Registry) Binary(name string) (BinaryOperator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.binary[strings.ToLower(name)]
	return op, ok
}

// IsUnary reports whether name is a registered unary operator keyword.
func (r *Registry) IsUnary(name string) bool {
	_, ok := r.Unary(name)
	return ok
}

// IsBinary reports whether name is a registered binary operator keyword.
func (r *Registry) IsBinary(name string) bool {
	_, ok := r.Binary(name)
	return ok
}

// normalizeString applies PRECIS (when the attribute is case-exact and
// names a profile) and otherwise lowercases, per spec.md §4.E: "For
// case-exact string attributes, apply the PRECIS profile (if any) before
// comparison; for case-insensitive strings, also lowercase."
func normalizeString(s string, attr schema.Attribute) string {
	if attr.CaseExact {
		return schema.ApplyPrecis(attr.Precis, s)
	}
	return strings.ToLower(s)
}

func presentOp(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []interface{}:
		for _, e := range v {
			if presentOp(e) {
				return true
			}
		}
		return false
	case *container.Container:
		for _, k := range v.Keys() {
			if presentOp(v.Get(container.AttrKey(attrFor(k)))) {
				return true
			}
		}
		return false
	default:
		if v == container.Missing || v == container.Invalid {
			return false
		}
		return true
	}
}

func eqOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	vs, vok := value.(string)
	ls, lok := literal.(string)
	if vok && lok {
		return normalizeString(vs, ctx.Attr) == normalizeString(ls, ctx.Attr), nil
	}
	return valuesEqual(value, literal), nil
}

func neOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	ok, err := eqOp(value, literal, ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func coOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	vs, ls, ok := bothStrings(value, literal)
	if !ok {
		return false, nil
	}
	return strings.Contains(normalizeString(vs, ctx.Attr), normalizeString(ls, ctx.Attr)), nil
}

func swOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	vs, ls, ok := bothStrings(value, literal)
	if !ok {
		return false, nil
	}
	return strings.HasPrefix(normalizeString(vs, ctx.Attr), normalizeString(ls, ctx.Attr)), nil
}

func ewOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	vs, ls, ok := bothStrings(value, literal)
	if !ok {
		return false, nil
	}
	return strings.HasSuffix(normalizeString(vs, ctx.Attr), normalizeString(ls, ctx.Attr)), nil
}

func gtOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	c, ok, err := compareOrdered(value, literal, ctx.Attr)
	if err != nil || !ok {
		return false, err
	}
	return c > 0, nil
}

func geOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	c, ok, err := compareOrdered(value, literal, ctx.Attr)
	if err != nil || !ok {
		return false, err
	}
	return c >= 0, nil
}

func ltOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	c, ok, err := compareOrdered(value, literal, ctx.Attr)
	if err != nil || !ok {
		return false, err
	}
	return c < 0, nil
}

func leOp(value, literal interface{}, ctx CompareContext) (bool, error) {
	c, ok, err := compareOrdered(value, literal, ctx.Attr)
	if err != nil || !ok {
		return false, err
	}
	return c <= 0, nil
}

func bothStrings(value, literal interface{}) (string, string, bool) {
	vs, vok := value.(string)
	ls, lok := literal.(string)
	return vs, ls, vok && lok
}

func valuesEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// compareOrdered returns (comparison, applicable, error): applicable is
// false when value/literal aren't a comparable pair for the attribute's
// type, in which case the caller's operator yields false rather than an
// error, matching spec.md's "missing value policy" leniency.
func compareOrdered(value, literal interface{}, attr schema.Attribute) (int, bool, error) {
	if attr.Type == schema.TypeDateTime {
		vs, lok1 := value.(string)
		ls, lok2 := literal.(string)
		if !lok1 || !lok2 {
			return 0, false, nil
		}
		vt, err1 := time.Parse(time.RFC3339, vs)
		lt, err2 := time.Parse(time.RFC3339, ls)
		if err1 != nil || err2 != nil {
			return 0, false, nil
		}
		switch {
		case vt.Before(lt):
			return -1, true, nil
		case vt.After(lt):
			return 1, true, nil
		default:
			return 0, true, nil
		}
	}

	if vf, vok := toFloat(value); vok {
		if lf, lok := toFloat(literal); lok {
			switch {
			case vf < lf:
				return -1, true, nil
			case vf > lf:
				return 1, true, nil
			default:
				return 0, true, nil
			}
		}
	}

	vs, ls, ok := bothStrings(value, literal)
	if !ok {
		return 0, false, nil
	}
	vs, ls = normalizeString(vs, attr), normalizeString(ls, attr)
	return strings.Compare(vs, ls), true, nil
}
