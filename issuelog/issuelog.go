// Package issuelog implements component A of the engine: a hierarchical
// accumulator of validation errors and warnings keyed by location, with
// merge, scoped retrieval, and a "can we keep going" gate.
//
// Grounded on original_source/src/error.py (Pagerous/scimpler's
// location-keyed issue store) and src/container.py's path handling; the
// teacher (dwardin-scim) has no equivalent — its validators return a single
// *errors.ScimError and stop, so this package is new machinery built in the
// teacher's plain-struct, no-generics style rather than adapted from it.
package issuelog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/scimplex/core/errors"
)

// PathElem is one component of a Location: either a string key (attribute
// name) or an integer index (position within a multi-valued attribute).
type PathElem struct {
	key     string
	index   int
	isIndex bool
}

// Key constructs a string path element.
func Key(k string) PathElem { return PathElem{key: k} }

// Index constructs an integer path element.
func Index(i int) PathElem { return PathElem{index: i, isIndex: true} }

// IsIndex reports whether the element is an integer index.
func (p PathElem) IsIndex() bool { return p.isIndex }

// String renders the element for display/flattening.
func (p PathElem) String() string {
	if p.isIndex {
		return strconv.Itoa(p.index)
	}
	return p.key
}

func (p PathElem) canonical() string {
	if p.isIndex {
		return "#" + strconv.Itoa(p.index)
	}
	return strings.ToLower(p.key)
}

// Location is an ordered path into a resource tree, e.g. Location{Key("emails"), Index(0), Key("value")}.
type Location []PathElem

// String renders a dotted path, e.g. "emails.0.value".
func (l Location) String() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.String()
	}
	return strings.Join(parts, ".")
}

func (l Location) canonicalKey() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.canonical()
	}
	return strings.Join(parts, "\x1f")
}

func (l Location) prefixes() []string {
	out := make([]string, 0, len(l)+1)
	for i := 0; i <= len(l); i++ {
		out = append(out, Location(l[:i]).canonicalKey())
	}
	return out
}

// hasPrefix reports whether prefix is a structural prefix (not merely a
// string prefix) of l.
func (l Location) hasPrefix(prefix Location) bool {
	if len(prefix) > len(l) {
		return false
	}
	for i, e := range prefix {
		if e.canonical() != l[i].canonical() {
			return false
		}
	}
	return true
}

// Issue is one recorded finding: a code plus the context its template was
// rendered against.
type Issue struct {
	Code    errors.Code
	Context map[string]interface{}
}

// Message renders the issue's human-readable text.
func (i Issue) Message() string {
	return i.Code.Render(i.Context)
}

type entry struct {
	loc   Location
	issue Issue
}

// Log accumulates errors and warnings at hierarchical locations.
type Log struct {
	errs     []entry
	warns    []entry
	stopping map[string]map[errors.Code]bool // canonical location key -> codes that stop proceeding there
}

// New returns an empty Log.
func New() *Log {
	return &Log{stopping: map[string]map[errors.Code]bool{}}
}

func cloneCtx(ctx map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	out := make(map[string]interface{}, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}

// AddError records an error at the given location. When proceed is false,
// the code is recorded under stop_proceeding for that location, and any
// CanProceed check for that location or a descendant will return false.
func (l *Log) AddError(code errors.Code, proceed bool, ctx map[string]interface{}, loc ...PathElem) {
	l.errs = append(l.errs, entry{loc: Location(loc), issue: Issue{Code: code, Context: cloneCtx(ctx)}})
	if !proceed {
		key := Location(loc).canonicalKey()
		if l.stopping[key] == nil {
			l.stopping[key] = map[errors.Code]bool{}
		}
		l.stopping[key][code] = true
	}
}

// AddWarning records a warning at the given location. Warnings never stop
// proceeding.
func (l *Log) AddWarning(code errors.Code, ctx map[string]interface{}, loc ...PathElem) {
	l.warns = append(l.warns, entry{loc: Location(loc), issue: Issue{Code: code, Context: cloneCtx(ctx)}})
}

// Merge re-bases other's entries under prefix and absorbs them into l.
func (l *Log) Merge(other *Log, prefix ...PathElem) {
	if other == nil {
		return
	}
	rebase := func(loc Location) Location {
		out := make(Location, 0, len(prefix)+len(loc))
		out = append(out, prefix...)
		out = append(out, loc...)
		return out
	}
	for _, e := range other.errs {
		l.errs = append(l.errs, entry{loc: rebase(e.loc), issue: e.issue})
	}
	for _, e := range other.warns {
		l.warns = append(l.warns, entry{loc: rebase(e.loc), issue: e.issue})
	}
	for key, codes := range other.stopping {
		// Recompute the rebased key from the original components rather than
		// string-concatenating keys, since canonical keys drop casing.
		var loc Location
		if key != "" {
			for _, part := range strings.Split(key, "\x1f") {
				if strings.HasPrefix(part, "#") {
					n, _ := strconv.Atoi(part[1:])
					loc = append(loc, Index(n))
				} else {
					loc = append(loc, Key(part))
				}
			}
		}
		newKey := rebase(loc).canonicalKey()
		if l.stopping[newKey] == nil {
			l.stopping[newKey] = map[errors.Code]bool{}
		}
		for code := range codes {
			l.stopping[newKey][code] = true
		}
	}
}

// Get returns a sub-log scoped under loc, with matching entries' locations
// stripped of the loc prefix. A nil errorCodes/warningCodes means "all
// codes".
func (l *Log) Get(errorCodes, warningCodes []errors.Code, loc ...PathElem) *Log {
	prefix := Location(loc)
	match := func(code errors.Code, allowed []errors.Code) bool {
		if allowed == nil {
			return true
		}
		for _, c := range allowed {
			if c == code {
				return true
			}
		}
		return false
	}

	out := New()
	for _, e := range l.errs {
		if e.loc.hasPrefix(prefix) && match(e.issue.Code, errorCodes) {
			out.errs = append(out.errs, entry{loc: e.loc[len(prefix):], issue: e.issue})
		}
	}
	for _, e := range l.warns {
		if e.loc.hasPrefix(prefix) && match(e.issue.Code, warningCodes) {
			out.warns = append(out.warns, entry{loc: e.loc[len(prefix):], issue: e.issue})
		}
	}
	return out
}

// PopErrors removes and returns errors matching any of codes at loc or any
// descendant of loc, pruning matching stop_proceeding entries too.
func (l *Log) PopErrors(codes []errors.Code, loc ...PathElem) []Issue {
	prefix := Location(loc)
	matches := func(code errors.Code) bool {
		for _, c := range codes {
			if c == code {
				return true
			}
		}
		return false
	}

	var popped []Issue
	var kept []entry
	for _, e := range l.errs {
		if e.loc.hasPrefix(prefix) && matches(e.issue.Code) {
			popped = append(popped, e.issue)
			continue
		}
		kept = append(kept, e)
	}
	l.errs = kept

	for key, codeSet := range l.stopping {
		var keyLoc Location
		if key != "" {
			for _, part := range strings.Split(key, "\x1f") {
				if strings.HasPrefix(part, "#") {
					n, _ := strconv.Atoi(part[1:])
					keyLoc = append(keyLoc, Index(n))
				} else {
					keyLoc = append(keyLoc, Key(part))
				}
			}
		}
		if !keyLoc.hasPrefix(prefix) {
			continue
		}
		for c := range codeSet {
			if matches(c) {
				delete(codeSet, c)
			}
		}
		if len(codeSet) == 0 {
			delete(l.stopping, key)
		}
	}

	return popped
}

// CanProceed reports whether no stop_proceeding entry lies on any prefix of
// any given location. With no arguments, it checks the root location.
func (l *Log) CanProceed(locs ...Location) bool {
	if len(locs) == 0 {
		locs = []Location{{}}
	}
	for _, loc := range locs {
		for _, key := range loc.prefixes() {
			if codes, ok := l.stopping[key]; ok && len(codes) > 0 {
				return false
			}
		}
	}
	return true
}

// HasErrors reports whether any error is recorded at or under any of locs.
// With no arguments, it reports whether any error was recorded at all.
func (l *Log) HasErrors(locs ...Location) bool {
	if len(locs) == 0 {
		return len(l.errs) > 0
	}
	for _, e := range l.errs {
		for _, loc := range locs {
			if e.loc.hasPrefix(loc) {
				return true
			}
		}
	}
	return false
}

type issueDict struct {
	Code    string                 `json:"code"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ToDict renders the log in the nested form that mirrors the data tree:
// {attr: {sub: {_errors: [...], _warnings: [...]}}}.
func (l *Log) ToDict() map[string]interface{} {
	root := map[string]interface{}{}
	place := func(loc Location, bucket string, iss Issue) {
		node := root
		for _, e := range loc {
			key := e.String()
			child, ok := node[key].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[key] = child
			}
			node = child
		}
		list, _ := node[bucket].([]issueDict)
		list = append(list, issueDict{Code: iss.Code.String(), Error: iss.Message(), Context: iss.Context})
		node[bucket] = list
	}
	for _, e := range l.errs {
		place(e.loc, "_errors", e.issue)
	}
	for _, e := range l.warns {
		place(e.loc, "_warnings", e.issue)
	}
	return root
}

// Flatten renders the log as a flat map keyed by dotted path, each value the
// list of issues recorded for that exact path (errors first, then
// warnings). The map itself has no order; Paths gives the sorted keys.
func (l *Log) Flatten() map[string][]Issue {
	out := map[string][]Issue{}
	for _, e := range l.errs {
		key := e.loc.String()
		out[key] = append(out[key], e.issue)
	}
	for _, e := range l.warns {
		key := e.loc.String()
		out[key] = append(out[key], e.issue)
	}
	return out
}

// Paths returns the sorted set of distinct locations with at least one
// issue recorded, for deterministic iteration in callers/tests.
func (l *Log) Paths() []string {
	seen := map[string]bool{}
	for _, e := range l.errs {
		seen[e.loc.String()] = true
	}
	for _, e := range l.warns {
		seen[e.loc.String()] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
