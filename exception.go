package oaskema

import (
	"errors"
	"strconv"
	"strings"

	"github.com/reoring/oaskema/i18n"
)

// Exception accumulates validation findings as a tree mirroring the shape of
// the validated value: leaf messages at the current location plus child
// subtrees keyed by a property name or array index. One Exception is built
// per validation call and owned exclusively by that call.
type Exception struct {
	items []excItem
	count int // leaves in this subtree
}

// excItem is either a leaf finding (issue != nil) or a labeled child subtree.
type excItem struct {
	issue *Issue
	label string
	index bool
	child *Exception
}

// ---- accumulation ----

func (e *Exception) add(code string, data map[string]string) {
	e.items = append(e.items, excItem{issue: &Issue{Code: code, Message: i18n.T(code, data)}})
	e.count++
}

// attachField hangs child under the given property name. Empty children are
// dropped so valid branches leave no trace in the tree.
func (e *Exception) attachField(name string, child *Exception) {
	if child == nil || child.count == 0 {
		return
	}
	e.items = append(e.items, excItem{label: name, child: child})
	e.count += child.count
}

// attachIndex hangs child under the given array index.
func (e *Exception) attachIndex(i int, child *Exception) {
	if child == nil || child.count == 0 {
		return
	}
	e.items = append(e.items, excItem{label: strconv.Itoa(i), index: true, child: child})
	e.count += child.count
}

// merge appends every item of other at the same location, preserving order.
// Used by allOf, whose members all report at the path of the composed node.
func (e *Exception) merge(other *Exception) {
	if other == nil || other.count == 0 {
		return
	}
	e.items = append(e.items, other.items...)
	e.count += other.count
}

// ---- inspection ----

// HasErrors reports whether the subtree contains at least one finding.
func (e *Exception) HasErrors() bool { return e != nil && e.count > 0 }

// Issues flattens the tree into path-qualified findings in emission order.
func (e *Exception) Issues() []Issue {
	if !e.HasErrors() {
		return nil
	}
	out := make([]Issue, 0, e.count)
	e.flatten("", &out)
	return out
}

func (e *Exception) flatten(prefix string, out *[]Issue) {
	for _, it := range e.items {
		if it.issue != nil {
			iss := *it.issue
			iss.Path = prefix
			*out = append(*out, iss)
			continue
		}
		it.child.flatten(joinPath(prefix, it.label, it.index), out)
	}
}

func joinPath(prefix, label string, index bool) string {
	if index {
		return prefix + "[" + label + "]"
	}
	if prefix == "" {
		return label
	}
	return prefix + "." + label
}

// Messages renders every finding as "path: message" (message alone at the
// root), in emission order.
func (e *Exception) Messages() []string {
	iss := e.Issues()
	if iss == nil {
		return nil
	}
	out := make([]string, len(iss))
	for i, it := range iss {
		if it.Path == "" {
			out[i] = it.Message
			continue
		}
		out[i] = it.Path + ": " + it.Message
	}
	return out
}

// Error lists every finding under a single summary line.
func (e *Exception) Error() string {
	b := &strings.Builder{}
	b.WriteString("one or more errors found")
	for _, m := range e.Messages() {
		b.WriteString("\n  ")
		b.WriteString(m)
	}
	return b.String()
}

// NewException builds an Exception from pre-rendered issues, each reported at
// the root path. Codecs and tools that find problems outside a validation
// walk use it to speak the library's error type.
func NewException(issues ...Issue) *Exception {
	e := &Exception{}
	for _, iss := range issues {
		iss.Path = ""
		cp := iss
		e.items = append(e.items, excItem{issue: &cp})
		e.count++
	}
	return e
}

// AsException extracts an *Exception from an error using errors.As internally.
func AsException(err error) (*Exception, bool) {
	if err == nil {
		return nil, false
	}
	var ex *Exception
	if errors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}
