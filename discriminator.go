package oaskema

import "context"

// dispatch resolves the discriminator property of m to a concrete schema and
// validates v against it in place of s's own checks. It returns true when the
// dispatch consumed the node (delegated, or failed on the discriminator
// itself) and false when the caller should fall through to its direct checks:
// either the tag named s itself, or the concrete schema is already enforcing
// this value further up the walk, which happens when a composed hierarchy
// loops back through allOf.
func (st *walkState) dispatch(ctx context.Context, s *Schema, m map[string]any, v any, vid uintptr, ex *Exception) bool {
	d := s.Discriminator
	tag, ok := m[d.PropertyName].(string)
	if !ok {
		ex.add(CodeDiscriminatorMissing, map[string]string{"name": d.PropertyName})
		return true
	}
	concrete := d.Mapping[tag]
	if concrete == nil {
		concrete, _ = s.reg.lookup(tag)
	}
	if concrete == nil {
		ex.add(CodeDiscriminatorUnknown, map[string]string{"value": tag})
		return true
	}
	if concrete == s {
		return false
	}
	if _, enforcing := st.seen[visitKey{concrete, vid}]; enforcing {
		return false
	}
	st.walk(ctx, concrete, v, ex)
	return true
}
