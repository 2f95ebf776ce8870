package oaskema

import "context"

// combinators runs the node's allOf, anyOf and oneOf groups. allOf members
// report at the node's own path and their findings are unioned; anyOf and
// oneOf are probed speculatively and reduce to a single finding on mismatch.
func (st *walkState) combinators(ctx context.Context, s *Schema, v any, ex *Exception) {
	for _, member := range s.AllOf {
		sub := &Exception{}
		st.walk(ctx, member, v, sub)
		ex.merge(sub)
	}
	if len(s.AnyOf) > 0 {
		matched := false
		for _, member := range s.AnyOf {
			if st.probe(ctx, member, v) {
				matched = true
				break
			}
		}
		if !matched {
			ex.add(CodeAnyOfMismatch, nil)
		}
	}
	if len(s.OneOf) > 0 {
		hits := 0
		for _, member := range s.OneOf {
			if st.probe(ctx, member, v) {
				hits++
				if hits > 1 {
					break
				}
			}
		}
		if hits != 1 {
			ex.add(CodeOneOfMismatch, nil)
		}
	}
}

// probe validates v against s with fresh bookkeeping so that speculative
// branches neither see nor pollute the guards of the enclosing walk.
func (st *walkState) probe(ctx context.Context, s *Schema, v any) bool {
	sub := newWalkState()
	ex := &Exception{}
	sub.walk(ctx, s, v, ex)
	return !ex.HasErrors()
}
