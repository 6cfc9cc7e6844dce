package manifest

// Result is a structural diff between two manifest revisions. The three
// mappings are disjoint: a key appears in at most one of them, and keys
// with equal values on both sides appear in none.
type Result struct {
	// Added holds keys present only in head, mapped to the head value.
	Added map[string]any
	// Removed holds keys present only in base, mapped to the base value.
	Removed map[string]any
	// Updated holds keys present on both sides with differing values.
	// When both sides are objects, the value is a map of only the nested
	// keys that changed (new value, or nil for nested removals).
	// Otherwise the value is the head-side value as-is.
	Updated map[string]any
}

// Empty reports whether the two revisions were identical.
func (r Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Updated) == 0
}

// Diff computes the structural difference between base and head.
func Diff(base, head Manifest) Result {
	return diffObjects(base, head)
}

func diffObjects(base, head map[string]any) Result {
	res := Result{
		Added:   map[string]any{},
		Removed: map[string]any{},
		Updated: map[string]any{},
	}
	for key, baseVal := range base {
		headVal, ok := head[key]
		if !ok {
			res.Removed[key] = baseVal
			continue
		}
		if equal(baseVal, headVal) {
			continue
		}
		baseObj, baseIsObj := baseVal.(map[string]any)
		headObj, headIsObj := headVal.(map[string]any)
		if baseIsObj && headIsObj {
			nested := diffObjects(baseObj, headObj)
			if nested.Empty() {
				continue
			}
			res.Updated[key] = nested.changedKeys()
			continue
		}
		res.Updated[key] = headVal
	}
	for key, headVal := range head {
		if _, ok := base[key]; !ok {
			res.Added[key] = headVal
		}
	}
	return res
}

// changedKeys collapses a nested diff into a single change set: added and
// updated keys map to their new value, removed keys map to nil. Downstream
// consumers re-read both sides anyway, so removals only need to be visible,
// not reconstructible.
func (r Result) changedKeys() map[string]any {
	changed := make(map[string]any, len(r.Added)+len(r.Removed)+len(r.Updated))
	for key, val := range r.Added {
		changed[key] = val
	}
	for key := range r.Removed {
		changed[key] = nil
	}
	for key, val := range r.Updated {
		changed[key] = val
	}
	return changed
}

// equal is deep value equality over the closed set of JSON kinds.
// Values outside that set never compare equal.
func equal(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, val := range av {
			other, ok := bv[key]
			if !ok || !equal(val, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
