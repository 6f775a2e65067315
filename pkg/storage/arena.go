package storage

// arena is an append-only store addressed by 1-based handles
type arena[E any] struct {
	items []E
}

func (a *arena[E]) add(e E) uint32 {
	a.items = append(a.items, e)
	return uint32(len(a.items))
}

func (a *arena[E]) get(id uint32) (*E, bool) {
	if id == 0 || int(id) > len(a.items) {
		return nil, false
	}
	return &a.items[id-1], true
}

func (a *arena[E]) len() int {
	return len(a.items)
}

// appendUnique appends v unless it is already present
func appendUnique[E comparable](list []E, v E) []E {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func contains[E comparable](list []E, v E) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func cloneSlice[E any](s []E) []E {
	if len(s) == 0 {
		return nil
	}
	out := make([]E, len(s))
	copy(out, s)
	return out
}
