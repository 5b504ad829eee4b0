package sets

// Set is a simple generic hash set for comparable keys.
// Intentionally minimal: no reflection, no iteration helpers beyond range.
// Kept internal to avoid committing to external API stability pre-1.0.
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }

// Clone returns a shallow copy.
func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Ordered is a set that remembers first-insertion order. Tag and link
// accumulation depend on that order surviving dedupe.
type Ordered[T comparable] struct {
	seen  Set[T]
	order []T
}

// NewOrdered creates an ordered set pre-populated with the provided values.
func NewOrdered[T comparable](vals ...T) *Ordered[T] {
	o := &Ordered[T]{seen: make(Set[T], len(vals))}
	for _, v := range vals {
		o.Add(v)
	}
	return o
}

// Add inserts v unless already present. Returns true if it was new.
func (o *Ordered[T]) Add(v T) bool {
	if o.seen == nil {
		o.seen = Set[T]{}
	}
	if o.seen.Has(v) {
		return false
	}
	o.seen.Add(v)
	o.order = append(o.order, v)
	return true
}

// Has returns true if v is present.
func (o *Ordered[T]) Has(v T) bool { return o.seen.Has(v) }

// Len returns the number of distinct values.
func (o *Ordered[T]) Len() int { return len(o.order) }

// Values returns the distinct values in first-insertion order.
func (o *Ordered[T]) Values() []T {
	out := make([]T, len(o.order))
	copy(out, o.order)
	return out
}
