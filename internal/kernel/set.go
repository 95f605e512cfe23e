package kernel

import "dcgp/internal/numeric"

// Set is an ordered, append-only collection of kernels. Duplicate pushes are
// permitted. Lookup is by index only, through Kernels.
type Set[T numeric.Number[T]] struct {
	kernels []Kernel[T]
}

// NewSet builds a set from registry names, in order.
func NewSet[T numeric.Number[T]](names ...string) (*Set[T], error) {
	s := &Set[T]{}
	for _, name := range names {
		if err := s.PushBack(name); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSet is NewSet for names known at compile time.
func MustSet[T numeric.Number[T]](names ...string) *Set[T] {
	s, err := NewSet[T](names...)
	if err != nil {
		panic(err)
	}
	return s
}

// PushBack appends the built-in kernel registered under name.
func (s *Set[T]) PushBack(name string) error {
	k, err := Lookup[T](name)
	if err != nil {
		return err
	}
	s.kernels = append(s.kernels, k)
	return nil
}

// PushBackKernel appends a kernel verbatim.
func (s *Set[T]) PushBackKernel(k Kernel[T]) {
	s.kernels = append(s.kernels, k)
}

// Kernels returns the current ordered sequence.
func (s *Set[T]) Kernels() []Kernel[T] {
	out := make([]Kernel[T], len(s.kernels))
	copy(out, s.kernels)
	return out
}

// Len returns the number of kernels pushed so far.
func (s *Set[T]) Len() int { return len(s.kernels) }
