package testfixtures

import (
	"fmt"
	"sync"
)

// IDSequence hands out zero padded identifiers such as "bk-001".
type IDSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewIDSequence(prefix string) *IDSequence {
	if prefix == "" {
		prefix = "bk"
	}
	return &IDSequence{prefix: prefix}
}

func (s *IDSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%03d", s.prefix, s.n)
}

// NextFunc adapts the sequence for constructor injection.
func (s *IDSequence) NextFunc() func() string {
	if s == nil {
		return func() string { return "" }
	}
	return s.Next
}

// Reset rewinds the sequence so the next identifier ends in 001.
func (s *IDSequence) Reset() {
	s.mu.Lock()
	s.n = 0
	s.mu.Unlock()
}
