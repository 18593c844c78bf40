package walker

import (
	"sync"

	"github.com/bethropolis/needle/internal/ignore"
)

// work is one unit on the shared stack: a file to visit, or a directory to
// list together with the ignore frame of its parent and, when links are
// followed, the identities of the directories above it.
type work struct {
	ent       *DirEntry
	frame     *ignore.Dir
	ancestors *ancestor
}

// ancestor is one link in an immutable chain of directory identities,
// innermost first. Sibling work items share their parent's chain.
type ancestor struct {
	id     fileID
	parent *ancestor
}

func (a *ancestor) contains(id fileID) bool {
	for ; a != nil; a = a.parent {
		if a.id == id {
			return true
		}
	}
	return false
}

// stack is the LIFO work queue shared by the workers. Idle workers park on
// cond; the walk ends when the stack is empty and no worker is active,
// since only active workers can push.
type stack struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*work
	active int
	closed bool
}

func newStack() *stack {
	s := &stack{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *stack) push(items ...*work) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	s.items = append(s.items, items...)
	s.mu.Unlock()
	s.cond.Broadcast()
}

// pop blocks until work is available and marks the caller active. It
// returns false once the walk is over.
func (s *stack) pop() (*work, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.items) == 0 && !s.closed {
		if s.active == 0 {
			s.closed = true
			s.cond.Broadcast()
			break
		}
		s.cond.Wait()
	}
	if s.closed {
		return nil, false
	}
	n := len(s.items) - 1
	w := s.items[n]
	s.items[n] = nil
	s.items = s.items[:n]
	s.active++
	return w, true
}

// done marks the caller idle again.
func (s *stack) done() {
	s.mu.Lock()
	s.active--
	idle := s.active == 0 && len(s.items) == 0
	s.mu.Unlock()
	if idle {
		s.cond.Broadcast()
	}
}

// close ends the walk; pending items are dropped.
func (s *stack) close() {
	s.mu.Lock()
	s.closed = true
	s.items = nil
	s.mu.Unlock()
	s.cond.Broadcast()
}
