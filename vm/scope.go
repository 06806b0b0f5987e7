package vm

// scopeStack assigns frame slots to local names while a function is
// compiled. Each open block owns a table; a block inherits its parent's
// next free slot and hands it back when it closes, so sibling blocks reuse
// slots while nested blocks stack on top of their parents.
type scopeStack struct {
	tables  []map[string]int
	offsets []int
	next    int
	high    int
}

// init resets the stack for a new function body.
func (s *scopeStack) init() {
	s.tables = []map[string]int{{}}
	s.offsets = []int{0}
	s.next = 0
	s.high = 0
}

func (s *scopeStack) push() {
	s.tables = append(s.tables, map[string]int{})
	s.offsets = append(s.offsets, s.next)
}

func (s *scopeStack) pop() {
	n := len(s.tables) - 1
	s.next = s.offsets[n]
	s.tables = s.tables[:n]
	s.offsets = s.offsets[:n]
}

// declare binds name in the innermost table and returns its slot.
// Redeclaring a name in the same block reuses the slot.
func (s *scopeStack) declare(name string) int {
	top := s.tables[len(s.tables)-1]
	if slot, ok := top[name]; ok {
		return slot
	}
	slot := s.next
	top[name] = slot
	s.next++
	if s.next > s.high {
		s.high = s.next
	}
	return slot
}

// lookup searches innermost to outermost.
func (s *scopeStack) lookup(name string) (int, bool) {
	for i := len(s.tables) - 1; i >= 0; i-- {
		if slot, ok := s.tables[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// highWater is the largest number of slots simultaneously live so far.
func (s *scopeStack) highWater() int {
	return s.high
}
