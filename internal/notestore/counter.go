package notestore

// NoteCount returns the id of the most recently created note, 0 before any.
func (s *State) NoteCount() (uint64, error) {
	var n uint64
	if _, err := s.load(keyCounter, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// NextNoteID advances the global counter and returns the new value.
// It is the only writer of the counter.
func (s *State) NextNoteID() (uint64, error) {
	n, err := s.NoteCount()
	if err != nil {
		return 0, err
	}
	n++
	if err := s.store(keyCounter, n); err != nil {
		return 0, err
	}
	return n, nil
}

// ResetCounter writes 0. Only initialization calls it.
func (s *State) ResetCounter() error {
	return s.store(keyCounter, uint64(0))
}
