package rpg_test

// seqSource returns its values in order, modulo n, cycling when exhausted.
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) Intn(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}
