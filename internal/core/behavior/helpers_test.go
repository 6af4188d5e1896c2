package behavior

// scripted replays a fixed list of results, repeating the last one.
type scripted struct {
	results  []Result
	executes int
	checks   int
	stopped  int
}

func (s *scripted) next() Result {
	i := s.executes + s.checks
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i]
}

func (s *scripted) Execute(*TickContext) Result {
	r := s.next()
	s.executes++
	return r
}

func (s *scripted) CheckExecute(*TickContext) Result {
	r := s.next()
	s.checks++
	return r
}

func (s *scripted) Stop(*TickContext) { s.stopped++ }

func (s *scripted) calls() int { return s.executes + s.checks }

func always(r Result) *scripted { return &scripted{results: []Result{r}} }

func constant(v bool) ConditionFunc {
	return func(*TickContext) bool { return v }
}

func bbFlag(key string) ConditionFunc {
	return func(tc *TickContext) bool {
		b, _ := tc.BB.GetBool(key)
		return b
	}
}

// withResults builds actions whose results are preset, for combinator tests.
func withResults(results ...Result) []Node {
	out := make([]Node, len(results))
	for i, r := range results {
		a := NewAction("a", always(r))
		a.result = r
		out[i] = a
	}
	return out
}
