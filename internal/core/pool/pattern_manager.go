package pool

import "slices"

// PatternManager stores a bounded set of patterns and matches candidates against
// them. Records keep insertion order; the least matched record is evicted first.
type PatternManager struct {
	capacity  int
	threshold float64
	records   []*PatternRecord
	index     map[uint64]*PatternRecord
}

func NewPatternManager(capacity int, threshold float64) *PatternManager {
	return &PatternManager{
		capacity:  max(capacity, 1),
		threshold: threshold,
		index:     make(map[uint64]*PatternRecord),
	}
}

func (m *PatternManager) Len() int { return len(m.records) }

// Records returns the stored records in insertion order.
func (m *PatternManager) Records() []PatternRecord {
	out := make([]PatternRecord, len(m.records))
	for i, r := range m.records {
		out[i] = *r
	}
	return out
}

// AddPattern stores p, or bumps the counter of an identical stored pattern.
// Unavailable patterns are ignored and reported as nil.
func (m *PatternManager) AddPattern(p *FluctuationPattern) *PatternRecord {
	if p == nil || !p.Available() {
		return nil
	}
	if rec := m.lookup(p); rec != nil {
		rec.MatchCount++
		return rec
	}
	if len(m.records) >= m.capacity {
		m.evictColdest()
	}
	rec := &PatternRecord{Pattern: p}
	m.records = append(m.records, rec)
	if _, taken := m.index[p.key]; !taken {
		m.index[p.key] = rec
	}
	return rec
}

func (m *PatternManager) lookup(p *FluctuationPattern) *PatternRecord {
	rec, ok := m.index[p.key]
	if !ok {
		return nil
	}
	if rec.Pattern.token == p.token {
		return rec
	}
	// hash collision
	for _, rec = range m.records {
		if rec.Pattern.token == p.token {
			return rec
		}
	}
	return nil
}

// evictColdest drops the record with the lowest match count; among equals the
// most recently inserted goes.
func (m *PatternManager) evictColdest() {
	if len(m.records) == 0 {
		return
	}
	coldest := 0
	for i, rec := range m.records {
		if rec.MatchCount <= m.records[coldest].MatchCount {
			coldest = i
		}
	}
	victim := m.records[coldest]
	m.records = slices.Delete(m.records, coldest, coldest+1)
	if m.index[victim.Pattern.key] == victim {
		delete(m.index, victim.Pattern.key)
		for _, rec := range m.records {
			if rec.Pattern.key == victim.Pattern.key {
				m.index[rec.Pattern.key] = rec
				break
			}
		}
	}
}

// Match classifies candidate against rec and counts a hit on rec when the fit
// clears the threshold. The stored series is scored against the candidate, so
// the opening of a stored pattern fits it.
func (m *PatternManager) Match(candidate *FluctuationPattern, rec *PatternRecord) MatchResult {
	if candidate == nil || rec == nil || !candidate.Available() || !rec.Pattern.Available() {
		return NotMatch
	}
	if rec.Pattern.GoodnessOfFit(candidate) < m.threshold {
		return NotMatch
	}
	rec.MatchCount++
	if len(candidate.changes) >= len(rec.Pattern.changes) {
		return MatchButDataExhaust
	}
	return Match
}

// FirstMatch returns the first record, in insertion order, classified as want.
func (m *PatternManager) FirstMatch(candidate *FluctuationPattern, want MatchResult) (*PatternRecord, bool) {
	for _, rec := range m.records {
		if m.Match(candidate, rec) == want {
			return rec, true
		}
	}
	return nil, false
}

// BestMatch returns the record classified as want with the highest fit.
func (m *PatternManager) BestMatch(candidate *FluctuationPattern, want MatchResult) (*PatternRecord, bool) {
	var best *PatternRecord
	bestFit := 0.0
	for _, rec := range m.records {
		if m.Match(candidate, rec) != want {
			continue
		}
		if fit := rec.Pattern.GoodnessOfFit(candidate); best == nil || fit > bestFit {
			best, bestFit = rec, fit
		}
	}
	return best, best != nil
}

func (m *PatternManager) Clear() {
	m.records = nil
	m.index = make(map[uint64]*PatternRecord)
}
