package pool

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MatchResult classifies a candidate pattern against a stored one.
type MatchResult int

const (
	NotMatch MatchResult = iota
	Match
	// MatchButDataExhaust fits, but the candidate already covers everything the
	// stored pattern knows, so it cannot predict what comes next.
	MatchButDataExhaust
)

func (m MatchResult) String() string {
	switch m {
	case Match:
		return "Match"
	case MatchButDataExhaust:
		return "MatchButDataExhaust"
	default:
		return "NotMatch"
	}
}

// FluctuationPattern is an immutable sequence of in-use counts together with its
// first differences.
type FluctuationPattern struct {
	originals []int
	changes   []int
	token     string
	key       uint64
}

// NewFluctuationPattern copies values. Fewer than two samples yield an
// unavailable pattern.
func NewFluctuationPattern(values []int) *FluctuationPattern {
	p := &FluctuationPattern{originals: slices.Clone(values)}
	if len(values) < 2 {
		return p
	}
	p.changes = make([]int, len(values)-1)
	for i := 1; i < len(values); i++ {
		p.changes[i-1] = values[i] - values[i-1]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	p.token = strings.Join(parts, "-")
	p.key = xxhash.Sum64String(p.token)
	return p
}

func (p *FluctuationPattern) Available() bool { return len(p.originals) >= 2 }

func (p *FluctuationPattern) Originals() []int { return slices.Clone(p.originals) }
func (p *FluctuationPattern) Changes() []int   { return slices.Clone(p.changes) }

// Token is the dash-joined original values, used for exact duplicate detection.
func (p *FluctuationPattern) Token() string { return p.token }

// Key is the xxhash of Token.
func (p *FluctuationPattern) Key() uint64 { return p.key }

// GoodnessOfFit scores this pattern's changes against other's. This series is
// cut to other's length, both are centred on the mean of other's changes and
// the score is the ratio of this pattern's sum of squares to other's.
func (p *FluctuationPattern) GoodnessOfFit(other *FluctuationPattern) float64 {
	ref := other.changes
	fit := p.changes
	if len(fit) > len(ref) {
		fit = fit[:len(ref)]
	}
	if len(fit) == 0 || len(ref) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range ref {
		mean += float64(v)
	}
	mean /= float64(len(ref))

	var sst, ssr float64
	for _, v := range ref {
		d := float64(v) - mean
		sst += d * d
	}
	for _, v := range fit {
		d := float64(v) - mean
		ssr += d * d
	}

	switch {
	case sst == 0 && ssr == 0:
		return 1
	case sst == 0:
		return 0
	default:
		return ssr / sst
	}
}

// PeakValue returns the largest original value at or after start.
func (p *FluctuationPattern) PeakValue(start int) (int, bool) {
	if start <= 0 || start >= len(p.originals) {
		return 0, false
	}
	peak := 0
	for _, v := range p.originals[start:] {
		peak = max(peak, v)
	}
	return peak, true
}

// PatternRecord is a stored pattern and how often it has matched.
type PatternRecord struct {
	Pattern    *FluctuationPattern
	MatchCount int
}
