package pool

import (
	"slices"

	"github.com/zeusync/liquid/internal/core/events"
	"github.com/zeusync/liquid/internal/core/observability/log"
)

// record samples the in-use count and closes the current pattern once usage has
// settled or the history is full.
func (p *ObjectPool) record() {
	p.history = append(p.history, p.inUse)
	if !p.patternEnded() {
		return
	}

	count := len(p.history)
	if j, ok := p.bigJitter(0, count-1); ok {
		if end := count - p.settings.MinimumStableCountOfEndPattern + 1; end > j {
			p.learn(slices.Clone(p.history[j:end]))
		}
	}
	p.history = p.history[:0]
}

func (p *ObjectPool) patternEnded() bool {
	count := len(p.history)
	if count >= p.settings.MaximumHistoryCount {
		return true
	}
	stable := max(2, p.settings.MinimumStableCountOfEndPattern)
	if count < stable || count < p.settings.MinimumHistoryCount+stable {
		return false
	}
	_, jitter := p.bigJitter(count-stable, count-1)
	return !jitter
}

// bigJitter walks history[lo..hi] accumulating absolute steps and reports the
// index at which the total first exceeds MaximumJitterOfPattern.
func (p *ObjectPool) bigJitter(lo, hi int) (int, bool) {
	if len(p.history) < 2 || lo < 0 || hi >= len(p.history) {
		return 0, false
	}
	total := 0
	for i := lo; i < hi; i++ {
		step := p.history[i+1] - p.history[i]
		if step < 0 {
			step = -step
		}
		total += step
		if total > p.settings.MaximumJitterOfPattern {
			return i, true
		}
	}
	return 0, false
}

func (p *ObjectPool) learn(values []int) {
	rec := p.patterns.AddPattern(NewFluctuationPattern(values))
	if rec == nil {
		return
	}
	p.stats.Learned++
	p.log.Info("usage pattern learned", log.Ints("values", values), log.Int("stored", p.patterns.Len()))
	p.publish(events.TypePatternLearned, events.PatternLearned{Pool: p.key, Values: values, Stored: p.patterns.Len()})
}

// WaterLevel reports whether the usage rate is above the high mark or below the
// low mark. An empty pool counts as low.
func (p *ObjectPool) WaterLevel() WaterLevel {
	if len(p.elements) == 0 {
		return WaterLow
	}
	rate := float64(p.inUse) / float64(len(p.elements))
	switch {
	case rate >= p.settings.HighWaterMark:
		return WaterHigh
	case rate <= p.settings.LowWaterMark:
		return WaterLow
	default:
		return WaterNormal
	}
}

// predict returns the size change the pool should make.
func (p *ObjectPool) predict() int {
	level := p.WaterLevel()
	if level == WaterNormal {
		return 0
	}

	effective := p.history
	if j, ok := p.bigJitter(0, len(p.history)-1); ok {
		effective = p.history[j:]
	}

	change := p.settings.MaximumChangePerUpdate
	if level == WaterLow {
		change = -change
	}
	if rec, ok := p.patterns.FirstMatch(NewFluctuationPattern(effective), Match); ok {
		if peak, ok := rec.Pattern.PeakValue(len(effective)); ok {
			change = peak - len(p.elements)
		}
	}

	if change < 0 && p.protectLeft > 0 {
		return 0
	}
	if change != 0 {
		p.log.Debug("pool prediction",
			log.String("level", level.String()),
			log.Int("change", change),
			log.Ints("history", effective),
		)
	}
	return change
}

// apply carries out at most MaximumChangePerUpdate units of the pending change.
func (p *ObjectPool) apply() {
	step := p.settings.MaximumChangePerUpdate
	switch {
	case p.needCreate > 0:
		n := min(p.needCreate, step)
		p.needCreate -= n
		if err := p.Expand(n); err != nil {
			p.log.Warn("expand failed, pending growth dropped", log.Error(err))
			p.needCreate = 0
		}
	case p.needCreate < 0:
		n := min(-p.needCreate, step)
		p.needCreate += n
		p.Shrink(n)
	}
}
