// Package simulator replays a scripted demand curve against behavior trees and
// object pools so pool sizing and tree behavior can be inspected offline.
package simulator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/liquid/internal/core/behavior"
	"github.com/zeusync/liquid/internal/core/pool"
)

var ErrInvalidScenario = errors.New("simulator: invalid scenario")

type Scenario struct {
	Name   string `yaml:"name"`
	Frames uint64 `yaml:"frames"`
	// FrameDelta overrides the configured step when set.
	FrameDelta time.Duration     `yaml:"frame_delta"`
	Blackboard map[string]any    `yaml:"blackboard"`
	Trees      []TreeSpec        `yaml:"trees"`
	Pools      []PoolSpec        `yaml:"pools"`
	Demand     []Demand          `yaml:"demand"`
	Events     []BlackboardEvent `yaml:"events"`
}

type TreeSpec struct {
	Name string          `yaml:"name"`
	Tree behavior.Config `yaml:"tree"`
}

// PoolSpec registers a pool up front. Settings only lists the fields that
// differ from the configured defaults.
type PoolSpec struct {
	Key      string    `yaml:"key"`
	Preheat  int       `yaml:"preheat"`
	Settings yaml.Node `yaml:"settings"`
}

// Demand spawns Count elements of Pool on every Every-th frame in [From, To].
type Demand struct {
	Pool   string        `yaml:"pool"`
	From   uint64        `yaml:"from"`
	To     uint64        `yaml:"to"`
	Every  uint64        `yaml:"every"`
	Count  int           `yaml:"count"`
	Expire time.Duration `yaml:"expire"`
}

// BlackboardEvent writes Set into the shared blackboard at Frame.
type BlackboardEvent struct {
	Frame uint64         `yaml:"frame"`
	Set   map[string]any `yaml:"set"`
}

func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("simulator: decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	defer f.Close()
	return LoadScenario(f)
}

func (s *Scenario) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidScenario}, args...)...))
	}
	if s.FrameDelta < 0 {
		fail("frame_delta must not be negative")
	}
	seen := map[string]bool{}
	for i, t := range s.Trees {
		switch {
		case t.Name == "":
			fail("trees[%d] has no name", i)
		case seen[t.Name]:
			fail("tree %s declared twice", t.Name)
		}
		seen[t.Name] = true
		if t.Tree.Root == "" {
			fail("tree %s has no root", t.Name)
		}
	}
	pools := map[string]bool{}
	for i, p := range s.Pools {
		if p.Key == "" {
			fail("pools[%d] has no key", i)
		}
		if pools[p.Key] {
			fail("pool %s declared twice", p.Key)
		}
		pools[p.Key] = true
		if p.Preheat < 0 {
			fail("pool %s preheat must not be negative", p.Key)
		}
	}
	for i, d := range s.Demand {
		if d.Pool == "" {
			fail("demand[%d] has no pool", i)
		}
		if d.From == 0 {
			fail("demand[%d] frames start at 1", i)
		}
		if d.To != 0 && d.To < d.From {
			fail("demand[%d] ends before it starts", i)
		}
		if d.Count <= 0 {
			fail("demand[%d] count must be positive", i)
		}
	}
	return errors.Join(errs...)
}

// Resolve decodes the pool overrides on top of base.
func (p PoolSpec) Resolve(base pool.Settings) (pool.Settings, error) {
	s := base
	if !p.Settings.IsZero() {
		if err := p.Settings.Decode(&s); err != nil {
			return s, fmt.Errorf("simulator: pool %s settings: %w", p.Key, err)
		}
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("simulator: pool %s: %w", p.Key, err)
	}
	return s, nil
}

// Active reports whether d spawns on frame.
func (d Demand) Active(frame uint64) bool {
	to := d.To
	if to == 0 {
		to = d.From
	}
	if frame < d.From || frame > to {
		return false
	}
	every := max(d.Every, 1)
	return (frame-d.From)%every == 0
}
