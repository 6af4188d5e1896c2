package simulator

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type Summary struct {
	Scenario   string        `json:"scenario" yaml:"scenario"`
	Frames     uint64        `json:"frames" yaml:"frames"`
	Simulated  string        `json:"simulated" yaml:"simulated"`
	TreeErrors uint64        `json:"tree_errors" yaml:"tree_errors"`
	Trees      []TreeSummary `json:"trees" yaml:"trees"`
	Pools      []PoolSummary `json:"pools" yaml:"pools"`
}

type TreeSummary struct {
	Name        string `json:"name" yaml:"name"`
	Ticks       uint64 `json:"ticks" yaml:"ticks"`
	Result      string `json:"result" yaml:"result"`
	Completions uint64 `json:"completions" yaml:"completions"`
	Interrupts  uint64 `json:"interrupts" yaml:"interrupts"`
}

type PoolSummary struct {
	Key       string `json:"key" yaml:"key"`
	Size      int    `json:"size" yaml:"size"`
	Peak      int    `json:"peak" yaml:"peak"`
	InUse     int    `json:"in_use" yaml:"in_use"`
	Demanded  uint64 `json:"demanded" yaml:"demanded"`
	Created   uint64 `json:"created" yaml:"created"`
	Destroyed uint64 `json:"destroyed" yaml:"destroyed"`
	Expired   uint64 `json:"expired" yaml:"expired"`
	Patterns  int    `json:"patterns" yaml:"patterns"`
	Learned   uint64 `json:"learned" yaml:"learned"`
}

func (r *Runner) summary() *Summary {
	stats := r.engine.Stats()
	s := &Summary{
		Scenario:   r.sc.Name,
		Frames:     stats.Frames,
		Simulated:  stats.Elapsed.String(),
		TreeErrors: stats.TreeErrors,
	}
	for _, t := range r.engine.Trees() {
		s.Trees = append(s.Trees, TreeSummary{
			Name:        t.Name(),
			Ticks:       t.Ticks(),
			Result:      t.Result().String(),
			Completions: r.completions[t.Name()],
			Interrupts:  r.interrupts[t.Name()],
		})
	}
	for _, p := range stats.Pools {
		s.Pools = append(s.Pools, PoolSummary{
			Key:       p.Key,
			Size:      p.Size,
			Peak:      max(r.peaks[p.Key], p.Size),
			InUse:     p.InUse,
			Demanded:  r.demanded[p.Key],
			Created:   p.Created,
			Destroyed: p.Destroyed,
			Expired:   p.Expired,
			Patterns:  p.Patterns,
			Learned:   p.Learned,
		})
	}
	return s
}

// Write renders the summary as text, json or yaml.
func (s *Summary) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return s.writeText(w)
	default:
		return fmt.Errorf("simulator: unknown output format %q", format)
	}
}

func (s *Summary) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "scenario %s: %d frames, %s simulated, %d tree errors\n\n",
		s.Scenario, s.Frames, s.Simulated, s.TreeErrors)

	_, _ = fmt.Fprintln(tw, "TREE\tTICKS\tRESULT\tCOMPLETED\tINTERRUPTED")
	for _, t := range s.Trees {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\n", t.Name, t.Ticks, t.Result, t.Completions, t.Interrupts)
	}
	_, _ = fmt.Fprintln(tw)

	_, _ = fmt.Fprintln(tw, "POOL\tSIZE\tPEAK\tIN USE\tDEMANDED\tCREATED\tDESTROYED\tEXPIRED\tPATTERNS")
	for _, p := range s.Pools {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			p.Key, p.Size, p.Peak, p.InUse, p.Demanded, p.Created, p.Destroyed, p.Expired, p.Patterns)
	}
	return tw.Flush()
}
