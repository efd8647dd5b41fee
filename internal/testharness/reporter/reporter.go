// Package reporter formats scenario results as text, JSON or JUnit XML.
//
// Every format reports what the manager did in each step: the
// instructions it traced, the listener callbacks it delivered and the
// critical errors it raised. Model expectations are shown as trees.
package reporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphcache/consistency-go/internal/testharness/engine"
	"github.com/graphcache/consistency-go/pkg/log"
	"github.com/graphcache/consistency-go/pkg/model"
)

// Reporter formats and outputs scenario results.
type Reporter interface {
	// ReportSuite reports results for a scenario suite.
	ReportSuite(result *engine.SuiteResult)

	// ReportScenario reports results for a single scenario.
	ReportScenario(result *engine.ScenarioResult)
}

func status(result *engine.ScenarioResult) string {
	switch {
	case result.Skipped:
		return "skipped"
	case result.Passed:
		return "passed"
	default:
		return "failed"
	}
}

// shortID keeps the first block of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// Totals counts what the managers did over a run.
type Totals struct {
	// Stages counts instructions by the stage they finished in.
	Stages map[string]int `json:"stages"`

	// Callbacks counts listener callbacks.
	Callbacks int `json:"callbacks"`

	// Errors counts critical errors by reason.
	Errors map[string]int `json:"errors,omitempty"`
}

func totalsOf(results []*engine.ScenarioResult) Totals {
	t := Totals{Stages: make(map[string]int)}
	for _, sr := range results {
		for _, step := range sr.StepResults {
			for _, ins := range step.Instructions {
				if ins.Stage == log.StageFailed {
					if t.Errors == nil {
						t.Errors = make(map[string]int)
					}
					t.Errors[ins.Reason]++
					continue
				}
				t.Stages[ins.Stage.String()]++
			}
			for _, d := range step.Deliveries {
				t.Callbacks += d.Calls
			}
		}
	}
	return t
}

func (t Totals) String() string {
	var b strings.Builder
	n := 0
	for _, c := range t.Stages {
		n += c
	}
	fmt.Fprintf(&b, "%d instructions", n)
	if n > 0 {
		fmt.Fprintf(&b, " (%s)", countList(t.Stages, strings.ToLower))
	}
	fmt.Fprintf(&b, ", %d callbacks", t.Callbacks)
	if len(t.Errors) > 0 {
		fmt.Fprintf(&b, ", critical errors: %s", countList(t.Errors, nil))
	}
	return b.String()
}

func countList(m map[string]int, name func(string) string) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		label := k
		if name != nil {
			label = name(k)
		}
		parts = append(parts, fmt.Sprintf("%s %d", label, m[k]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stepTitle(sr *engine.StepResult) string {
	title := fmt.Sprintf("step %d %s", sr.StepIndex+1, sr.Step.Action)
	if sr.Step.Listener != "" {
		title += " " + sr.Step.Listener
	}
	if sr.Step.Context != "" {
		title += " ctx=" + sr.Step.Context
	}
	return title
}

func instructionLine(ins engine.InstructionTrace) string {
	id := shortID(ins.ID)
	if id == "" {
		id = "-"
	}
	if ins.Stage == log.StageFailed {
		return fmt.Sprintf("%s %s %s %s %v", id, ins.Kind, ins.Stage, ins.Reason, ins.IDs)
	}
	line := fmt.Sprintf("%s %s %s %v notified=%d paused=%d global=%d",
		id, ins.Kind, ins.Stage, ins.IDs, ins.Notified, ins.Paused, ins.Global)
	if ins.Dropped > 0 {
		line += fmt.Sprintf(" dropped=%d", ins.Dropped)
	}
	return line
}

func deliveryLine(d engine.Delivery) string {
	line := fmt.Sprintf("%s <- %d call", d.Listener, d.Calls)
	if d.Calls != 1 {
		line += "s"
	}
	if d.Updated != nil {
		line += fmt.Sprintf(" updated=%v", d.Updated)
	}
	line += fmt.Sprintf(" changed=%v deleted=%v", d.Changed, d.Deleted)
	if d.Context != nil {
		line += fmt.Sprintf(" ctx=%v", d.Context)
	}
	return line
}

// activity lists what the manager did in a step, one entry per line.
func activity(sr *engine.StepResult) []string {
	var lines []string
	for _, ins := range sr.Instructions {
		lines = append(lines, instructionLine(ins))
	}
	for _, d := range sr.Deliveries {
		lines = append(lines, deliveryLine(d))
	}
	for _, e := range sr.Errors {
		lines = append(lines, "error "+e)
	}
	return lines
}

// expectLines reports one expectation. Failed model expectations are
// followed by both trees.
func expectLines(er *engine.ExpectResult) []string {
	mark := "ok  "
	if !er.Passed {
		mark = "FAIL"
	}
	lines := []string{fmt.Sprintf("%s %s: %s", mark, er.Key, er.Message)}
	if er.Passed {
		return lines
	}

	want, wok := asNode(er.Expected)
	got, gok := asNode(er.Actual)
	if !wok || !gok {
		return lines
	}
	wantTree, gotTree := treeDiff(want, got)
	lines = append(lines, "  expected:")
	lines = append(lines, indent(wantTree, "    ")...)
	lines = append(lines, "  actual:")
	lines = append(lines, indent(gotTree, "    ")...)
	return lines
}

// asNode reports whether v is a model, counting a nil interface as the
// empty model.
func asNode(v any) (model.Node, bool) {
	if v == nil {
		return nil, true
	}
	n, ok := v.(model.Node)
	return n, ok
}

func nodeLabel(n model.Node) string {
	id := n.ID()
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("%s (%s)", id, model.ProjectionOf(n))
}

// treeDiff renders want and got as indented trees, walking both in step.
// Lines where the two trees first disagree are marked with "!".
func treeDiff(want, got model.Node) (wantLines, gotLines []string) {
	if want == nil {
		wantLines = []string{"! <none>"}
	}
	if got == nil {
		gotLines = []string{"! <none>"}
	}

	var walk func(w, g model.Node, depth int)
	walk = func(w, g model.Node, depth int) {
		prefix := "  "
		if differsAt(w, g) {
			prefix = "! "
		}
		pad := strings.Repeat("  ", depth)
		if w != nil {
			wantLines = append(wantLines, prefix+pad+nodeLabel(w))
		}
		if g != nil {
			gotLines = append(gotLines, prefix+pad+nodeLabel(g))
		}

		wc, gc := children(w), children(g)
		for i := range max(len(wc), len(gc)) {
			walk(at(wc, i), at(gc, i), depth+1)
		}
	}
	walk(want, got, 0)
	return wantLines, gotLines
}

// differsAt reports whether w and g differ in the node itself rather than
// only below it.
func differsAt(w, g model.Node) bool {
	if w == nil || g == nil {
		return w != nil || g != nil
	}
	if !model.SameKind(w, g) || w.ID() != g.ID() {
		return true
	}
	if model.Equal(w, g) {
		return false
	}
	wc, gc := children(w), children(g)
	if len(wc) != len(gc) {
		return true
	}
	for i := range wc {
		if !model.Equal(wc[i], gc[i]) {
			return false
		}
	}
	return true
}

func children(n model.Node) []model.Node {
	if n == nil {
		return nil
	}
	var out []model.Node
	n.ForEach(func(c model.Node) { out = append(out, c) })
	return out
}

func at(nodes []model.Node, i int) model.Node {
	if i < len(nodes) {
		return nodes[i]
	}
	return nil
}

func indent(lines []string, prefix string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = prefix + l
	}
	return out
}

// stepReport renders a step's activity and expectations, indented under
// its title.
func stepReport(sr *engine.StepResult) []string {
	head := stepTitle(sr)
	if !sr.Passed && sr.Error != nil && len(sr.ExpectResults) == 0 {
		head += ": " + sr.Error.Error()
	}
	lines := []string{head}
	lines = append(lines, indent(activity(sr), "  ")...)
	for _, key := range sortedKeys(sr.ExpectResults) {
		lines = append(lines, indent(expectLines(sr.ExpectResults[key]), "  ")...)
	}
	return lines
}
