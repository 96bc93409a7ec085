// Package rules turns a parsed crash report into an ordered list of
// diagnostics.
//
// Evaluation has two phases. Every rule of the table reads facts from the
// document and proposes candidates; nothing is removed while rules run.
// The candidates are then placed in one pass: front candidates are
// prepended, the rest appended in rule order, repeated diagnostics dropped, and
// every code superseded by a more specific code that fired is removed.
package rules

import (
	"time"

	"hserr-agent/src/analysis"
	"hserr-agent/src/document"
	"hserr-agent/src/facts"
	"hserr-agent/src/options"
)

// Placement decides where a candidate lands in the list.
type Placement int

const (
	Append Placement = iota
	Front
)

// Candidate is a diagnostic proposed by a rule.
type Candidate struct {
	Code      analysis.Code
	Args      []any
	Placement Placement
}

// Rule is one named check of the table.
type Rule struct {
	Name string
	Eval func(c *Context) []Candidate
}

// Context is what a rule reads. Facts used by many rules are derived once
// per evaluation.
type Context struct {
	Doc *document.Document
	// Now is the evaluation time used by the age rules.
	Now time.Time

	Major      int
	MajorKnown bool
	OS         string
	Collectors []string
	// Truncated logs may have lost the sections an absence is read from.
	Truncated bool
}

func newContext(doc *document.Document, now time.Time) *Context {
	major, ok := facts.JavaMajor(doc).Get()
	return &Context{
		Doc:        doc,
		Now:        now,
		Major:      major,
		MajorKnown: ok,
		OS:         facts.OsFamily(doc),
		Collectors: facts.Collectors(doc),
		Truncated:  facts.IsTruncated(doc),
	}
}

func emit(code analysis.Code, args ...any) []Candidate {
	return []Candidate{{Code: code, Args: args}}
}

func front(code analysis.Code, args ...any) []Candidate {
	return []Candidate{{Code: code, Args: args, Placement: Front}}
}

type config struct {
	analyzer options.Analyzer
}

// Option configures Evaluate.
type Option func(*config)

// WithOptionsAnalyzer replaces the runtime-options analyzer. A nil
// analyzer disables the options review.
func WithOptionsAnalyzer(a options.Analyzer) Option {
	return func(c *config) { c.analyzer = a }
}

// Evaluate runs every rule against doc. now is only read by the rules that
// measure age against the crash or build time, so two calls with the same
// document and now return identical lists.
func Evaluate(doc *document.Document, now time.Time, opts ...Option) analysis.List {
	cfg := config{analyzer: options.NewBasic()}
	for _, o := range opts {
		o(&cfg)
	}
	c := newContext(doc, now)

	var candidates []Candidate
	for _, r := range table {
		candidates = append(candidates, r.Eval(c)...)
	}
	if cfg.analyzer != nil {
		for _, d := range cfg.analyzer.Analyze(bundle(c)) {
			candidates = append(candidates, Candidate{Code: d.Code, Args: []any{prerendered(d)}})
		}
	}
	return resolve(candidates)
}

// prerendered carries a diagnostic rendered by an external analyzer.
type prerendered analysis.Diagnostic

// bundle collects the facts handed to the options analyzer.
func bundle(c *Context) options.Bundle {
	return options.Bundle{
		Options:     facts.Options(c.Doc),
		JavaMajor:   facts.JavaMajor(c.Doc),
		JavaUpdate:  facts.JavaUpdate(c.Doc),
		Collectors:  c.Collectors,
		Container:   facts.IsContainer(c.Doc),
		OS:          c.OS,
		Bits:        facts.Bits(c.Doc),
		TotalMemory: facts.AvailableMemory(c.Doc),
	}
}

// resolve places the candidates and applies the supersede table.
func resolve(candidates []Candidate) analysis.List {
	var list analysis.List
	seen := make(map[analysis.Diagnostic]bool)
	for _, cand := range candidates {
		d := render(cand)
		if seen[d] {
			continue
		}
		seen[d] = true
		if cand.Placement == Front {
			list.Prepend(d)
		} else {
			list.Append(d)
		}
	}
	for _, code := range list.Codes() {
		for _, weaker := range supersedes[code] {
			list.Remove(weaker)
		}
	}
	return list
}

func render(c Candidate) analysis.Diagnostic {
	if len(c.Args) == 1 {
		if p, ok := c.Args[0].(prerendered); ok {
			return analysis.Diagnostic(p)
		}
	}
	return analysis.New(c.Code, c.Args...)
}

// Names returns the rule names in evaluation order.
func Names() []string {
	out := make([]string, len(table))
	for i, r := range table {
		out[i] = r.Name
	}
	return out
}
