package analysis

import "fmt"

// Diagnostic is one conclusion with its rendered message.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// New renders code with args. It panics when code is not in the catalog.
func New(code Code, args ...any) Diagnostic {
	e, ok := catalog[code]
	if !ok {
		panic(fmt.Sprintf("analysis: unknown code %s", code))
	}
	return Diagnostic{Code: code, Severity: e.Severity, Message: fmt.Sprintf(e.Template, args...)}
}

// List is an ordered diagnostic list. Order is the report order.
type List []Diagnostic

// Append adds d at the end.
func (l *List) Append(d Diagnostic) {
	*l = append(*l, d)
}

// Prepend inserts d at the front.
func (l *List) Prepend(d Diagnostic) {
	*l = append(List{d}, *l...)
}

// Remove drops every diagnostic with code and reports whether any was present.
func (l *List) Remove(code Code) bool {
	out := (*l)[:0]
	removed := false
	for _, d := range *l {
		if d.Code == code {
			removed = true
			continue
		}
		out = append(out, d)
	}
	*l = out
	return removed
}

// Has reports whether code is present.
func (l List) Has(code Code) bool {
	for _, d := range l {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Get returns the first diagnostic with code.
func (l List) Get(code Code) (Diagnostic, bool) {
	for _, d := range l {
		if d.Code == code {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// Codes returns the codes in order.
func (l List) Codes() []Code {
	out := make([]Code, len(l))
	for i, d := range l {
		out[i] = d.Code
	}
	return out
}

// Count returns the number of diagnostics per severity.
func (l List) Count(s Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == s {
			n++
		}
	}
	return n
}
