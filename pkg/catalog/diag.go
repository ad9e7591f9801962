package catalog

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one advisory message produced while parsing. Row is
// the 1-based source row (0 when not row-scoped), Field names the
// signal or column involved (empty when not field-scoped).
//
// Diagnostics never abort the row or field that produced them; the
// caller decides whether to log, fail, or ignore.
type Diagnostic struct {
	Severity Severity
	Row      int
	Field    string
	Message  string
}

func (d Diagnostic) String() string {
	switch {
	case d.Row > 0 && d.Field != "":
		return fmt.Sprintf("%s: row %d, field %q: %s", d.Severity, d.Row, d.Field, d.Message)
	case d.Row > 0:
		return fmt.Sprintf("%s: row %d: %s", d.Severity, d.Row, d.Message)
	default:
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
}

// Collector accumulates diagnostics during a parse pass.
// The zero value is ready to use.
type Collector struct {
	diags []Diagnostic
}

// Infof records an informational diagnostic.
func (c *Collector) Infof(row int, field, format string, args ...interface{}) {
	c.add(SeverityInfo, row, field, format, args...)
}

// Warnf records a warning diagnostic.
func (c *Collector) Warnf(row int, field, format string, args ...interface{}) {
	c.add(SeverityWarning, row, field, format, args...)
}

// Errorf records an error diagnostic.
func (c *Collector) Errorf(row int, field, format string, args ...interface{}) {
	c.add(SeverityError, row, field, format, args...)
}

func (c *Collector) add(sev Severity, row int, field, format string, args ...interface{}) {
	c.diags = append(c.diags, Diagnostic{
		Severity: sev,
		Row:      row,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Extend appends previously collected diagnostics.
func (c *Collector) Extend(diags []Diagnostic) {
	c.diags = append(c.diags, diags...)
}

// All returns the collected diagnostics in emission order.
func (c *Collector) All() []Diagnostic {
	return c.diags
}
