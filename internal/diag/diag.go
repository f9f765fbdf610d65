// Package diag collects spec-build-time warnings — conditions that do not
// prevent a ParserSpec from being built but that a schema author likely
// wants to know about, such as a name collision silently resolved by
// last-write-wins. These are distinct from the hard errors in clierrors:
// nothing here ever aborts a build.
package diag

import "fmt"

// Warning is one spec-build-time advisory.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}

	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// Collector accumulates Warnings during a single Build call.
type Collector struct {
	warnings []Warning
}

// Warnf records a formatted warning against path.
func (c *Collector) Warnf(path, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Warnings returns every warning recorded so far, in emission order.
func (c *Collector) Warnings() []Warning {
	return c.warnings
}

// HasWarnings reports whether any warning was recorded.
func (c *Collector) HasWarnings() bool {
	return len(c.warnings) > 0
}
