// Package monitoring carries the tracker's diagnostic output: rejected fixes,
// discarded lookups, provider requests and storage failures.
package monitoring

import "log"

// Logf receives every diagnostic line. Hosts that embed the tracker point it
// at their own logger; the default writes through the standard log package.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger redirects diagnostics to f. A nil f discards them.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
