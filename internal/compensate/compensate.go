// Package compensate runs best-effort cleanup after a partially completed
// side effect. Compensation failures are logged and never propagate: the
// primary operation's outcome is what the caller cares about.
package compensate

import "log"

// Run executes each compensation in order, logging any failure under label.
func Run(label string, fns ...func() error) {
	for _, fn := range fns {
		if err := fn(); err != nil {
			log.Printf("compensate %s: %v", label, err)
		}
	}
}
