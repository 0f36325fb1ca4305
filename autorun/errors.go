package autorun

import "fmt"

// SelectorAttributeError is returned by a selector or comparator when the
// state it was given does not yet carry the attribute it expects — the Go
// analogue of Python's AttributeError escaping a selector lambda. check
// treats this one specifically as "state not ready yet, defer"; any other
// error is reported through Options.OnError instead of being swallowed the
// same way.
type SelectorAttributeError struct {
	Attr string
}

func (e *SelectorAttributeError) Error() string {
	return fmt.Sprintf("autorun: selector attribute %q not present on state", e.Attr)
}
