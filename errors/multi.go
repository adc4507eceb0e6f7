package errors

import "strings"

// MultiError aggregates one error per failed plugin so the host sees the
// whole picture instead of just the first failure. Messages are joined with
// "; ", matching the aggregation policy of spawn/init/accept_upstream.
type MultiError struct {
	Messages []string
}

func (m *MultiError) Error() string {
	return strings.Join(m.Messages, "; ")
}

// Add appends a failure message. label identifies which plugin failed.
func (m *MultiError) Add(label string, err error) {
	m.Messages = append(m.Messages, label+": "+err.Error())
}

// Empty reports whether no failures were collected.
func (m *MultiError) Empty() bool {
	return len(m.Messages) == 0
}

// OrNil returns m as an error if it collected any failures, else nil.
func (m *MultiError) OrNil() error {
	if m.Empty() {
		return nil
	}
	return m
}
