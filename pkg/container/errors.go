package container

import "fmt"

// CorruptContainerError names the offending record index per spec.md §4.2's
// read contract: "on any shortfall, fails with CorruptContainer and names
// the offending record index."
type CorruptContainerError struct {
	Reason      string
	RecordIndex int // -1 when the failure precedes any per-record read
}

func (e *CorruptContainerError) Error() string {
	if e.RecordIndex < 0 {
		return fmt.Sprintf("corrupt container: %s", e.Reason)
	}
	return fmt.Sprintf("corrupt container: %s (record %d)", e.Reason, e.RecordIndex)
}
