package watcher

type cycleMetrics struct {
	totalSelected int
	expired       int
	notified      int
	suppressed    int
	skippedMonths int
	errored       int
}

func (m *cycleMetrics) fields(extra ...any) []any {
	args := []any{"selected", m.totalSelected}
	if m.expired != 0 {
		args = append(args, "expired", m.expired)
	}
	if m.notified != 0 {
		args = append(args, "notified", m.notified)
	}
	if m.suppressed != 0 {
		args = append(args, "suppressed", m.suppressed)
	}
	if m.skippedMonths != 0 {
		args = append(args, "skipped_months", m.skippedMonths)
	}
	if m.errored != 0 {
		args = append(args, "errored", m.errored)
	}
	return append(args, extra...)
}
