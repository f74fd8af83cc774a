package reconcile

// Ledger records which packages this run freshly installed, in order.
// Rollback consumes it to remove exactly those packages and nothing that
// was already present before the run started. It lives only for the
// duration of one process.
type Ledger struct {
	installed []string
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// RecordInstall appends a freshly installed package. Callers must only
// record packages whose pre-run probe said "not installed".
func (l *Ledger) RecordInstall(name string) {
	l.installed = append(l.installed, name)
}

// FreshInstalls returns the recorded packages in install order.
func (l *Ledger) FreshInstalls() []string {
	out := make([]string, len(l.installed))
	copy(out, l.installed)
	return out
}

func (l *Ledger) Len() int {
	return len(l.installed)
}
