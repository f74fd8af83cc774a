package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerRecordsInOrder(t *testing.T) {
	ledger := NewLedger()
	assert.Zero(t, ledger.Len())

	ledger.RecordInstall("sway")
	ledger.RecordInstall("seatd")

	assert.Equal(t, []string{"sway", "seatd"}, ledger.FreshInstalls())
	assert.Equal(t, 2, ledger.Len())
}

func TestLedgerFreshInstallsIsACopy(t *testing.T) {
	ledger := NewLedger()
	ledger.RecordInstall("sway")

	got := ledger.FreshInstalls()
	got[0] = "mutated"

	assert.Equal(t, []string{"sway"}, ledger.FreshInstalls())
}
