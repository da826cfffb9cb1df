package lnwallet

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func txSpending(index uint32) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: index}})
	return tx
}

// TestSortHTLCsOrdersByOutputIndex checks that SortHTLCs produces the same
// canonical ordering regardless of the input slice's original order, and
// leaves the original slice untouched.
func TestSortHTLCsOrdersByOutputIndex(t *testing.T) {
	unsorted := []*wire.MsgTx{
		txSpending(3),
		txSpending(1),
		txSpending(2),
		txSpending(0),
	}
	original := append([]*wire.MsgTx{}, unsorted...)

	sorted := SortHTLCs(unsorted)
	require.Len(t, sorted, 4)
	for i, tx := range sorted {
		require.Equal(t, uint32(i), tx.TxIn[0].PreviousOutPoint.Index)
	}

	// The input slice must not have been reordered in place.
	require.Equal(t, original, unsorted)

	// Sorting a differently-ordered equivalent slice
	// must produce the same result (determinism).
	again := SortHTLCs([]*wire.MsgTx{
		txSpending(2), txSpending(0), txSpending(3), txSpending(1),
	})
	for i, tx := range again {
		require.Equal(t, uint32(i), tx.TxIn[0].PreviousOutPoint.Index)
	}
}
