package lnwallet

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/wire"
)

// SortHTLCs orders a commitment's second-level HTLC transactions into the
// canonical sequence both parties must independently arrive at before
// signing: all transactions concatenated together, then sorted ascending by
// the index of the commitment output they spend (CommitTx.TxIn[0].PreviousOutPoint.Index).
// BIP 69's output/input tie-breaking rules don't apply here since every
// entry spends a distinct output index of the same commitment transaction,
// so the outpoint index alone totally orders them.
func SortHTLCs(txns []*wire.MsgTx) []*wire.MsgTx {
	sorted := append([]*wire.MsgTx{}, txns...)

	sort.Slice(sorted, func(i, j int) bool {
		a := sorted[i].TxIn[0].PreviousOutPoint
		b := sorted[j].TxIn[0].PreviousOutPoint

		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return bytes.Compare(a.Hash[:], b.Hash[:]) < 0
	})

	return sorted
}
