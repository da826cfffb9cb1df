package input

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// writeTxOut serializes the output a SignDescriptor signs against: the
// amount and pkScript of the commitment (or second-level) output being
// spent, needed to recompute the witness sighash on the far side of a
// WriteSignDescriptor/ReadSignDescriptor round trip.
func writeTxOut(w io.Writer, txo *wire.TxOut) error {
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], uint64(txo.Value))
	if _, err := w.Write(scratch[:]); err != nil {
		return err
	}

	return wire.WriteVarBytes(w, 0, txo.PkScript)
}

// readTxOut is the dual of writeTxOut.
func readTxOut(r io.Reader, txo *wire.TxOut) error {
	var scratch [8]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return err
	}
	value := int64(binary.BigEndian.Uint64(scratch[:]))

	pkScript, err := wire.ReadVarBytes(r, 0, 80, "pkScript")
	if err != nil {
		return err
	}

	*txo = wire.TxOut{Value: value, PkScript: pkScript}
	return nil
}
