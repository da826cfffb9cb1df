package lnwallet

import (
	"bytes"
	"errors"

	"github.com/lnchain/chancore/lnwire"
)

// ErrMalformedDERSignature is returned when a signer-produced signature
// doesn't parse as a well-formed DER-encoded ECDSA signature.
var ErrMalformedDERSignature = errors.New("malformed DER signature")

// toWireSig repacks a DER-encoded ECDSA signature (as produced by
// input.Signer.SignOutputRaw) into the fixed 64-byte r||s compact form the
// wire messages carry.
func toWireSig(der []byte) (lnwire.Sig, error) {
	var sig lnwire.Sig

	// 0x30 <total-len> 0x02 <rlen> <r> 0x02 <slen> <s>
	if len(der) < 8 || der[0] != 0x30 || der[2] != 0x02 {
		return sig, ErrMalformedDERSignature
	}

	rLen := int(der[3])
	rStart := 4
	if rStart+rLen+2 > len(der) {
		return sig, ErrMalformedDERSignature
	}
	rBytes := der[rStart : rStart+rLen]

	sLenPos := rStart + rLen + 1
	if der[sLenPos-1] != 0x02 || sLenPos >= len(der) {
		return sig, ErrMalformedDERSignature
	}
	sLen := int(der[sLenPos])
	sStart := sLenPos + 1
	if sStart+sLen > len(der) {
		return sig, ErrMalformedDERSignature
	}
	sBytes := der[sStart : sStart+sLen]

	// DER left-pads values whose high bit is set with a 0x00 byte so they
	// aren't misread as negative; strip that before repacking into the
	// fixed-width field.
	rBytes = bytes.TrimLeft(rBytes, "\x00")
	sBytes = bytes.TrimLeft(sBytes, "\x00")
	if len(rBytes) > 32 || len(sBytes) > 32 {
		return sig, ErrMalformedDERSignature
	}

	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)

	return sig, nil
}

// toDERSignature expands a fixed 64-byte r||s compact signature back into
// its DER encoding, the form ecdsa.ParseDERSignature expects.
func toDERSignature(sig lnwire.Sig) []byte {
	r := trimLeadingZeros(sig[0:32])
	s := trimLeadingZeros(sig[32:64])

	r = asn1Int(r)
	s = asn1Int(s)

	body := make([]byte, 0, len(r)+len(s))
	body = append(body, r...)
	body = append(body, s...)

	der := make([]byte, 0, len(body)+2)
	der = append(der, 0x30, byte(len(body)))
	der = append(der, body...)

	return der
}

// trimLeadingZeros strips leading zero bytes, leaving a single zero byte if
// the value is zero.
func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return b[i:]
}

// asn1Int encodes v as a DER INTEGER, re-padding with a leading zero byte
// if its high bit is set (to keep it from being read as negative).
func asn1Int(v []byte) []byte {
	if len(v) > 0 && v[0]&0x80 != 0 {
		v = append([]byte{0x00}, v...)
	}
	out := make([]byte, 0, len(v)+2)
	out = append(out, 0x02, byte(len(v)))
	out = append(out, v...)
	return out
}
