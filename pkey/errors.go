package pkey

import (
	"errors"
	"fmt"
)

// Kind enumerates every failure this package can raise. Operations fail fast
// on the first error and never retry; callers must treat KindVerifySignature
// as "do not trust this data".
type Kind int

const (
	// KindNullKey: a key handle was missing where one is required.
	KindNullKey Kind = iota + 1
	// KindDecodePrivateKey: decoded private key material is not usable by
	// this family.
	KindDecodePrivateKey
	// KindDecodeCertificate: decoded public key material (certificate
	// context) is not usable by this family.
	KindDecodeCertificate
	// KindKeyCheck: the key failed its domain validity check.
	KindKeyCheck
	// KindSign: the signing primitive reported failure.
	KindSign
	// KindVerifySignature: the signature was rejected. Malformed and
	// cryptographically invalid signatures are deliberately
	// indistinguishable.
	KindVerifySignature
	// KindSizeMismatch: a produced or declared size violated a buffer bound.
	KindSizeMismatch
	// KindUnsupported: the operation is not defined for this key family.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNullKey:
		return "NullKey"
	case KindDecodePrivateKey:
		return "DecodePrivateKey"
	case KindDecodeCertificate:
		return "DecodeCertificate"
	case KindKeyCheck:
		return "KeyCheck"
	case KindSign:
		return "Sign"
	case KindVerifySignature:
		return "VerifySignature"
	case KindSizeMismatch:
		return "SizeMismatch"
	case KindUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Error is a typed failure from the key core.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("pkey: %s", e.Kind)
	}
	return fmt.Sprintf("pkey: %s: %s", e.Kind, e.msg)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from err, or 0 if err did not originate
// here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
