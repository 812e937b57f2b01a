// Package pkey is a pluggable asymmetric-key abstraction: a uniform set of
// operations (sign, verify, encrypt, decrypt, match, free) that lets callers
// operate on a key pair without knowing its algorithm family. The
// elliptic-curve and RSA arithmetic itself is delegated to the standard
// library and treated as an opaque, trusted primitive; this package owns the
// contract discipline around it — buffer sizing, digest-state hygiene, key
// validity checks, and uniform error semantics.
package pkey

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"

	"keybox/blob"
	"keybox/digest"
	"keybox/random"
)

// Key is one asymmetric key of a single family. Depending on how it was
// constructed it may hold a private half, a public half, or both. A Key is
// immutable after construction; concurrent Sign/Verify calls against the same
// Key are safe provided each call supplies its own digest state and signature
// buffer. Free must not race with in-flight operations.
type Key interface {
	// Sign extracts the digest from st and signs it with the private half
	// into sig. On success sig.Size reflects the true signature length, never
	// the buffer's original capacity. st is reset on every exit path.
	Sign(st *digest.State, sig *blob.Blob) error

	// Verify checks sig (its declared size; signatures are variable-length,
	// self-delimiting structures) against the digest in st using the public
	// half. Any rejection reports KindVerifySignature. st is reset on every
	// exit path.
	Verify(st *digest.State, sig *blob.Blob) error

	// Encrypt and Decrypt are defined only for families that support them;
	// others report KindUnsupported.
	Encrypt(in, out *blob.Blob) error
	Decrypt(in, out *blob.Blob) error

	// Match proves that the receiver's public half and priv's private half
	// belong together, by signing and verifying a random challenge. Sign or
	// verify failures propagate as-is.
	Match(priv Key) error

	// SignatureSize is the upper bound in bytes a signature from this key's
	// private half can occupy. Callers size their signature buffers with it
	// before calling Sign.
	SignatureSize() (int, error)

	// Public exposes the public half for export, or nil if absent.
	Public() crypto.PublicKey

	// Free releases the key handles. Freeing twice is a defined no-op.
	Free()
}

// FromPrivate routes decoded private key material to its family
// implementation.
func FromPrivate(parsed crypto.PrivateKey) (Key, error) {
	switch parsed.(type) {
	case *ecdsa.PrivateKey:
		return ECDSAFromPrivate(parsed)
	case *rsa.PrivateKey:
		return RSAFromPrivate(parsed)
	default:
		return nil, newError(KindDecodePrivateKey, "unsupported key type %T", parsed)
	}
}

// FromPublic routes decoded public key material (certificate context) to its
// family implementation.
func FromPublic(parsed crypto.PublicKey) (Key, error) {
	switch parsed.(type) {
	case *ecdsa.PublicKey:
		return ECDSAFromPublic(parsed)
	case *rsa.PublicKey:
		return RSAFromPublic(parsed)
	default:
		return nil, newError(KindDecodeCertificate, "unsupported key type %T", parsed)
	}
}

// challengeSize is the length of the random input to the match self-test.
const challengeSize = 16

// matchChallenge runs the sign-then-verify round trip shared by every
// family's Match: a short random challenge is hashed by two independent
// digest states, signed with priv, and verified with pub. The hash here is
// fixed (SHA-1) rather than mirroring any production algorithm; the test
// checks structural correspondence of the halves, not digest compatibility.
// All scratch state is scoped to this call.
func matchChallenge(pub, priv Key) error {
	challenge := make([]byte, challengeSize)
	if err := random.Data(challenge); err != nil {
		return err
	}

	stIn, err := digest.New(digest.SHA1)
	if err != nil {
		return err
	}
	stOut, err := digest.New(digest.SHA1)
	if err != nil {
		return err
	}
	defer stIn.Reset()
	defer stOut.Reset()

	if err := stIn.Update(challenge); err != nil {
		return err
	}
	if err := stOut.Update(challenge); err != nil {
		return err
	}

	size, err := priv.SignatureSize()
	if err != nil {
		return err
	}
	sig := blob.New(size)

	if err := priv.Sign(stIn, sig); err != nil {
		return err
	}
	return pub.Verify(stOut, sig)
}
