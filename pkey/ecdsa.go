package pkey

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"

	"keybox/blob"
	"keybox/digest"
)

// ECDSA implements Key for elliptic-curve keys. Signatures are ASN.1 DER and
// therefore variable-length.
type ECDSA struct {
	priv *ecdsa.PrivateKey
	pub  *ecdsa.PublicKey
}

var _ Key = (*ECDSA)(nil)

// ECDSAFromPrivate wraps decoded private key material. The material must
// already be parsed into its native representation; anything that is not an
// EC private key reports KindDecodePrivateKey. The key must pass the curve
// validity check before a handle is retained.
func ECDSAFromPrivate(parsed crypto.PrivateKey) (*ECDSA, error) {
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, newError(KindDecodePrivateKey, "not an EC private key: %T", parsed)
	}
	if err := checkECDSAPrivate(key); err != nil {
		return nil, err
	}
	return &ECDSA{priv: key, pub: &key.PublicKey}, nil
}

// ECDSAFromPublic wraps decoded public key material (certificate context);
// anything that is not an EC public key reports KindDecodeCertificate.
func ECDSAFromPublic(parsed crypto.PublicKey) (*ECDSA, error) {
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, newError(KindDecodeCertificate, "not an EC public key: %T", parsed)
	}
	if err := checkECDSAPublic(key); err != nil {
		return nil, err
	}
	return &ECDSA{pub: key}, nil
}

// checkECDSAPublic confirms the point is structurally well-formed and lies on
// the curve.
func checkECDSAPublic(key *ecdsa.PublicKey) error {
	if key.Curve == nil || key.X == nil || key.Y == nil {
		return newError(KindKeyCheck, "incomplete EC public key")
	}
	if key.X.Sign() == 0 && key.Y.Sign() == 0 {
		return newError(KindKeyCheck, "EC public key is the point at infinity")
	}
	if !key.Curve.IsOnCurve(key.X, key.Y) {
		return newError(KindKeyCheck, "EC public key is not on its curve")
	}
	return nil
}

// checkECDSAPrivate additionally confirms the scalar is in [1, N-1] and
// generates the claimed public point.
func checkECDSAPrivate(key *ecdsa.PrivateKey) error {
	if err := checkECDSAPublic(&key.PublicKey); err != nil {
		return err
	}
	if key.D == nil || key.D.Sign() <= 0 {
		return newError(KindKeyCheck, "EC private scalar missing or non-positive")
	}
	n := key.Curve.Params().N
	if key.D.Cmp(n) >= 0 {
		return newError(KindKeyCheck, "EC private scalar out of range")
	}
	x, y := key.Curve.ScalarBaseMult(key.D.Bytes())
	if x.Cmp(key.X) != 0 || y.Cmp(key.Y) != 0 {
		return newError(KindKeyCheck, "EC private scalar does not generate public point")
	}
	return nil
}

func (e *ECDSA) Sign(st *digest.State, sig *blob.Blob) error {
	defer st.Reset()

	if e.priv == nil {
		return newError(KindNullKey, "sign requires a private key")
	}

	length, err := st.Alg().Size()
	if err != nil {
		return err
	}
	if int(length) > digest.MaxLength {
		return newError(KindSizeMismatch, "digest length %d exceeds bound %d", length, digest.MaxLength)
	}

	var digestOut [digest.MaxLength]byte
	if err := st.Extract(digestOut[:length]); err != nil {
		return err
	}

	der, err := ecdsa.SignASN1(rand.Reader, e.priv, digestOut[:length])
	if err != nil {
		return newError(KindSign, "%v", err)
	}
	if len(der) > sig.Capacity() {
		return newError(KindSizeMismatch, "signature needs %d bytes, buffer holds %d", len(der), sig.Capacity())
	}
	copy(sig.Data, der)
	sig.Size = len(der)
	return nil
}

func (e *ECDSA) Verify(st *digest.State, sig *blob.Blob) error {
	defer st.Reset()

	if e.pub == nil {
		return newError(KindNullKey, "verify requires a public key")
	}

	length, err := st.Alg().Size()
	if err != nil {
		return err
	}
	if int(length) > digest.MaxLength {
		return newError(KindSizeMismatch, "digest length %d exceeds bound %d", length, digest.MaxLength)
	}

	var digestOut [digest.MaxLength]byte
	if err := st.Extract(digestOut[:length]); err != nil {
		return err
	}

	// A malformed signature and a cryptographically invalid one must be
	// indistinguishable here.
	if !ecdsa.VerifyASN1(e.pub, digestOut[:length], sig.Bytes()) {
		return newError(KindVerifySignature, "")
	}
	return nil
}

func (e *ECDSA) Encrypt(in, out *blob.Blob) error {
	return newError(KindUnsupported, "ECDSA keys cannot encrypt")
}

func (e *ECDSA) Decrypt(in, out *blob.Blob) error {
	return newError(KindUnsupported, "ECDSA keys cannot decrypt")
}

func (e *ECDSA) Match(priv Key) error {
	if _, ok := priv.(*ECDSA); !ok {
		return newError(KindKeyCheck, "key family mismatch: %T", priv)
	}
	return matchChallenge(e, priv)
}

// SignatureSize is the DER worst case for the curve: two INTEGERs of up to
// one byte more than the field size, inside a SEQUENCE. Matches OpenSSL's
// ECDSA_size (72 for P-256, 141 for P-521).
func (e *ECDSA) SignatureSize() (int, error) {
	if e.priv == nil {
		return 0, newError(KindNullKey, "signature size requires a private key")
	}
	payload := (e.priv.Curve.Params().BitSize+7)/8 + 1
	content := 2 * (2 + payload)
	if content < 128 {
		return 2 + content, nil
	}
	return 3 + content, nil
}

func (e *ECDSA) Public() crypto.PublicKey {
	if e.pub == nil {
		return nil
	}
	return e.pub
}

// Free drops the key handles. Calling Free on an already-freed key is a
// defined no-op.
func (e *ECDSA) Free() {
	e.priv = nil
	e.pub = nil
}
