package pkey

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"keybox/blob"
	"keybox/digest"
)

// RSA implements Key for RSA keys. Unlike ECDSA this family supports the
// encrypt/decrypt entry points (RSAES-OAEP with SHA-256); signing uses
// RSASSA-PKCS1-v1_5 over the extracted digest.
type RSA struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
}

var _ Key = (*RSA)(nil)

// RSAFromPrivate wraps decoded private key material, running the standard
// library's primality and CRT consistency checks before a handle is retained.
func RSAFromPrivate(parsed crypto.PrivateKey) (*RSA, error) {
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, newError(KindDecodePrivateKey, "not an RSA private key: %T", parsed)
	}
	if err := key.Validate(); err != nil {
		return nil, newError(KindKeyCheck, "%v", err)
	}
	return &RSA{priv: key, pub: &key.PublicKey}, nil
}

// RSAFromPublic wraps decoded public key material (certificate context).
func RSAFromPublic(parsed crypto.PublicKey) (*RSA, error) {
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, newError(KindDecodeCertificate, "not an RSA public key: %T", parsed)
	}
	if key.N == nil || key.N.Sign() <= 0 || key.E < 2 {
		return nil, newError(KindKeyCheck, "malformed RSA public key")
	}
	return &RSA{pub: key}, nil
}

func hashForAlg(alg digest.Alg) (crypto.Hash, error) {
	switch alg {
	case digest.SHA1:
		return crypto.SHA1, nil
	case digest.SHA224:
		return crypto.SHA224, nil
	case digest.SHA256:
		return crypto.SHA256, nil
	case digest.SHA384:
		return crypto.SHA384, nil
	case digest.SHA512:
		return crypto.SHA512, nil
	default:
		return 0, newError(KindSign, "no hash mapping for %s", alg)
	}
}

func (r *RSA) Sign(st *digest.State, sig *blob.Blob) error {
	defer st.Reset()

	if r.priv == nil {
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

	hash, err := hashForAlg(st.Alg())
	if err != nil {
		return err
	}

	der, err := rsa.SignPKCS1v15(rand.Reader, r.priv, hash, digestOut[:length])
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

func (r *RSA) Verify(st *digest.State, sig *blob.Blob) error {
	defer st.Reset()

	if r.pub == nil {
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

	hash, err := hashForAlg(st.Alg())
	if err != nil {
		return err
	}

	if rsa.VerifyPKCS1v15(r.pub, hash, digestOut[:length], sig.Bytes()) != nil {
		return newError(KindVerifySignature, "")
	}
	return nil
}

func (r *RSA) Encrypt(in, out *blob.Blob) error {
	if r.pub == nil {
		return newError(KindNullKey, "encrypt requires a public key")
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, r.pub, in.Bytes(), nil)
	if err != nil {
		return fmt.Errorf("rsa encrypt: %w", err)
	}
	if len(ciphertext) > out.Capacity() {
		return newError(KindSizeMismatch, "ciphertext needs %d bytes, buffer holds %d", len(ciphertext), out.Capacity())
	}
	copy(out.Data, ciphertext)
	out.Size = len(ciphertext)
	return nil
}

func (r *RSA) Decrypt(in, out *blob.Blob) error {
	if r.priv == nil {
		return newError(KindNullKey, "decrypt requires a private key")
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, r.priv, in.Bytes(), nil)
	if err != nil {
		return fmt.Errorf("rsa decrypt: %w", err)
	}
	if len(plaintext) > out.Capacity() {
		return newError(KindSizeMismatch, "plaintext needs %d bytes, buffer holds %d", len(plaintext), out.Capacity())
	}
	copy(out.Data, plaintext)
	out.Size = len(plaintext)
	return nil
}

func (r *RSA) Match(priv Key) error {
	if _, ok := priv.(*RSA); !ok {
		return newError(KindKeyCheck, "key family mismatch: %T", priv)
	}
	return matchChallenge(r, priv)
}

// SignatureSize for RSA is the modulus size; PKCS#1 v1.5 signatures are
// always exactly that long.
func (r *RSA) SignatureSize() (int, error) {
	if r.priv == nil {
		return 0, newError(KindNullKey, "signature size requires a private key")
	}
	return r.priv.Size(), nil
}

func (r *RSA) Public() crypto.PublicKey {
	if r.pub == nil {
		return nil
	}
	return r.pub
}

// Free drops the key handles. Calling Free on an already-freed key is a
// defined no-op.
func (r *RSA) Free() {
	r.priv = nil
	r.pub = nil
}
