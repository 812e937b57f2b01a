// Package key binds key material to its KMS-facing metadata. Symmetric keys
// carry AES-GCM material directly; asymmetric keys hold their material behind
// the generic pkey interface, so this package never touches family-specific
// signing or encryption logic.
package key

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"keybox/atomicfile"
	"keybox/blob"
	"keybox/digest"
	"keybox/pkey"
)

type metadata struct {
	// Immutable
	Id                   string
	CreationDate         float64
	KeySpec              string
	Origin               string
	Usage                Usage
	EncryptionAlgorithms []EncryptionAlgorithm
	SigningAlgorithms    []SigningAlgorithm

	// Mutable
	Description  string
	Enabled      bool
	DeletionDate float64
	Tags         map[string]string
}

type Key struct {
	// If empty, no persistence
	persistPath string

	metadata metadata

	// Symmetric material.
	aes aesKey
	// Asymmetric material: the parsed native key (kept for persistence and
	// public-key export) and the generic interface bound over it.
	native crypto.PrivateKey
	pair   pkey.Key
}

func (k *Key) IsSymmetric() bool {
	return len(k.aes.backingKeys) > 0
}

func (k *Key) IsAsymmetric() bool {
	return k.pair != nil
}

// HasMaterial reports whether the key is usable, as opposed to an
// external-origin key still waiting for its import.
func (k *Key) HasMaterial() bool {
	return k.IsSymmetric() || k.IsAsymmetric()
}

func (k *Key) Id() string {
	return k.metadata.Id
}

func (k *Key) Enabled() bool {
	return k.metadata.Enabled
}

func (k *Key) KeySpec() string {
	return k.metadata.KeySpec
}

func (k *Key) KeyState() string {
	switch {
	case k.metadata.DeletionDate != 0:
		return "PendingDeletion"
	case !k.HasMaterial():
		return "PendingImport"
	case k.metadata.Enabled:
		return "Enabled"
	default:
		return "Disabled"
	}
}

func (k *Key) Origin() string {
	return k.metadata.Origin
}

func (k *Key) PendingDeletion() bool {
	return k.metadata.DeletionDate != 0
}

func (k *Key) DeletionDate() float64 {
	return k.metadata.DeletionDate
}

func (k *Key) Usage() Usage {
	return k.metadata.Usage
}

func (k *Key) CreationDate() float64 {
	return k.metadata.CreationDate
}

func (k *Key) Description() string {
	return k.metadata.Description
}

func (k *Key) Tags() map[string]string {
	return maps.Clone(k.metadata.Tags)
}

func (k *Key) EncryptionAlgorithms() []EncryptionAlgorithm {
	return slices.Clone(k.metadata.EncryptionAlgorithms)
}

func (k *Key) SigningAlgorithms() []SigningAlgorithm {
	return slices.Clone(k.metadata.SigningAlgorithms)
}

func (k *Key) SetEnabled(enabled bool) error {
	k.metadata.Enabled = enabled
	return k.persist()
}

func (k *Key) SetDescription(description string) error {
	k.metadata.Description = description
	return k.persist()
}

func (k *Key) SetTags(tags map[string]string) error {
	for tagKey, tagValue := range tags {
		k.metadata.Tags[tagKey] = tagValue
	}
	return k.persist()
}

func (k *Key) DeleteTags(tags []string) error {
	for _, tag := range tags {
		delete(k.metadata.Tags, tag)
	}
	return k.persist()
}

// ScheduleDeletion disables the key and records when its material may be
// destroyed.
func (k *Key) ScheduleDeletion(at time.Time) error {
	k.metadata.Enabled = false
	k.metadata.DeletionDate = float64(at.UnixMilli()) / 1000
	return k.persist()
}

// CancelDeletion clears the deletion date. The key stays disabled until it is
// explicitly re-enabled.
func (k *Key) CancelDeletion() error {
	k.metadata.DeletionDate = 0
	return k.persist()
}

// Release drops the asymmetric handles. Safe to call more than once.
func (k *Key) Release() {
	if k.pair != nil {
		k.pair.Free()
	}
}

type Options struct {
	PersistPath  string
	CreationDate time.Time
	Description  string
	Id           string
	Tags         map[string]string
	Usage        Usage
}

func (o Options) makeKey() *Key {
	return &Key{
		persistPath: o.PersistPath,
		metadata: metadata{
			CreationDate: float64(o.CreationDate.UnixMilli()) / 1000,
			Description:  o.Description,
			Id:           o.Id,
			Origin:       "AWS_KMS",
			Tags:         o.Tags,
			Usage:        o.Usage,

			Enabled: true,
		},
	}
}

// NewAES mints a SYMMETRIC_DEFAULT key.
func NewAES(options Options) (*Key, error) {
	k := options.makeKey()
	aes, err := newAesKey()
	if err != nil {
		return nil, err
	}
	k.aes = aes
	k.metadata.KeySpec = "SYMMETRIC_DEFAULT"
	k.metadata.EncryptionAlgorithms = []EncryptionAlgorithm{SymmetricDefault}

	if err := k.persist(); err != nil {
		return nil, err
	}
	return k, nil
}

// NewRSA mints an RSA key with the given modulus size.
func NewRSA(options Options, bits int) (*Key, error) {
	native, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}

	k := options.makeKey()
	if err := k.bindNative(native); err != nil {
		return nil, err
	}
	if err := k.persist(); err != nil {
		return nil, err
	}
	return k, nil
}

// NewECC mints an ECDSA key on the given curve.
func NewECC(options Options, curve elliptic.Curve) (*Key, error) {
	native, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, err
	}

	k := options.makeKey()
	if err := k.bindNative(native); err != nil {
		return nil, err
	}
	if err := k.persist(); err != nil {
		return nil, err
	}
	return k, nil
}

// NewPending mints an external-origin key with no material. It is unusable
// until ImportMaterial succeeds.
func NewPending(options Options, keySpec string) (*Key, error) {
	switch keySpec {
	case "SYMMETRIC_DEFAULT", "RSA_2048", "RSA_3072", "RSA_4096",
		"ECC_NIST_P256", "ECC_NIST_P384", "ECC_NIST_P521":
	default:
		return nil, fmt.Errorf("unsupported key spec %q", keySpec)
	}

	k := options.makeKey()
	k.metadata.KeySpec = keySpec
	k.metadata.Origin = "EXTERNAL"
	k.metadata.Enabled = false

	if err := k.persist(); err != nil {
		return nil, err
	}
	return k, nil
}

// ImportMaterial binds externally supplied material to a pending key.
// Symmetric material is 32 raw bytes; asymmetric material is a PKCS#8
// private key, which must pass its family's validity check and a sign/verify
// round trip over a random challenge proving the public and private halves
// correspond. Material failing either is released, never stored.
func (k *Key) ImportMaterial(material []byte) error {
	if k.HasMaterial() {
		return errors.New("key already has material")
	}

	declared := k.metadata.KeySpec
	if declared == "SYMMETRIC_DEFAULT" {
		if len(material) != 32 {
			return fmt.Errorf("symmetric material must be 32 bytes, got %d", len(material))
		}
		var backing [32]byte
		copy(backing[:], material)
		k.aes = aesKey{backingKeys: [][32]byte{backing}}
		k.metadata.EncryptionAlgorithms = []EncryptionAlgorithm{SymmetricDefault}
	} else {
		parsed, err := x509.ParsePKCS8PrivateKey(material)
		if err != nil {
			return err
		}
		if err := k.bindNative(parsed); err != nil {
			return err
		}
		if k.metadata.KeySpec != declared {
			derived := k.metadata.KeySpec
			k.releaseMaterial()
			k.metadata.KeySpec = declared
			return fmt.Errorf("material is %s, key expects %s", derived, declared)
		}
		if err := k.selfTest(); err != nil {
			k.releaseMaterial()
			return err
		}
	}

	k.metadata.Enabled = true
	return k.persist()
}

// selfTest proves the bound public and private halves correspond by signing a
// random challenge with the private half and verifying it with a second
// handle wrapping only the public half.
func (k *Key) selfTest() error {
	signer, ok := k.native.(crypto.Signer)
	if !ok {
		return fmt.Errorf("key material of type %T has no public half", k.native)
	}
	pub, err := pkey.FromPublic(signer.Public())
	if err != nil {
		return err
	}
	err = pub.Match(k.pair)
	pub.Free()
	return err
}

func (k *Key) releaseMaterial() {
	if k.pair != nil {
		k.pair.Free()
	}
	k.native = nil
	k.pair = nil
	k.metadata.SigningAlgorithms = nil
	k.metadata.EncryptionAlgorithms = nil
}

// bindNative routes the native key through the generic interface (which runs
// the validity check) and derives spec and algorithm metadata from it.
func (k *Key) bindNative(native crypto.PrivateKey) error {
	pair, err := pkey.FromPrivate(native)
	if err != nil {
		return err
	}

	switch key := native.(type) {
	case *ecdsa.PrivateKey:
		if k.metadata.Usage != SignVerify {
			pair.Free()
			return fmt.Errorf("usage %q not valid for ECC keys", k.metadata.Usage)
		}
		switch key.Curve {
		case elliptic.P256():
			k.metadata.KeySpec = "ECC_NIST_P256"
			k.metadata.SigningAlgorithms = []SigningAlgorithm{EcdsaSHA256}
		case elliptic.P384():
			k.metadata.KeySpec = "ECC_NIST_P384"
			k.metadata.SigningAlgorithms = []SigningAlgorithm{EcdsaSHA384}
		case elliptic.P521():
			k.metadata.KeySpec = "ECC_NIST_P521"
			k.metadata.SigningAlgorithms = []SigningAlgorithm{EcdsaSHA512}
		default:
			pair.Free()
			return fmt.Errorf("unsupported curve %q", key.Curve.Params().Name)
		}
	case *rsa.PrivateKey:
		bits := key.Size() * 8
		switch bits {
		case 2048, 3072, 4096:
		default:
			pair.Free()
			return fmt.Errorf("unsupported RSA modulus size %d", bits)
		}
		k.metadata.KeySpec = fmt.Sprintf("RSA_%d", bits)
		switch k.metadata.Usage {
		case EncryptDecrypt:
			k.metadata.EncryptionAlgorithms = []EncryptionAlgorithm{RsaOaepSHA256}
		case SignVerify:
			k.metadata.SigningAlgorithms = []SigningAlgorithm{
				RsaPkcs1SHA256, RsaPkcs1SHA384, RsaPkcs1SHA512,
			}
		default:
			pair.Free()
			return fmt.Errorf("usage %q not valid for RSA keys", k.metadata.Usage)
		}
	default:
		pair.Free()
		return fmt.Errorf("unsupported key material type %T", native)
	}

	k.native = native
	k.pair = pair
	return nil
}

// Sign signs the digest in st, returning the signature bytes. The signature
// buffer is sized from the key's own maximum-signature query.
func (k *Key) Sign(st *digest.State, algorithm SigningAlgorithm) ([]byte, error) {
	if !slices.Contains(k.metadata.SigningAlgorithms, algorithm) {
		return nil, ErrBadAlgorithm
	}

	size, err := k.pair.SignatureSize()
	if err != nil {
		return nil, err
	}
	sig := blob.New(size)
	if err := k.pair.Sign(st, sig); err != nil {
		return nil, err
	}
	return slices.Clone(sig.Bytes()), nil
}

// Verify checks signature against the digest in st.
func (k *Key) Verify(st *digest.State, signature []byte, algorithm SigningAlgorithm) error {
	if !slices.Contains(k.metadata.SigningAlgorithms, algorithm) {
		return ErrBadAlgorithm
	}
	return k.pair.Verify(st, blob.FromBytes(signature))
}

// Encrypt produces a self-describing ciphertext for symmetric keys
// ([idLen | id | version | nonce | ct]) and a raw OAEP ciphertext for RSA.
func (k *Key) Encrypt(plaintext []byte, algorithm EncryptionAlgorithm, context map[string]string) ([]byte, error) {
	if !slices.Contains(k.metadata.EncryptionAlgorithms, algorithm) {
		return nil, ErrBadAlgorithm
	}

	if k.IsSymmetric() {
		ciphertext, version, err := k.aes.Encrypt(plaintext, context)
		if err != nil {
			return nil, err
		}
		packed := []byte{uint8(len(k.metadata.Id))}
		packed = append(packed, k.metadata.Id...)
		packed = binary.LittleEndian.AppendUint32(packed, version)
		return append(packed, ciphertext...), nil
	}

	size, err := k.pair.SignatureSize()
	if err != nil {
		return nil, err
	}
	out := blob.New(size)
	if err := k.pair.Encrypt(blob.FromBytes(plaintext), out); err != nil {
		return nil, err
	}
	return slices.Clone(out.Bytes()), nil
}

// Decrypt reverses Encrypt. data must already have the symmetric id prefix
// stripped; the version word is still present.
func (k *Key) Decrypt(data []byte, algorithm EncryptionAlgorithm, context map[string]string) ([]byte, error) {
	if !slices.Contains(k.metadata.EncryptionAlgorithms, algorithm) {
		return nil, ErrBadAlgorithm
	}

	if k.IsSymmetric() {
		if len(data) < 4 {
			return nil, errors.New("ciphertext too short")
		}
		version := binary.LittleEndian.Uint32(data[:4])
		return k.aes.Decrypt(data[4:], version, context)
	}

	size, err := k.pair.SignatureSize()
	if err != nil {
		return nil, err
	}
	out := blob.New(size)
	if err := k.pair.Decrypt(blob.FromBytes(data), out); err != nil {
		return nil, err
	}
	return slices.Clone(out.Bytes()), nil
}

// PublicKeyDER exports the public half in PKIX form.
func (k *Key) PublicKeyDER() ([]byte, error) {
	signer, ok := k.native.(crypto.Signer)
	if !ok {
		return nil, errors.New("key has no public half")
	}
	return x509.MarshalPKIXPublicKey(signer.Public())
}

type serializableKey struct {
	Metadata metadata

	AesKeys [][32]byte
	// Asymmetric material is stored as PKCS#8 regardless of family: ecdsa
	// keys don't serialize as JSON (golang/go#33564), and one format keeps
	// the reload path uniform.
	PrivateKey []byte
}

func (k *Key) serialize() ([]byte, error) {
	sk := serializableKey{
		Metadata: k.metadata,
		AesKeys:  k.aes.backingKeys,
	}

	if k.native != nil {
		der, err := x509.MarshalPKCS8PrivateKey(k.native)
		if err != nil {
			return nil, err
		}
		sk.PrivateKey = der
	}

	return json.Marshal(sk)
}

func (k *Key) persist() error {
	if k.persistPath == "" {
		return nil
	}
	data, err := k.serialize()
	if err != nil {
		return err
	}
	return atomicfile.WriteBytes(k.persistPath, data, 0600)
}

// NewFromFile reloads a persisted key. Asymmetric material goes back through
// the generic import path, so the validity check reruns on every load.
func NewFromFile(path string) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := newFromData(data)
	if err != nil {
		return nil, err
	}
	k.persistPath = path
	return k, nil
}

func newFromData(data []byte) (*Key, error) {
	var sk serializableKey
	if err := json.Unmarshal(data, &sk); err != nil {
		return nil, err
	}

	k := &Key{
		metadata: sk.Metadata,
		aes:      aesKey{backingKeys: sk.AesKeys},
	}

	if len(sk.PrivateKey) > 0 {
		parsed, err := x509.ParsePKCS8PrivateKey(sk.PrivateKey)
		if err != nil {
			return nil, err
		}
		pair, err := pkey.FromPrivate(parsed)
		if err != nil {
			return nil, err
		}
		k.native = parsed
		k.pair = pair
	}

	return k, nil
}
