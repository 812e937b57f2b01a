package key

import (
	"errors"

	"keybox/digest"
)

type Usage string

const (
	EncryptDecrypt Usage = "ENCRYPT_DECRYPT"
	SignVerify     Usage = "SIGN_VERIFY"
)

type SigningAlgorithm string

const (
	RsaPkcs1SHA256 SigningAlgorithm = "RSASSA_PKCS1_V1_5_SHA_256"
	RsaPkcs1SHA384 SigningAlgorithm = "RSASSA_PKCS1_V1_5_SHA_384"
	RsaPkcs1SHA512 SigningAlgorithm = "RSASSA_PKCS1_V1_5_SHA_512"
	EcdsaSHA256    SigningAlgorithm = "ECDSA_SHA_256"
	EcdsaSHA384    SigningAlgorithm = "ECDSA_SHA_384"
	EcdsaSHA512    SigningAlgorithm = "ECDSA_SHA_512"
)

type EncryptionAlgorithm string

const (
	SymmetricDefault EncryptionAlgorithm = "SYMMETRIC_DEFAULT"
	RsaOaepSHA256    EncryptionAlgorithm = "RSAES_OAEP_SHA_256"
)

var ErrBadAlgorithm = errors.New("bad algorithm")

// DigestAlgFor maps a signing algorithm to the digest it is computed over.
func DigestAlgFor(algorithm SigningAlgorithm) (digest.Alg, error) {
	switch algorithm {
	case RsaPkcs1SHA256, EcdsaSHA256:
		return digest.SHA256, nil
	case RsaPkcs1SHA384, EcdsaSHA384:
		return digest.SHA384, nil
	case RsaPkcs1SHA512, EcdsaSHA512:
		return digest.SHA512, nil
	default:
		return 0, ErrBadAlgorithm
	}
}
