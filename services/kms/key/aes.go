package key

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"

	"keybox/random"
)

// aesKey is the symmetric material behind SYMMETRIC_DEFAULT keys. Backing
// keys are versioned to leave room for rotation; version 0 is the only one
// minted today.
type aesKey struct {
	backingKeys [][32]byte
}

func newAesKey() (aesKey, error) {
	var backingKey [32]byte
	if err := random.Data(backingKey[:]); err != nil {
		return aesKey{}, err
	}
	return aesKey{backingKeys: [][32]byte{backingKey}}, nil
}

// contextAAD canonicalizes the encryption context for use as AAD. The only
// requirements are that the same context reproduces the same bytes and that
// key order does not matter; json.Marshal sorts map keys, which fits.
func contextAAD(context map[string]string) ([]byte, error) {
	return json.Marshal(context)
}

func (a aesKey) Encrypt(plaintext []byte, context map[string]string) ([]byte, uint32, error) {
	version := uint32(len(a.backingKeys) - 1)
	backing := a.backingKeys[version]

	block, err := aes.NewCipher(backing[:])
	if err != nil {
		return nil, 0, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, 0, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if err := random.Data(nonce); err != nil {
		return nil, 0, err
	}

	aad, err := contextAAD(context)
	if err != nil {
		return nil, 0, err
	}

	return aesgcm.Seal(nonce, nonce, plaintext, aad), version, nil
}

func (a aesKey) Decrypt(ciphertext []byte, version uint32, context map[string]string) ([]byte, error) {
	if version >= uint32(len(a.backingKeys)) {
		return nil, fmt.Errorf("no backing key for version %d", version)
	}
	backing := a.backingKeys[version]

	block, err := aes.NewCipher(backing[:])
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := aesgcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext shorter than nonce")
	}

	aad, err := contextAAD(context)
	if err != nil {
		return nil, err
	}

	return aesgcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], aad)
}
