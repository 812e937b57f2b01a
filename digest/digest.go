// Package digest wraps the hash accumulators used for signing and
// verification. A State is bound to one algorithm, produces a fixed-length
// digest on demand, and must be returned to a ready-for-reuse condition after
// every sign/verify call, whether or not the operation succeeded.
package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
)

// MaxLength bounds every digest size this process accepts (SHA-512). An
// algorithm reporting a larger size is a contract violation on the part of
// the digest source, and operations abort before touching any buffer.
const MaxLength = 64

type Alg int

const (
	SHA1 Alg = iota + 1
	SHA224
	SHA256
	SHA384
	SHA512
)

var errUnknownAlg = errors.New("digest: unknown algorithm")

// Size returns the digest length in bytes for the algorithm.
func (a Alg) Size() (uint8, error) {
	switch a {
	case SHA1:
		return 20, nil
	case SHA224:
		return 28, nil
	case SHA256:
		return 32, nil
	case SHA384:
		return 48, nil
	case SHA512:
		return 64, nil
	default:
		return 0, errUnknownAlg
	}
}

func (a Alg) String() string {
	switch a {
	case SHA1:
		return "SHA1"
	case SHA224:
		return "SHA224"
	case SHA256:
		return "SHA256"
	case SHA384:
		return "SHA384"
	case SHA512:
		return "SHA512"
	default:
		return "UNKNOWN"
	}
}

func (a Alg) newHash() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New()
	case SHA224:
		return sha256.New224()
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		return nil
	}
}

// State is a mutable digest accumulator. A State must never be shared between
// two in-flight operations; it is a single-writer, single-use-per-call
// resource.
type State struct {
	alg Alg
	h   hash.Hash

	// sum is set instead of h when the state was seeded from an
	// already-computed digest (see FromSum).
	sum []byte
}

// New returns an empty accumulator for the algorithm.
func New(alg Alg) (*State, error) {
	h := alg.newHash()
	if h == nil {
		return nil, errUnknownAlg
	}
	return &State{alg: alg, h: h}, nil
}

// FromSum returns a State seeded with a digest that was computed elsewhere.
// Extract hands back the seeded bytes; Update is rejected and Reset is a
// no-op, since there is no accumulator to return to a ready state.
func FromSum(alg Alg, sum []byte) (*State, error) {
	size, err := alg.Size()
	if err != nil {
		return nil, err
	}
	if len(sum) != int(size) {
		return nil, fmt.Errorf("digest: %s sum must be %d bytes, got %d", alg, size, len(sum))
	}
	s := &State{alg: alg, sum: make([]byte, len(sum))}
	copy(s.sum, sum)
	return s, nil
}

func (s *State) Alg() Alg {
	return s.alg
}

// Update absorbs p into the accumulator.
func (s *State) Update(p []byte) error {
	if s.h == nil {
		return errors.New("digest: cannot update a sum-seeded state")
	}
	s.h.Write(p)
	return nil
}

// Extract writes the current digest into out, which must hold at least the
// algorithm's digest size. It does not consume the accumulator; callers that
// are done with the state must Reset it.
func (s *State) Extract(out []byte) error {
	size, err := s.alg.Size()
	if err != nil {
		return err
	}
	if len(out) < int(size) {
		return fmt.Errorf("digest: output buffer %d too small for %d-byte digest", len(out), size)
	}
	if s.h != nil {
		s.h.Sum(out[:0])
		return nil
	}
	copy(out, s.sum)
	return nil
}

// Reset returns the accumulator to its initial, ready-for-reuse condition.
func (s *State) Reset() {
	if s.h != nil {
		s.h.Reset()
	}
}
