// Package password hashes admin passwords with argon2id and verifies both
// argon2id and legacy bcrypt hashes.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrMalformedHash = errors.New("malformed password hash")

// Params are the argon2id cost parameters.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

type Hasher struct {
	params Params
	dummy  string
}

// NewHasher returns a hasher using p. It precomputes a dummy hash so that
// VerifyDummy costs the same as a real verification.
func NewHasher(p Params) *Hasher {
	h := &Hasher{params: p}
	dummy, err := h.Hash("dummy-password-for-timing")
	if err != nil {
		panic(fmt.Sprintf("password: cannot build dummy hash: %v", err))
	}
	h.dummy = dummy
	return h
}

// Hash returns a PHC-style encoded argon2id hash:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded. Malformed hashes never match.
func (h *Hasher) Verify(plain, encoded string) bool {
	if looksLikeBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
	}

	p, salt, key, err := decode(encoded)
	if err != nil {
		return false
	}
	other := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1
}

// VerifyDummy burns the same work as Verify against a real hash and always
// reports false. Used when the account does not exist.
func (h *Hasher) VerifyDummy(plain string) bool {
	h.Verify(plain, h.dummy)
	return false
}

// NeedsRehash reports whether encoded should be replaced by a fresh Hash,
// which is the case for legacy bcrypt hashes and for argon2id hashes made
// with different parameters.
func (h *Hasher) NeedsRehash(encoded string) bool {
	if looksLikeBcrypt(encoded) {
		return true
	}
	p, _, key, err := decode(encoded)
	if err != nil {
		return true
	}
	return p.Memory != h.params.Memory || p.Time != h.params.Time ||
		p.Threads != h.params.Threads || uint32(len(key)) != h.params.KeyLen
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrMalformedHash
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	// argon2.IDKey panics on zero time or parallelism
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrMalformedHash
	}
	return p, salt, key, nil
}

func looksLikeBcrypt(value string) bool {
	return len(value) > 4 && value[0:2] == "$2"
}
