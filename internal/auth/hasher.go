// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Threadboard Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost settings baked into every hash.
type Argon2Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params follow the OWASP baseline for argon2id.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

func (p Argon2Params) validate() error {
	switch {
	case p.Time == 0:
		return oops.Code("AUTH_INVALID_HASH_PARAMS").Errorf("time must be positive")
	case p.Threads == 0:
		return oops.Code("AUTH_INVALID_HASH_PARAMS").Errorf("threads must be positive")
	case p.Memory < 8*uint32(p.Threads):
		return oops.Code("AUTH_INVALID_HASH_PARAMS").Errorf("memory must be at least 8 KiB per thread")
	case p.SaltLen < 8:
		return oops.Code("AUTH_INVALID_HASH_PARAMS").Errorf("salt must be at least 8 bytes")
	case p.KeyLen < 16:
		return oops.Code("AUTH_INVALID_HASH_PARAMS").Errorf("key must be at least 16 bytes")
	}
	return nil
}

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher hashes passwords one way and checks candidates against a
// stored hash.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. A malformed hash is an
	// error, a mismatch is not.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade reports whether hash was produced with other settings
	// than the hasher uses now.
	NeedsUpgrade(hash string) bool
}

// Argon2idHasher hashes passwords with argon2id into PHC strings:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher returns a hasher using DefaultArgon2Params.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultArgon2Params}
}

// NewArgon2idHasherWithParams returns a hasher using p.
func NewArgon2idHasherWithParams(p Argon2Params) (*Argon2idHasher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Argon2idHasher{params: p}, nil
}

// phcHash is a decoded PHC string.
type phcHash struct {
	version int
	params  Argon2Params
	salt    []byte
	key     []byte
}

func (h *phcHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		h.version, h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	encoded := &phcHash{
		version: argon2.Version,
		params:  h.params,
		salt:    salt,
		key:     derive(password, salt, h.params),
	}
	return encoded.String(), nil
}

func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	stored, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	computed := derive(password, stored.salt, stored.params)
	return subtle.ConstantTimeCompare(computed, stored.key) == 1, nil
}

// NeedsUpgrade is true for anything that is not an argon2id hash with the
// hasher's current settings.
func (h *Argon2idHasher) NeedsUpgrade(encodedHash string) bool {
	stored, err := parsePHC(encodedHash)
	if err != nil {
		return true
	}
	current := h.params
	return stored.version != argon2.Version ||
		stored.params.Memory != current.Memory ||
		stored.params.Time != current.Time ||
		stored.params.Threads != current.Threads ||
		stored.params.KeyLen != current.KeyLen
}

func derive(password string, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

func invalidHash(format string, args ...any) error {
	return oops.Code("AUTH_INVALID_HASH").Errorf(format, args...)
}

func parsePHC(encodedHash string) (*phcHash, error) {
	fields := strings.Split(encodedHash, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, invalidHash("invalid hash format")
	}
	if fields[1] != "argon2id" {
		return nil, invalidHash("unsupported hash algorithm: %s", fields[1])
	}

	out := &phcHash{}
	if _, err := fmt.Sscanf(fields[2], "v=%d", &out.version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "version").Wrap(err)
	}

	var threads uint32
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "params").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, invalidHash("threads value %d out of range", threads)
	}
	out.params.Threads = uint8(threads)

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "salt").Wrap(err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "key").Wrap(err)
	}
	if n := len(out.key); n == 0 || n > 1<<30 {
		return nil, invalidHash("invalid hash key length: %d", n)
	}
	out.params.SaltLen = uint32(len(out.salt))
	out.params.KeyLen = uint32(len(out.key))

	return out, nil
}
