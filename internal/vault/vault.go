// Package vault seals byte images under a password: argon2id derives the key,
// AES-GCM encrypts, and the header is authenticated alongside the ciphertext.
package vault

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrWrongPassword is returned when authentication of the sealed data fails.
	ErrWrongPassword = errors.New("wrong password")
	// ErrMalformed is returned when the envelope header cannot be read.
	ErrMalformed = errors.New("malformed vault")
)

const (
	version   = 1
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	// magic(8) version(1) time(4) memory(4) threads(1) salt nonce
	headerSize = 8 + 1 + 4 + 4 + 1 + saltSize + nonceSize
)

var magic = []byte("MVLT\x00enc")

// Params are the argon2id cost settings stored in every envelope.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams follow the argon2id recommendations for interactive logins.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4}

// HasMagic reports whether b starts like a sealed envelope.
func HasMagic(b []byte) bool {
	return len(b) >= len(magic) && bytes.Equal(b[:len(magic)], magic)
}

// IsSealed reports whether the file at path is a sealed envelope. Missing and
// short files are not sealed.
func IsSealed(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return HasMagic(head), nil
}

// Sealer holds a derived key so repeated writes skip key derivation.
type Sealer struct {
	params Params
	salt   []byte
	gcm    cipher.AEAD
}

// NewSealer derives a key for password under a fresh salt.
func NewSealer(password string, p Params) (*Sealer, error) {
	if password == "" {
		return nil, errors.New("password required")
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return newSealer(password, p, salt)
}

func newSealer(password string, p Params, salt []byte) (*Sealer, error) {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("%w: zero kdf parameter", ErrMalformed)
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{params: p, salt: salt, gcm: gcm}, nil
}

// Seal encrypts plain under a new nonce and returns the full envelope.
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, version)
	header = binary.BigEndian.AppendUint32(header, s.params.Time)
	header = binary.BigEndian.AppendUint32(header, s.params.Memory)
	header = append(header, s.params.Threads)
	header = append(header, s.salt...)
	header = append(header, nonce...)
	return s.gcm.Seal(header, nonce, plain, header), nil
}

// Unseal decrypts an envelope and returns the plaintext with a Sealer bound to
// the same password and salt.
func Unseal(sealed []byte, password string) ([]byte, *Sealer, error) {
	if len(sealed) < headerSize || !HasMagic(sealed) {
		return nil, nil, ErrMalformed
	}
	header := sealed[:headerSize]
	if header[8] != version {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, header[8])
	}
	p := Params{
		Time:    binary.BigEndian.Uint32(header[9:13]),
		Memory:  binary.BigEndian.Uint32(header[13:17]),
		Threads: header[17],
	}
	salt := append([]byte(nil), header[18:18+saltSize]...)
	nonce := header[18+saltSize:]
	s, err := newSealer(password, p, salt)
	if err != nil {
		return nil, nil, err
	}
	plain, err := s.gcm.Open(nil, nonce, sealed[headerSize:], header)
	if err != nil {
		return nil, nil, ErrWrongPassword
	}
	return plain, s, nil
}

// WriteFile replaces path atomically with data (mode 0600).
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o600); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
