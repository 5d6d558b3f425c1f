package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Service seals sensitive employee fields with AES-256-GCM. A Service built
// from an empty key is a passthrough, which keeps development databases
// readable.
type Service struct {
	aead cipher.AEAD
}

func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != 32 {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must be 32 bytes after decoding, got %d", len(decoded))
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

// Encrypt returns nonce||ciphertext.
func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Service) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return sealed, nil
	}
	size := s.aead.NonceSize()
	if len(sealed) < size {
		return nil, ErrCiphertextTooShort
	}
	return s.aead.Open(nil, sealed[:size], sealed[size:], nil)
}

func (s *Service) EncryptString(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	return s.Encrypt([]byte(value))
}

func (s *Service) DecryptString(value []byte) (string, error) {
	plain, err := s.Decrypt(value)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Seal prepares a value for a column pair (plain, sealed). With a key only
// the sealed column is written; without one only the plain column is.
func (s *Service) Seal(value string) (plain any, sealed []byte, err error) {
	if !s.Configured() {
		return nullIfEmpty(value), nil, nil
	}
	sealed, err = s.EncryptString(value)
	return nil, sealed, err
}

// Open reverses Seal, preferring the sealed column when it holds data.
func (s *Service) Open(plain string, sealed []byte) (string, error) {
	if !s.Configured() || len(sealed) == 0 {
		return plain, nil
	}
	return s.DecryptString(sealed)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// decodeKey accepts hex, padded or raw base64, or the raw bytes.
func decodeKey(raw string) []byte {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded
	}
	return []byte(raw)
}
