// Package media stores uploaded images on disk, optionally encrypted at
// rest with ChaCha20-Poly1305. Files get random names; the original
// filename only contributes its extension.
package media

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrNotFound indicates the requested file does not exist.
	ErrNotFound = errors.New("media: file not found")

	// ErrBadKey indicates MEDIA_ENC_KEY is not 32 hex-encoded bytes.
	ErrBadKey = errors.New("media: encryption key must be 64 hex chars (32 bytes)")
)

// Service reads and writes the uploads directory. With a nil aead the files
// are stored in plaintext, mirroring an unset encryption key.
type Service struct {
	dir  string
	aead cipher.AEAD
}

// NewService ensures dir exists and, when hexKey is non-empty, prepares the
// cipher. Encrypted files are laid out as nonce || ciphertext.
func NewService(dir, hexKey string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create uploads dir: %w", err)
	}

	s := &Service{dir: dir}
	if hexKey != "" {
		key, err := hex.DecodeString(hexKey)
		if err != nil || len(key) != chacha20poly1305.KeySize {
			return nil, ErrBadKey
		}
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, err
		}
		s.aead = aead
	}
	return s, nil
}

// Encrypted reports whether files are sealed before hitting disk.
func (s *Service) Encrypted() bool {
	return s.aead != nil
}

// Save writes data under a random name, keeping the extension of the
// original filename, and returns the stored name.
func (s *Service) Save(originalName string, data []byte) (string, error) {
	var rnd [16]byte
	if _, err := rand.Read(rnd[:]); err != nil {
		return "", err
	}
	name := hex.EncodeToString(rnd[:]) + filepath.Ext(originalName)

	if s.aead != nil {
		nonce := make([]byte, s.aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return "", err
		}
		data = s.aead.Seal(nonce, nonce, data, nil)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("media: write %s: %w", name, err)
	}
	return name, nil
}

// Open reads a stored file back, decrypting if a key is configured.
// The name is reduced to its base to keep lookups inside the uploads dir.
func (s *Service) Open(name string) ([]byte, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if s.aead == nil {
		return data, nil
	}

	ns := s.aead.NonceSize()
	if len(data) < ns {
		return nil, fmt.Errorf("media: %s: stored file shorter than nonce", name)
	}
	plain, err := s.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("media: decrypt %s: %w", name, err)
	}
	return plain, nil
}
