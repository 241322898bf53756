package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm names a supported AEAD cipher.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// ErrShortCiphertext is returned by Open for input shorter than a nonce.
var ErrShortCiphertext = errors.New("encryption: ciphertext too short")

// Option configures New.
type Option func(*options)

type options struct {
	algorithm Algorithm
}

// WithAlgorithm selects the cipher. The default is AES-256-GCM; an empty
// value keeps the default.
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) {
		if alg != "" {
			o.algorithm = alg
		}
	}
}

// Encryptor seals and opens byte payloads.
type Encryptor struct {
	aead      cipher.AEAD
	algorithm Algorithm
}

// New derives a key from passphrase and builds the selected cipher.
func New(passphrase string, opts ...Option) (*Encryptor, error) {
	if passphrase == "" {
		return nil, errors.New("encryption: passphrase is required")
	}
	o := &options{algorithm: AlgorithmAESGCM}
	for _, opt := range opts {
		opt(o)
	}

	key := sha256.Sum256([]byte(passphrase))

	var (
		aead cipher.AEAD
		err  error
	)
	switch o.algorithm {
	case AlgorithmAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key[:])
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case AlgorithmChaCha20:
		aead, err = chacha20poly1305.New(key[:])
	default:
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", o.algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("encryption: create %s: %w", o.algorithm, err)
	}
	return &Encryptor{aead: aead, algorithm: o.algorithm}, nil
}

// Algorithm returns the cipher in use.
func (e *Encryptor) Algorithm() Algorithm { return e.algorithm }

// Seal encrypts plaintext under a fresh random nonce.
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("encryption: generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func (e *Encryptor) Open(sealed []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrShortCiphertext
	}
	plaintext, err := e.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("encryption: open: %w", err)
	}
	return plaintext, nil
}
