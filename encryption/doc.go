// Package encryption seals archived artifacts with an AEAD cipher.
//
// Keys are derived from a passphrase with SHA-256. Sealed output is the
// random nonce followed by the ciphertext, so it can be stored as-is.
//
//	enc, err := encryption.New(passphrase, encryption.WithAlgorithm(encryption.AlgorithmChaCha20))
//	sealed, err := enc.Seal([]byte(transcript))
//	plain, err := enc.Open(sealed)
package encryption
