package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"

	"github.com/maheshrc27/crosspost/pkg/apperrors"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize  = 32
	saltSize = 16
	ivSize   = 12
	tagSize  = 16

	blobSegments = 4
	keyInfo      = "crosspost token encryption"
)

// TokenCipher seals and opens secrets with the configured ENCRYPTION_KEY.
// The zero value has no key and fails every operation with a config error.
type TokenCipher struct {
	key string
}

func NewTokenCipher(base64Key string) TokenCipher {
	return TokenCipher{key: base64Key}
}

func (c TokenCipher) Encrypt(plaintext string) (string, error) {
	return Encrypt(plaintext, c.key)
}

func (c TokenCipher) Decrypt(blob string) (string, error) {
	return Decrypt(blob, c.key)
}

// Encrypt seals plaintext with AES-256-GCM under a key derived from the master
// key and a fresh salt. The result is salt:iv:authTag:ciphertext, each segment
// base64-encoded.
func Encrypt(plaintext, base64Key string) (string, error) {
	if plaintext == "" {
		return "", apperrors.New(apperrors.KindInvalidInput, "Cannot encrypt empty or null value")
	}

	master, err := decodeMasterKey(base64Key)
	if err != nil {
		return "", err
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", apperrors.Wrap(apperrors.KindConfig, "failed to generate salt", err)
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", apperrors.Wrap(apperrors.KindConfig, "failed to generate iv", err)
	}

	aead, err := newAEAD(master, salt)
	if err != nil {
		return "", err
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure past the format check
// is reported as DecryptionFailed, whether the blob was tampered with or the
// key is wrong.
func Decrypt(blob, base64Key string) (string, error) {
	if blob == "" {
		return "", apperrors.New(apperrors.KindInvalidInput, "Cannot decrypt empty or null value")
	}

	parts := strings.Split(blob, ":")
	if len(parts) != blobSegments {
		return "", apperrors.New(apperrors.KindInvalidInput, "Invalid ciphertext format")
	}

	master, err := decodeMasterKey(base64Key)
	if err != nil {
		return "", err
	}

	segments := make([][]byte, blobSegments)
	for i, part := range parts {
		segments[i], err = base64.StdEncoding.DecodeString(part)
		if err != nil {
			return "", decryptionFailed()
		}
	}
	salt, iv, tag, ciphertext := segments[0], segments[1], segments[2], segments[3]

	if len(salt) != saltSize || len(iv) != ivSize || len(tag) != tagSize {
		return "", decryptionFailed()
	}

	aead, err := newAEAD(master, salt)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		slog.Debug("token decryption rejected")
		return "", decryptionFailed()
	}

	return string(plaintext), nil
}

// GenerateEncryptionKey returns a fresh base64-encoded 32-byte key.
func GenerateEncryptionKey() (string, error) {
	return GenerateRandomKey(keySize, base64.StdEncoding)
}

// Hash returns the hex SHA-256 digest of value.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// SafeCompare compares two secrets in constant time for equal lengths.
func SafeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func decodeMasterKey(base64Key string) ([]byte, error) {
	if base64Key == "" {
		return nil, apperrors.New(apperrors.KindConfig, "ENCRYPTION_KEY environment variable is not set")
	}

	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil || len(key) != keySize {
		return nil, apperrors.New(apperrors.KindConfig, "ENCRYPTION_KEY must be exactly 32 bytes (base64-encoded)")
	}
	return key, nil
}

func newAEAD(master, salt []byte) (cipher.AEAD, error) {
	derived := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(keyInfo)), derived); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "failed to derive key", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "failed to create cipher", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, "failed to create GCM", err)
	}
	return aead, nil
}

func decryptionFailed() error {
	return apperrors.New(apperrors.KindDecryptionFailed, "Decryption failed")
}
