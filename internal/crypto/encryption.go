package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"

	"github.com/pkg/errors"

	inboxerrors "github.com/hoadesk/inbox/internal/errors"
)

const (
	// Prefix marks values produced by EncryptString.
	Prefix = "enc.v1:"

	ivSize  = 12
	tagSize = 16
)

// Encrypter seals OAuth tokens with AES-256-GCM.
type Encrypter struct {
	gcm cipher.AEAD
}

// ParseKey accepts a 32 byte key as 64 hex characters or standard base64.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if len(key) == 64 {
		if b, err := hex.DecodeString(key); err == nil {
			return b, nil
		}
	}
	b, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(b) != 32 {
		return nil, inboxerrors.ErrInvalidEncryptionKey
	}
	return b, nil
}

func NewEncrypter(key string) (*Encrypter, error) {
	raw, err := ParseKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}
	return &Encrypter{gcm: gcm}, nil
}

// EncryptString returns enc.v1:<iv>.<tag>.<ciphertext>, each part std base64.
func (e *Encrypter) EncryptString(plain string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", errors.Wrap(err, "failed to generate iv")
	}

	sealed := e.gcm.Seal(nil, iv, []byte(plain), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	enc := base64.StdEncoding
	return Prefix + enc.EncodeToString(iv) + "." + enc.EncodeToString(tag) + "." + enc.EncodeToString(ciphertext), nil
}

// DecryptString reverses EncryptString. Values without the prefix are
// returned unchanged so tokens stored before encryption keep working.
func (e *Encrypter) DecryptString(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	parts := strings.Split(strings.TrimPrefix(value, Prefix), ".")
	if len(parts) != 3 {
		return "", inboxerrors.ErrMalformedCiphertext
	}

	enc := base64.StdEncoding
	iv, err := enc.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return "", inboxerrors.ErrMalformedCiphertext
	}
	tag, err := enc.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", inboxerrors.ErrMalformedCiphertext
	}
	ciphertext, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", inboxerrors.ErrMalformedCiphertext
	}

	plain, err := e.gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", errors.Wrap(err, "decryption failed")
	}
	return string(plain), nil
}

func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}
