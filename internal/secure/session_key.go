package secure

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// SessionKey é a chave simétrica de uma conexão. Cifra apenas o conteúdo de MOVE e RESULT.
type SessionKey struct {
	raw  [chacha20poly1305.KeySize]byte
	aead cipher.AEAD
}

// NewSessionKey gera uma chave aleatória nova. Nunca é reutilizada entre conexões.
func NewSessionKey() (*SessionKey, error) {
	raw := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(raw); err != nil {
		return nil, fail("new session key", err)
	}
	key, err := sessionKeyFrom(raw)
	if err != nil {
		return nil, fail("new session key", err)
	}
	return key, nil
}

func sessionKeyFrom(raw []byte) (*SessionKey, error) {
	if len(raw) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("expected %d key bytes, got %d", chacha20poly1305.KeySize, len(raw))
	}

	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, err
	}

	k := &SessionKey{aead: aead}
	copy(k.raw[:], raw)
	return k, nil
}

// Encrypt cifra plain e devolve base64(nonce || ciphertext).
func (k *SessionKey) Encrypt(plain []byte) (string, error) {
	nonce := make([]byte, k.aead.NonceSize(), k.aead.NonceSize()+len(plain)+k.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fail("encrypt", err)
	}

	sealed := k.aead.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt desfaz Encrypt. Texto adulterado ou cifrado com outra chave falha na autenticação.
func (k *SessionKey) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fail("decrypt", errors.Wrap(err, "decode base64"))
	}

	ns := k.aead.NonceSize()
	if len(raw) < ns+k.aead.Overhead() {
		return nil, fail("decrypt", errors.New("ciphertext too short"))
	}

	plain, err := k.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, fail("decrypt", err)
	}
	return plain, nil
}
