package secure

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/box"
)

const keySize = 32

// KeyPair é o par de chaves assimétricas do servidor, gerado uma vez na inicialização e nunca rotacionado.
type KeyPair struct {
	public  *[keySize]byte
	private *[keySize]byte
}

// GenerateKeyPair cria um novo par curve25519.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fail("generate key pair", err)
	}
	return &KeyPair{public: pub, private: priv}, nil
}

// PublicKey devolve a chave pública em base64, pronta para a mensagem PUBLIC_KEY.
func (k *KeyPair) PublicKey() string {
	return base64.StdEncoding.EncodeToString(k.public[:])
}

// OpenSessionKey abre a chave simétrica que o cliente selou com a nossa chave pública.
func (k *KeyPair) OpenSessionKey(sealed string) (*SessionKey, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fail("open session key", errors.Wrap(err, "decode base64"))
	}

	plain, ok := box.OpenAnonymous(nil, raw, k.public, k.private)
	if !ok {
		return nil, fail("open session key", errors.New("sealed box authentication failed"))
	}

	key, err := sessionKeyFrom(plain)
	if err != nil {
		return nil, fail("open session key", err)
	}
	return key, nil
}

// DecodePublicKey interpreta a chave pública recebida do servidor.
func DecodePublicKey(encoded string) (*[keySize]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fail("decode public key", errors.Wrap(err, "decode base64"))
	}
	if len(raw) != keySize {
		return nil, fail("decode public key", errors.Errorf("expected %d bytes, got %d", keySize, len(raw)))
	}

	var pub [keySize]byte
	copy(pub[:], raw)
	return &pub, nil
}

// SealSessionKey é o lado do cliente do passo 3 da troca de chaves: sela a chave simétrica
// com a chave pública do servidor e devolve o resultado em base64.
func SealSessionKey(key *SessionKey, serverPublicKey string) (string, error) {
	pub, err := DecodePublicKey(serverPublicKey)
	if err != nil {
		return "", err
	}

	sealed, err := box.SealAnonymous(nil, key.raw[:], pub, rand.Reader)
	if err != nil {
		return "", fail("seal session key", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}
