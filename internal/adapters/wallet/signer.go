// Package wallet signs composed intents as CosmWasm execute transactions and
// submits them through the LCD gateway.
package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Signer guarda una clave secp256k1 en memoria. Nunca la exporta.
type Signer struct {
	key    *ecdsa.PrivateKey
	pubKey []byte // comprimida, 33 bytes
}

// NewSigner parsea una clave privada hex (con o sin 0x).
func NewSigner(privateKeyHex string) (*Signer, error) {
	pkBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("wallet: decode private key: %w", err)
	}
	key, err := crypto.ToECDSA(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid private key: %w", err)
	}
	return &Signer{key: key, pubKey: crypto.CompressPubkey(&key.PublicKey)}, nil
}

// PubKey returns the 33-byte compressed public key.
func (s *Signer) PubKey() []byte {
	out := make([]byte, len(s.pubKey))
	copy(out, s.pubKey)
	return out
}

// PubKeyBase64 is the amino "tendermint/PubKeySecp256k1" value.
func (s *Signer) PubKeyBase64() string {
	return base64.StdEncoding.EncodeToString(s.pubKey)
}

// Sign firma sha256(signBytes) y devuelve r||s (64 bytes, s bajo), el formato
// que espera el módulo auth de Cosmos.
func (s *Signer) Sign(signBytes []byte) ([]byte, error) {
	digest := sha256.Sum256(signBytes)
	sig, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return nil, fmt.Errorf("wallet: sign: %w", err)
	}
	return sig[:64], nil
}
