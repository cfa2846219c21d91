package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds the operator's secret key and public key. It is created
// once at boot and is read-only afterwards.
type Wallet struct {
	sk *ecdsa.PrivateKey
	pk *ecdsa.PublicKey
}

// NewWallet creates a new wallet from a hex-encoded private key. A leading
// "0x" is accepted and stripped.
func NewWallet(sk string) (*Wallet, error) {
	sk = strings.TrimPrefix(strings.TrimSpace(sk), "0x")
	privateKey, err := crypto.HexToECDSA(sk)
	if err != nil {
		return nil, fmt.Errorf("converting private key to ECDSA: %s", err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("casting public key to ECDSA")
	}

	return &Wallet{
		sk: privateKey,
		pk: publicKeyECDSA,
	}, nil
}

// PrivateKey gets the private key.
func (w *Wallet) PrivateKey() *ecdsa.PrivateKey {
	return w.sk
}

// Address returns the checksummed wallet address.
func (w *Wallet) Address() common.Address {
	return crypto.PubkeyToAddress(*w.pk)
}
