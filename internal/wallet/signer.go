package wallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// MnemonicSigner signs with an account restored from a 25-word mnemonic.
type MnemonicSigner struct {
	key     ed25519.PrivateKey
	address string
}

func NewMnemonicSigner(phrase string) (*MnemonicSigner, error) {
	key, err := mnemonic.ToPrivateKey(phrase)
	if err != nil {
		return nil, fmt.Errorf("restore wallet mnemonic: %w", err)
	}
	account, err := crypto.AccountFromPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("derive wallet account: %w", err)
	}
	return &MnemonicSigner{key: key, address: account.Address.String()}, nil
}

func (s *MnemonicSigner) Address() string {
	return s.address
}

func (s *MnemonicSigner) SignTransaction(tx types.Transaction) (string, []byte, error) {
	if tx.Sender.String() != s.address {
		return "", nil, fmt.Errorf("transaction sender %s does not match signer %s", tx.Sender.String(), s.address)
	}
	txID, signed, err := crypto.SignTransaction(s.key, tx)
	if err != nil {
		return "", nil, fmt.Errorf("sign transaction: %w", err)
	}
	return txID, signed, nil
}
