// Package wallet manages wallet sessions and the optional server-side signer.
package wallet

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

var (
	ErrUnsupportedWallet = errors.New("unsupported wallet type")
	ErrInvalidAddress    = errors.New("invalid wallet address")
	ErrReservedAddress   = errors.New("wallet address is reserved for the server signer")
)

var supportedWallets = map[string]struct{}{
	"pera":   {},
	"defly":  {},
	"exodus": {},
}

type Session struct {
	Address      string
	WalletType   string
	Balance      uint64
	// ServerSigned marks sessions bound to the server signer account.
	ServerSigned bool
}

// Connector opens wallet sessions. With a signer the session is bound to the
// signer account; without one a throwaway account is generated.
type Connector struct {
	signer *MnemonicSigner
}

func NewConnector(signer *MnemonicSigner) *Connector {
	return &Connector{signer: signer}
}

// Connect opens a session for walletType. A non-empty address is validated
// and used as is, which lets external wallets bind their own account. The
// signer account can only be reached by omitting the address.
func (c *Connector) Connect(walletType, address string) (Session, error) {
	walletType = strings.ToLower(strings.TrimSpace(walletType))
	if _, ok := supportedWallets[walletType]; !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrUnsupportedWallet, walletType)
	}

	address = strings.TrimSpace(address)
	serverSigned := false
	switch {
	case address != "":
		if err := ValidateAddress(address); err != nil {
			return Session{}, err
		}
		if c.signer != nil && address == c.signer.Address() {
			return Session{}, ErrReservedAddress
		}
	case c.signer != nil:
		address = c.signer.Address()
		serverSigned = true
	default:
		address = crypto.GenerateAccount().Address.String()
	}

	return Session{
		Address:      address,
		WalletType:   walletType,
		Balance:      uint64(100 + rand.IntN(1000)),
		ServerSigned: serverSigned,
	}, nil
}

func ValidateAddress(address string) error {
	if _, err := types.DecodeAddress(address); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

func SupportedWallets() []string {
	return []string{"pera", "defly", "exodus"}
}
