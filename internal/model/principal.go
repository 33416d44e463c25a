package model

// Principal is the wallet session behind an authenticated request.
type Principal struct {
	Address      string
	WalletType   string
	// ServerSigned is set only for sessions the connector bound to the
	// server signer account.
	ServerSigned bool
}

func (p Principal) IsZero() bool {
	return p.Address == ""
}
