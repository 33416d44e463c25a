package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/wallet"
)

type TokenIssuer interface {
	Issue(principal model.Principal) (string, time.Time, error)
}

type WalletService struct {
	connector *wallet.Connector
	issuer    TokenIssuer
	log       zerolog.Logger
}

type ConnectWalletInput struct {
	WalletType string
	Address    string
}

type ConnectWalletResult struct {
	Session   wallet.Session
	Token     string
	ExpiresAt time.Time
}

func NewWalletService(connector *wallet.Connector, issuer TokenIssuer, log zerolog.Logger) *WalletService {
	return &WalletService{connector: connector, issuer: issuer, log: log}
}

// Connect opens a wallet session and issues the bearer token that
// authenticates the rest of the API.
func (s *WalletService) Connect(ctx context.Context, input ConnectWalletInput) (*ConnectWalletResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := s.connector.Connect(input.WalletType, input.Address)
	if err != nil {
		if errors.Is(err, wallet.ErrUnsupportedWallet) || errors.Is(err, wallet.ErrInvalidAddress) ||
			errors.Is(err, wallet.ErrReservedAddress) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	token, expiresAt, err := s.issuer.Issue(model.Principal{
		Address:      session.Address,
		WalletType:   session.WalletType,
		ServerSigned: session.ServerSigned,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet", session.Address).
		Str("wallet_type", session.WalletType).
		Msg("wallet connected")
	return &ConnectWalletResult{Session: session, Token: token, ExpiresAt: expiresAt}, nil
}
