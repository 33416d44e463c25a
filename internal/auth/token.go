package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/signchain/signchain/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const issuer = "signchain"

// Claims bind a session token to a wallet address carried in the subject.
type Claims struct {
	WalletType   string `json:"wallet_type"`
	ServerSigned bool   `json:"srv,omitempty"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(principal model.Principal) (string, time.Time, error) {
	if principal.IsZero() {
		return "", time.Time{}, fmt.Errorf("issue token: empty principal")
	}
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		WalletType:   principal.WalletType,
		ServerSigned: principal.ServerSigned,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   principal.Address,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return model.Principal{}, ErrInvalidToken
	}
	return model.Principal{
		Address:      claims.Subject,
		WalletType:   claims.WalletType,
		ServerSigned: claims.ServerSigned,
	}, nil
}
