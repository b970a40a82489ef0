package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/models"
)

const issuer = "bookshop"

type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	Username string
	Admin    bool
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(cfg config.AuthConfig) *Tokens {
	return &Tokens{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL, now: time.Now}
}

func (t *Tokens) Issue(user *models.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)

	claims := Claims{
		Admin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

func (t *Tokens) Parse(raw string) (Identity, error) {
	const op = "auth.parse_token"

	claims := &Claims{}
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		return Identity{}, apperr.E(op, apperr.KindUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, apperr.E(op, apperr.KindUnauthorized, errors.New("invalid token"))
	}
	if !claims.VerifyIssuer(issuer, true) {
		return Identity{}, apperr.E(op, apperr.KindUnauthorized, errors.New("unexpected issuer"))
	}

	return Identity{Username: claims.Subject, Admin: claims.Admin}, nil
}
