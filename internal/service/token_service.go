package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	config "github.com/postflowhq/publisher/configs"
	"github.com/postflowhq/publisher/internal/models"
	"github.com/postflowhq/publisher/pkg/utils"
	"golang.org/x/oauth2"
)

var ErrTokenExpired = errors.New("access token expired")

// TokenProvider hands back a currently-valid credential for a connected
// account. Refresh is the token-refresh job's responsibility; an expired
// token here surfaces as an auth failure for that account.
type TokenProvider interface {
	AccessToken(ctx context.Context, acc *models.SocialAccount) (*oauth2.Token, error)
}

type tokenProvider struct {
	cfg config.Config
}

func NewTokenProvider(cfg config.Config) TokenProvider {
	return &tokenProvider{cfg: cfg}
}

func (t *tokenProvider) AccessToken(ctx context.Context, acc *models.SocialAccount) (*oauth2.Token, error) {
	if !acc.TokenExpiresAt.IsZero() && acc.TokenExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}

	decrypted, err := utils.Decrypt(acc.AccessToken, []byte(t.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: decrypted,
		Expiry:      acc.TokenExpiresAt,
	}, nil
}
