// tokens выпускает и проверяет пары JWT (HS256).
//
// Access- и refresh-токены подписываются разными секретами и несут разный
// claim typ, поэтому access-токен никогда не пройдёт проверку как refresh
// и наоборот. Каждый токен получает случайный jti: две пары, выпущенные
// одному пользователю в одну секунду, всё равно различаются.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/local-auth/internal/config"
	"github.com/pribylovaa/local-auth/internal/models"
)

var (
	// ErrInvalidToken: токен некорректен по формату, подписи, алгоритму,
	// издателю или типу.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired: срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	leeway = 5 * time.Second
)

type claims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// Signer выпускает и проверяет токены. Безопасен для конкурентного использования.
type Signer struct {
	cfg           config.AuthConfig
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// New создаёт Signer; секреты должны быть непустыми и различаться.
func New(cfg config.AuthConfig) (*Signer, error) {
	const op = "tokens.New"

	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("%s: empty token secret", op)
	}

	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("%s: access and refresh secrets must differ", op)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: token ttl must be positive", op)
	}

	return &Signer{
		cfg:           cfg,
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		now:           time.Now,
	}, nil
}

// Issue подписывает access- и refresh-токен параллельно с одинаковым
// набором claims {sub, email}.
func (s *Signer) Issue(ctx context.Context, userID int64, email string) (*models.TokenPair, error) {
	const op = "tokens.Issue"

	now := s.now().UTC()
	pair := &models.TokenPair{
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		signed, err := s.sign(userID, email, typeAccess, now, pair.AccessExpiresAt, s.accessSecret)
		if err != nil {
			return fmt.Errorf("access: %w", err)
		}
		pair.AccessToken = signed
		return nil
	})

	g.Go(func() error {
		signed, err := s.sign(userID, email, typeRefresh, now, pair.RefreshExpiresAt, s.refreshSecret)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		pair.RefreshToken = signed
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// ParseAccess проверяет access-токен и возвращает его claims.
func (s *Signer) ParseAccess(token string) (*models.Claims, error) {
	return s.parse(token, typeAccess, s.accessSecret)
}

// ParseRefresh проверяет refresh-токен и возвращает его claims.
func (s *Signer) ParseRefresh(token string) (*models.Claims, error) {
	return s.parse(token, typeRefresh, s.refreshSecret)
}

func (s *Signer) sign(userID int64, email, typ string, now, exp time.Time, secret []byte) (string, error) {
	c := claims{
		Email: email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func (s *Signer) parse(tokenStr, typ string, secret []byte) (*models.Claims, error) {
	const op = "tokens.parse"

	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c,
		func(*jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !token.Valid || c.Type != typ {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	out := &models.Claims{
		UserID:  uid,
		Email:   c.Email,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time.UTC()
	}

	return out, nil
}
