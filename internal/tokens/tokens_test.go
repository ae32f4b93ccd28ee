package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/local-auth/internal/config"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "unit-at-secret",
		RefreshTokenSecret: "unit-rt-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    7 * 24 * time.Hour,
		Issuer:             "auth-service",
	}
}

func newSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := New(testCfg())
	require.NoError(t, err)
	return s
}

func TestIssue_BothTokensCarrySubjectAndEmail(t *testing.T) {
	t.Parallel()

	s := newSigner(t)

	pair, err := s.Issue(context.Background(), 42, "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	at, err := s.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), at.UserID)
	require.Equal(t, "a@b.com", at.Email)

	rt, err := s.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, int64(42), rt.UserID)
	require.Equal(t, "a@b.com", rt.Email)

	require.NotEqual(t, at.TokenID, rt.TokenID)
}

func TestIssue_Expiry(t *testing.T) {
	t.Parallel()

	s := newSigner(t)

	pair, err := s.Issue(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	require.WithinDuration(t, time.Now().Add(15*time.Minute), pair.AccessExpiresAt, 2*time.Second)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), pair.RefreshExpiresAt, 2*time.Second)

	at, err := s.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	require.WithinDuration(t, pair.AccessExpiresAt, at.ExpiresAt, time.Second)
}

func TestIssue_SameSecondPairsDiffer(t *testing.T) {
	t.Parallel()

	s := newSigner(t)
	fixed := time.Now()
	s.now = func() time.Time { return fixed }

	p1, err := s.Issue(context.Background(), 7, "a@b.com")
	require.NoError(t, err)
	p2, err := s.Issue(context.Background(), 7, "a@b.com")
	require.NoError(t, err)

	require.NotEqual(t, p1.RefreshToken, p2.RefreshToken)
	require.NotEqual(t, p1.AccessToken, p2.AccessToken)
}

func TestParse_CrossTypeRejected(t *testing.T) {
	t.Parallel()

	s := newSigner(t)

	pair, err := s.Issue(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	_, err = s.ParseRefresh(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ParseAccess(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_TypeClaimChecked_EvenWithRightSecret(t *testing.T) {
	t.Parallel()

	s := newSigner(t)

	// refresh-тип, подписанный access-секретом.
	signed, err := s.sign(1, "a@b.com", typeRefresh, time.Now(), time.Now().Add(time.Minute), s.accessSecret)
	require.NoError(t, err)

	_, err = s.ParseAccess(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	s := newSigner(t)

	pair, err := s.Issue(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	_, err = s.ParseAccess(pair.AccessToken)
	require.ErrorIs(t, err, ErrTokenExpired)

	_, err = s.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
}

func TestParse_WrongAlg_WrongIssuer_Garbage(t *testing.T) {
	t.Parallel()

	s := newSigner(t)
	now := time.Now()

	t.Run("wrong alg", func(t *testing.T) {
		c := jwt.MapClaims{
			"sub":   "1",
			"email": "a@b.com",
			"typ":   typeAccess,
			"iss":   testCfg().Issuer,
			"exp":   now.Add(time.Minute).Unix(),
			"iat":   now.Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte(testCfg().AccessTokenSecret))
		require.NoError(t, err)

		_, err = s.ParseAccess(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testCfg()
		other.Issuer = "someone-else"
		o, err := New(other)
		require.NoError(t, err)

		pair, err := o.Issue(context.Background(), 1, "a@b.com")
		require.NoError(t, err)

		_, err = s.ParseAccess(pair.AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bad subject", func(t *testing.T) {
		c := jwt.MapClaims{
			"sub": "not-a-number",
			"typ": typeAccess,
			"iss": testCfg().Issuer,
			"exp": now.Add(time.Minute).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testCfg().AccessTokenSecret))
		require.NoError(t, err)

		_, err = s.ParseAccess(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing exp", func(t *testing.T) {
		c := jwt.MapClaims{
			"sub": "1",
			"typ": typeAccess,
			"iss": testCfg().Issuer,
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testCfg().AccessTokenSecret))
		require.NoError(t, err)

		_, err = s.ParseAccess(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ParseAccess("not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNew_ValidatesSecrets(t *testing.T) {
	t.Parallel()

	cfg := testCfg()
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	_, err := New(cfg)
	require.Error(t, err)

	cfg = testCfg()
	cfg.AccessTokenSecret = ""
	_, err = New(cfg)
	require.Error(t, err)

	cfg = testCfg()
	cfg.AccessTokenTTL = 0
	_, err = New(cfg)
	require.Error(t, err)
}
