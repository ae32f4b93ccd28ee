package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/local-auth/internal/limiter"
	"github.com/pribylovaa/local-auth/internal/models"
	"github.com/pribylovaa/local-auth/internal/storage"
	"github.com/pribylovaa/local-auth/mocks"
)

type mockDeps struct {
	st     *mocks.MockUserStorage
	signer *mocks.MockSigner
	lim    *mocks.MockLoginLimiter
}

func newMockSvc(t *testing.T) (*Service, mockDeps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := mockDeps{
		st:     mocks.NewMockUserStorage(ctrl),
		signer: mocks.NewMockSigner(ctrl),
		lim:    mocks.NewMockLoginLimiter(ctrl),
	}

	h := fastHasher(t)

	return New(d.st, d.signer, h, h, WithLimiter(d.lim)), d
}

func stubPair() *models.TokenPair {
	now := time.Now().UTC()
	return &models.TokenPair{
		AccessToken:      "access",
		RefreshToken:     "refresh",
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func mustHash(t *testing.T, svc *Service, plain string) string {
	t.Helper()

	h, err := svc.passwords.Hash(plain)
	require.NoError(t, err)

	return h
}

func TestSignUp_StoreErrors(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("db down")

	tests := []struct {
		name      string
		createErr error
		want      error
	}{
		{name: "already_exists_maps_to_conflict", createErr: fmt.Errorf("wrapped: %w", storage.ErrAlreadyExists), want: ErrConflict},
		{name: "other_error_propagated", createErr: dbErr, want: dbErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, d := newMockSvc(t)
			d.st.EXPECT().CreateUser(gomock.Any(), "a@b.com", gomock.Any()).Return(nil, tt.createErr)

			_, err := svc.SignUp(context.Background(), "a@b.com", "pw1")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignUp_PersistsRefreshHash(t *testing.T) {
	t.Parallel()

	svc, d := newMockSvc(t)
	pair := stubPair()

	var stored string
	gomock.InOrder(
		d.st.EXPECT().CreateUser(gomock.Any(), "a@b.com", gomock.Any()).
			DoAndReturn(func(_ context.Context, email, hash string) (*models.User, error) {
				require.NotEqual(t, "pw1", hash)
				return &models.User{ID: 7, Email: email, PasswordHash: hash}, nil
			}),
		d.signer.EXPECT().Issue(gomock.Any(), int64(7), "a@b.com").Return(pair, nil),
		d.st.EXPECT().SetRefreshTokenHash(gomock.Any(), int64(7), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, hash string) error {
				stored = hash
				return nil
			}),
	)

	got, err := svc.SignUp(context.Background(), "a@b.com", "pw1")
	require.NoError(t, err)
	require.Equal(t, pair, got)

	ok, err := svc.refreshHashes.Verify(stored, pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSignUp_SignerOrSaveError_NoPairReturned(t *testing.T) {
	t.Parallel()

	signErr := errors.New("sign failed")
	saveErr := errors.New("save failed")

	t.Run("signer", func(t *testing.T) {
		svc, d := newMockSvc(t)
		d.st.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.User{ID: 1, Email: "a@b.com"}, nil)
		d.signer.EXPECT().Issue(gomock.Any(), int64(1), "a@b.com").Return(nil, signErr)

		pair, err := svc.SignUp(context.Background(), "a@b.com", "pw1")
		require.Nil(t, pair)
		require.ErrorIs(t, err, signErr)
	})

	t.Run("save_hash", func(t *testing.T) {
		svc, d := newMockSvc(t)
		d.st.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Return(&models.User{ID: 1, Email: "a@b.com"}, nil)
		d.signer.EXPECT().Issue(gomock.Any(), int64(1), "a@b.com").Return(stubPair(), nil)
		d.st.EXPECT().SetRefreshTokenHash(gomock.Any(), int64(1), gomock.Any()).Return(saveErr)

		pair, err := svc.SignUp(context.Background(), "a@b.com", "pw1")
		require.Nil(t, pair)
		require.ErrorIs(t, err, saveErr)
	})
}

func TestSignIn_Locked_SkipsStore(t *testing.T) {
	t.Parallel()

	svc, d := newMockSvc(t)
	d.lim.EXPECT().Check(gomock.Any(), "a@b.com").Return(limiter.ErrLocked)

	_, err := svc.SignIn(context.Background(), "A@B.com", "pw1")
	require.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestSignIn_RecordsFailures(t *testing.T) {
	t.Parallel()

	t.Run("wrong_password", func(t *testing.T) {
		svc, d := newMockSvc(t)
		hash := mustHash(t, svc, "pw1")

		d.lim.EXPECT().Check(gomock.Any(), "a@b.com").Return(nil)
		d.st.EXPECT().UserByEmail(gomock.Any(), "a@b.com").Return(&models.User{ID: 1, Email: "a@b.com", PasswordHash: hash}, nil)
		d.lim.EXPECT().RecordFailure(gomock.Any(), "a@b.com").Return(nil)

		_, err := svc.SignIn(context.Background(), "a@b.com", "bad")
		require.ErrorIs(t, err, ErrAuth)
	})

	t.Run("unknown_email", func(t *testing.T) {
		svc, d := newMockSvc(t)

		d.lim.EXPECT().Check(gomock.Any(), "x@b.com").Return(nil)
		d.st.EXPECT().UserByEmail(gomock.Any(), "x@b.com").Return(nil, storage.ErrNotFound)
		d.lim.EXPECT().RecordFailure(gomock.Any(), "x@b.com").Return(errors.New("redis down"))

		_, err := svc.SignIn(context.Background(), "x@b.com", "pw1")
		require.ErrorIs(t, err, ErrAuth)
	})
}

func TestSignIn_Success_ResetsLimiter(t *testing.T) {
	t.Parallel()

	svc, d := newMockSvc(t)
	hash := mustHash(t, svc, "pw1")
	pair := stubPair()

	d.lim.EXPECT().Check(gomock.Any(), "a@b.com").Return(nil)
	d.st.EXPECT().UserByEmail(gomock.Any(), "a@b.com").Return(&models.User{ID: 3, Email: "a@b.com", PasswordHash: hash}, nil)
	d.signer.EXPECT().Issue(gomock.Any(), int64(3), "a@b.com").Return(pair, nil)
	d.st.EXPECT().SetRefreshTokenHash(gomock.Any(), int64(3), gomock.Any()).Return(nil)
	d.lim.EXPECT().Reset(gomock.Any(), "a@b.com").Return(nil)

	got, err := svc.SignIn(context.Background(), "a@b.com", "pw1")
	require.NoError(t, err)
	require.Equal(t, pair, got)
}

func TestSignIn_LimiterUnavailable_FailsOpen(t *testing.T) {
	t.Parallel()

	svc, d := newMockSvc(t)
	hash := mustHash(t, svc, "pw1")

	d.lim.EXPECT().Check(gomock.Any(), "a@b.com").Return(limiter.ErrUnavailable)
	d.st.EXPECT().UserByEmail(gomock.Any(), "a@b.com").Return(&models.User{ID: 3, Email: "a@b.com", PasswordHash: hash}, nil)
	d.signer.EXPECT().Issue(gomock.Any(), int64(3), "a@b.com").Return(stubPair(), nil)
	d.st.EXPECT().SetRefreshTokenHash(gomock.Any(), int64(3), gomock.Any()).Return(nil)
	d.lim.EXPECT().Reset(gomock.Any(), "a@b.com").Return(limiter.ErrUnavailable)

	_, err := svc.SignIn(context.Background(), "a@b.com", "pw1")
	require.NoError(t, err)
}

func TestSignIn_StoreError_Propagated(t *testing.T) {
	t.Parallel()

	svc, d := newMockSvc(t)
	dbErr := errors.New("db down")

	d.lim.EXPECT().Check(gomock.Any(), "a@b.com").Return(nil)
	d.st.EXPECT().UserByEmail(gomock.Any(), "a@b.com").Return(nil, dbErr)

	_, err := svc.SignIn(context.Background(), "a@b.com", "pw1")
	require.ErrorIs(t, err, dbErr)
	require.NotErrorIs(t, err, ErrAuth)
}

func TestSignOut_StoreError_Propagated(t *testing.T) {
	t.Parallel()

	svc, d := newMockSvc(t)
	dbErr := errors.New("db down")

	d.st.EXPECT().ClearRefreshTokenHash(gomock.Any(), int64(5)).Return(dbErr)

	require.ErrorIs(t, svc.SignOut(context.Background(), 5), dbErr)
}

func TestRefreshTokens_StoreOutcomes(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("db down")

	t.Run("not_found_is_forbidden", func(t *testing.T) {
		svc, d := newMockSvc(t)
		d.st.EXPECT().UserByID(gomock.Any(), int64(9)).Return(nil, storage.ErrNotFound)

		_, err := svc.RefreshTokens(context.Background(), 9, "rt")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("db_error_propagated", func(t *testing.T) {
		svc, d := newMockSvc(t)
		d.st.EXPECT().UserByID(gomock.Any(), int64(9)).Return(nil, dbErr)

		_, err := svc.RefreshTokens(context.Background(), 9, "rt")
		require.ErrorIs(t, err, dbErr)
		require.NotErrorIs(t, err, ErrForbidden)
	})

	t.Run("signed_out_user_is_forbidden", func(t *testing.T) {
		svc, d := newMockSvc(t)
		d.st.EXPECT().UserByID(gomock.Any(), int64(9)).Return(&models.User{ID: 9, Email: "a@b.com"}, nil)

		_, err := svc.RefreshTokens(context.Background(), 9, "rt")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("match_rotates", func(t *testing.T) {
		svc, d := newMockSvc(t)
		stored, err := svc.refreshHashes.Hash("rt")
		require.NoError(t, err)

		pair := stubPair()
		d.st.EXPECT().UserByID(gomock.Any(), int64(9)).Return(&models.User{ID: 9, Email: "a@b.com", RefreshTokenHash: stored}, nil)
		d.signer.EXPECT().Issue(gomock.Any(), int64(9), "a@b.com").Return(pair, nil)
		d.st.EXPECT().SetRefreshTokenHash(gomock.Any(), int64(9), gomock.Not(stored)).Return(nil)

		got, err := svc.RefreshTokens(context.Background(), 9, "rt")
		require.NoError(t, err)
		require.Equal(t, pair, got)
	})
}

func TestNew_WithoutLimiter(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockUserStorage(ctrl)
	h := fastHasher(t)

	svc := New(st, mocks.NewMockSigner(ctrl), h, h)
	require.Nil(t, svc.limiter)

	st.EXPECT().UserByEmail(gomock.Any(), "a@b.com").Return(nil, storage.ErrNotFound)

	_, err := svc.SignIn(context.Background(), "a@b.com", "pw1")
	require.ErrorIs(t, err, ErrAuth)
}
