package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/two-shoulder/authsession/internal/adapters/authroles"
	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	"github.com/two-shoulder/authsession/internal/mocks"
	"github.com/two-shoulder/authsession/internal/ports"
)

func newMockedManager(t *testing.T, client ports.IdentityClient, clock *fakeClock) *SessionManager {
	t.Helper()
	return NewSessionManager(SessionManagerOptions{
		Clients:  func() (ports.IdentityClient, error) { return client, nil },
		Resolver: authroles.NewAttributeResolver(),
		Config:   SessionConfig{SkipProfile: true, AfterFunc: clock.AfterFunc},
	})
}

func TestSessionManager_ProviderCallSequence(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockIdentityClient(ctrl)
	tokens, claims := operatorTokens("1")
	opts := domainauth.LogoutOptions{RedirectURL: "https://app.example.com/"}

	client.EXPECT().Tokens().Return(tokens).AnyTimes()
	client.EXPECT().Claims().Return(claims, nil).AnyTimes()
	gomock.InOrder(
		client.EXPECT().SetHooks(gomock.Any()),
		client.EXPECT().Init(gomock.Any()).Return(true, nil),
		client.EXPECT().UpdateToken(gomock.Any(), DefaultMinValidity).Return(false, nil),
		client.EXPECT().Logout(gomock.Any(), opts).Return(nil),
	)

	clock := &fakeClock{}
	m := newMockedManager(t, client, clock)

	ok, err := m.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.Snapshot().Access.Allows("reports"))

	require.NoError(t, m.Logout(context.Background(), opts))
	assert.Equal(t, domainauth.PhaseIdle, m.Phase())
}

func TestSessionManager_UnauthenticatedInitSkipsTokenCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockIdentityClient(ctrl)
	client.EXPECT().SetHooks(gomock.Any())
	client.EXPECT().Init(gomock.Any()).Return(false, nil)

	clock := &fakeClock{}
	m := newMockedManager(t, client, clock)

	ok, err := m.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, clock.pending())
	assert.Empty(t, m.Token())
}

func TestSessionManager_RequestAuthSignOutLogsOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockIdentityClient(ctrl)
	tokens, claims := operatorTokens("1")
	client.EXPECT().Tokens().Return(tokens).AnyTimes()
	client.EXPECT().Claims().Return(claims, nil).AnyTimes()
	client.EXPECT().SetHooks(gomock.Any())
	client.EXPECT().Init(gomock.Any()).Return(true, nil)
	client.EXPECT().UpdateToken(gomock.Any(), gomock.Any()).Return(false, nil)
	loggedOut := make(chan bool, 1)
	client.EXPECT().Logout(gomock.Any(), domainauth.LogoutOptions{}).
		DoAndReturn(func(ctx context.Context, _ domainauth.LogoutOptions) error {
			_, hasDeadline := ctx.Deadline()
			loggedOut <- hasDeadline
			return errors.New("provider down")
		})

	clock := &fakeClock{}
	m := newMockedManager(t, client, clock)
	_, err := m.Initialize(context.Background())
	require.NoError(t, err)

	var supplier ports.TokenSupplier
	var signOut func()
	ra := mocks.NewMockRequestAuthenticator(ctrl)
	ra.EXPECT().RegisterTokenSupplier(gomock.Any(), gomock.Any()).
		Do(func(s ports.TokenSupplier, so func()) {
			supplier, signOut = s, so
		})
	m.RegisterRequestAuth(ra)

	require.NotNil(t, supplier)
	assert.Equal(t, "access-1", supplier())
	signOut()
	assert.Empty(t, supplier())
	assert.Equal(t, domainauth.PhaseIdle, m.Phase())

	select {
	case hasDeadline := <-loggedOut:
		assert.True(t, hasDeadline, "provider logout is bounded by a timeout")
	case <-time.After(2 * time.Second):
		t.Fatal("provider logout was not started")
	}
}
