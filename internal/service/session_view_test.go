package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
	authmocks "github.com/two-shoulder/authsession/internal/mocks/auth"
)

type futureEvent struct{}

func (futureEvent) Kind() EventKind { return "FUTURE" }
func (futureEvent) sessionEvent()   {}

func TestSessionView_ReducerIgnoresUnknownKinds(t *testing.T) {
	h := newHarness(t, newOperatorClient())
	h.initialize(t)
	v := h.m.Attach(context.Background())
	defer v.Detach()
	before := v.State()

	changed := 0
	v.OnChange(func(domainauth.LoginState) { changed++ })
	v.apply(futureEvent{})

	assert.Equal(t, before, v.State())
	assert.Equal(t, 0, changed)
}

func TestSessionView_ReducerTransitions(t *testing.T) {
	v := newSessionView(nil)

	v.apply(LoadingEvent{})
	assert.True(t, v.State().Loading)

	client := newOperatorClient()
	v.apply(InitializedEvent{Client: client, Authenticated: true})
	st := v.State()
	assert.True(t, st.Authenticated)
	assert.False(t, st.Loading)

	v.apply(TokenUpdatedEvent{Token: "t", RefreshToken: "r"})
	v.apply(AccessResolvedEvent{Access: domainauth.Access{Roles: []string{"operator"}, Permissions: map[string]bool{"reports": true}}})
	v.apply(ProfileLoadedEvent{Profile: domainauth.Profile{Username: "alice"}})
	v.apply(ErrorEvent{Message: "profile unavailable"})

	st = v.State()
	assert.Equal(t, "t", st.Token)
	assert.Equal(t, "r", st.RefreshToken)
	assert.True(t, v.HasModulePermission("reports"))
	assert.Equal(t, []string{"operator"}, v.UserRoles())
	require.NotNil(t, st.UserInfo)
	assert.Equal(t, "alice", st.UserInfo.Username)
	assert.Equal(t, "profile unavailable", st.Error)
	assert.Equal(t, client.AccountURL, v.AccountManagementURL())

	v.apply(ResetEvent{})
	assert.Equal(t, domainauth.LoginState{Access: domainauth.Access{Permissions: map[string]bool{}}}, v.State())
	assert.Empty(t, v.AccountManagementURL())
	assert.True(t, v.IsTokenExpired(0))
}

func TestSessionView_StateIsACopy(t *testing.T) {
	h := newHarness(t, newOperatorClient())
	h.initialize(t)
	v := h.m.Attach(context.Background())
	defer v.Detach()

	st := v.State()
	st.Access.Permissions["modbus"] = true
	st.UserInfo.Username = "mallory"

	assert.False(t, v.HasModulePermission("modbus"))
	assert.Equal(t, "alice", v.State().UserInfo.Username)
}

func TestSessionView_SuperRoleGrantsAnyModule(t *testing.T) {
	tokens, claims := operatorTokens("1")
	claims.RealmRoles = []string{"superadmin"}
	claims.RoleAttributes = nil
	h := newHarness(t, authmocks.NewFakeIdentityClient(tokens, claims))
	h.initialize(t)

	v := h.m.Attach(context.Background())
	defer v.Detach()

	assert.True(t, v.HasSuperRole())
	assert.True(t, v.HasModulePermission("anything"))
	assert.False(t, v.HasModulePermission(""))
}

func TestSessionView_DetachStopsUpdates(t *testing.T) {
	h := newHarness(t, newOperatorClient())
	h.initialize(t)
	v := h.m.Attach(context.Background())
	other := h.m.Attach(context.Background())
	defer other.Detach()

	v.Detach()
	v.Detach()
	require.NoError(t, h.m.Logout(context.Background(), domainauth.LogoutOptions{}))

	assert.Equal(t, "access-1", v.Token(), "detached view keeps its last state")
	assert.Empty(t, other.Token())
	_, err := v.UpdateToken(context.Background(), time.Second)
	require.Error(t, err)
}

func TestSessionView_DetachCancelsWaitReady(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	client := newOperatorClient()
	client.InitFunc = func(context.Context) (bool, error) {
		<-gate
		return true, nil
	}
	h := newHarness(t, client)
	v := h.m.Attach(context.Background())
	assert.True(t, v.State().Loading)

	done := make(chan error, 1)
	go func() {
		_, err := v.WaitReady(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool {
		initCalls, _, _, _ := client.Calls()
		return initCalls == 1
	}, time.Second, time.Millisecond)

	v.Detach()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("WaitReady did not return after Detach")
	}
}

func TestSessionView_OnChange(t *testing.T) {
	h := newHarness(t, newOperatorClient())
	h.initialize(t)
	v := h.m.Attach(context.Background())
	defer v.Detach()

	var seen []domainauth.LoginState
	v.OnChange(func(s domainauth.LoginState) { seen = append(seen, s) })

	require.NoError(t, v.Logout(context.Background(), domainauth.LogoutOptions{}))

	require.Len(t, seen, 1)
	assert.False(t, seen[0].Authenticated)
}

func TestSessionView_UpdateProfileBroadcasts(t *testing.T) {
	client := newOperatorClient()
	h := newHarness(t, client)
	h.initialize(t)
	v := h.m.Attach(context.Background())
	defer v.Detach()
	h.events.reset()

	profile, err := v.UpdateProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, []EventKind{EventProfileLoaded}, h.events.kinds())
}

func TestSessionView_UpdateTokenDelegates(t *testing.T) {
	client := newOperatorClient()
	h := newHarness(t, client)
	h.initialize(t)
	v := h.m.Attach(context.Background())
	defer v.Detach()

	client.UpdateTokenFunc = func(_ context.Context, minValidity time.Duration) (bool, error) {
		assert.Equal(t, time.Minute, minValidity)
		client.Rotate(operatorTokens("9"))
		return true, nil
	}
	refreshed, err := v.UpdateToken(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "access-9", v.Token())
	assert.False(t, v.IsTokenExpired(time.Second))
}
