package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/two-shoulder/authsession/internal/domain/auth"
)

func TestFakeIdentityClient_Defaults(t *testing.T) {
	ctx := context.Background()
	c := NewFakeIdentityClient(
		domainauth.Tokens{AccessToken: "at", RefreshToken: "rt", ExpiresAt: time.Now().Add(time.Hour)},
		domainauth.Claims{Subject: "u-1", PreferredUsername: "alice", Email: "alice@example.com"},
	)

	ok, err := c.Init(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	refreshed, err := c.UpdateToken(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, refreshed)

	profile, err := c.LoadUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "u-1", profile.ID)

	assert.False(t, c.IsTokenExpired(30*time.Second))
	assert.True(t, c.IsTokenExpired(2*time.Hour))
	require.NoError(t, c.Logout(ctx, domainauth.LogoutOptions{}))

	initCalls, updateCalls, logoutCalls, profileCalls := c.Calls()
	assert.Equal(t, []int{1, 1, 1, 1}, []int{initCalls, updateCalls, logoutCalls, profileCalls})
}

func TestFakeIdentityClient_Overrides(t *testing.T) {
	boom := errors.New("boom")
	c := NewAnonymousIdentityClient()
	c.InitFunc = func(context.Context) (bool, error) { return false, boom }
	c.SetClaimsError(boom)

	_, err := c.Init(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = c.Claims()
	require.ErrorIs(t, err, boom)
	assert.True(t, c.IsTokenExpired(0))
}

func TestFakeIdentityClient_Rotate(t *testing.T) {
	c := NewFakeIdentityClient(domainauth.Tokens{AccessToken: "a1"}, domainauth.Claims{Subject: "u"})
	c.Rotate(domainauth.Tokens{AccessToken: "a2"}, domainauth.Claims{Subject: "u", RealmRoles: []string{"r"}})

	assert.Equal(t, "a2", c.Tokens().AccessToken)
	claims, err := c.Claims()
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, claims.RealmRoles)
}

func TestFakeFactory(t *testing.T) {
	first, second := NewAnonymousIdentityClient(), NewAnonymousIdentityClient()
	f := NewFakeFactory(first, second)

	c1, err := f.New()
	require.NoError(t, err)
	c2, _ := f.New()
	c3, _ := f.New()

	assert.Same(t, first, c1)
	assert.Same(t, second, c2)
	assert.Same(t, second, c3)
	assert.Equal(t, 3, f.Calls())

	f.Err = errors.New("misconfigured")
	_, err = f.New()
	require.Error(t, err)
}

func TestRecordingRequestAuthenticator(t *testing.T) {
	r := &RecordingRequestAuthenticator{}
	assert.Empty(t, r.Token())
	assert.NotPanics(t, r.SignOut)

	signedOut := false
	r.RegisterTokenSupplier(func() string { return "tok" }, func() { signedOut = true })
	assert.Equal(t, "tok", r.Token())
	r.SignOut()
	assert.True(t, signedOut)
}

func TestStaticResolver(t *testing.T) {
	r := StaticResolver{Access: domainauth.Access{Permissions: map[string]bool{"reports": true}}}
	a := r.Resolve(domainauth.Claims{}, []string{"operator"})
	assert.Equal(t, []string{"operator"}, a.Roles)
	assert.True(t, a.Allows("reports"))

	a.Permissions["reports"] = false
	assert.True(t, r.Access.Permissions["reports"])
}
