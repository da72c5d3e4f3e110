// Package mocks provides gomock implementations of the session ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockIdentityClient(ctrl)
//	client.EXPECT().Init(gomock.Any()).Return(true, nil)
package mocks

// MockIdentityClient covers AccountManagementURL, Claims, Init, IsTokenExpired,
// LoadUserProfile, Logout, SetHooks, Tokens and UpdateToken.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_client_mock.go github.com/two-shoulder/authsession/internal/ports IdentityClient

// MockRequestAuthenticator covers RegisterTokenSupplier.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=request_authenticator_mock.go github.com/two-shoulder/authsession/internal/ports RequestAuthenticator
