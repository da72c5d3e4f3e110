package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/two-shoulder/authsession/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app refresh", apperrors.Refresh(goerrors.New("invalid_grant")), "refresh"},
		{"wrapped app", fmt.Errorf("outer: %w", apperrors.Logout(goerrors.New("x"))), "logout"},
		{"deadline", fmt.Errorf("init: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"op error", &net.OpError{Op: "dial", Err: goerrors.New("refused")}, "errors_errorstring"},
		{"plain", goerrors.New("x"), "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
