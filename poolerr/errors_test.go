package poolerr

import (
	"fmt"
	"testing"

	"github.com/jonwraymond/clientpool/authctx"
)

func TestCode_OwnSentinels(t *testing.T) {
	cases := map[error]string{
		ErrAuthModeMismatch:     "AuthModeMismatch",
		ErrConfigurationInvalid: "ConfigurationInvalid",
		ErrFactoryFailure:       "FactoryFailure",
		ErrCredentialFailure:    "CredentialFailure",
		ErrInternal:             "Internal",
	}
	for err, want := range cases {
		if got := Code(err); got != want {
			t.Errorf("Code(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestCode_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("strategy call: %w", ErrCredentialFailure)
	if got := Code(wrapped); got != "CredentialFailure" {
		t.Errorf("Code(wrapped) = %q, want CredentialFailure", got)
	}
}

func TestCode_DelegatesToAuthctx(t *testing.T) {
	if got := Code(authctx.ErrMissingTenant); got != "MissingTenant" {
		t.Errorf("Code(authctx.ErrMissingTenant) = %q, want MissingTenant", got)
	}
}

func TestCode_Unknown(t *testing.T) {
	if got := Code(fmt.Errorf("some other failure")); got != "" {
		t.Errorf("Code(unknown) = %q, want empty string", got)
	}
}
