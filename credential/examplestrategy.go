package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonwraymond/clientpool/authctx"
	"github.com/jonwraymond/clientpool/resilience"
	"github.com/jonwraymond/clientpool/secret"
)

// OAuth2ClientCredentialsStrategy is a reference ApplicationStrategy
// implementation: it exchanges a client ID/secret for a token via the
// OAuth2 client_credentials grant, wrapped in a circuit breaker and retry
// so a flaky identity provider does not take down every caller at once.
type OAuth2ClientCredentialsStrategy struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	httpClient   *http.Client

	retry   *resilience.Retry
	breaker *resilience.CircuitBreaker
}

// NewOAuth2ClientCredentialsStrategy creates a strategy targeting
// tokenURL. httpClient may be nil, in which case a client with a 30s
// timeout is used.
func NewOAuth2ClientCredentialsStrategy(tokenURL, clientID, clientSecret, scope string, httpClient *http.Client) *OAuth2ClientCredentialsStrategy {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OAuth2ClientCredentialsStrategy{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		httpClient:   httpClient,
		retry:        resilience.NewRetry(resilience.CredentialAcquisitionRetryConfig()),
		breaker:      resilience.NewCircuitBreaker(resilience.CredentialAcquisitionCircuitBreakerConfig()),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// AcquireApplication implements ApplicationStrategy.
func (s *OAuth2ClientCredentialsStrategy) AcquireApplication(ctx context.Context, authCtx authctx.AuthContext) (*Credential, error) {
	var tok tokenResponse

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retry.Execute(ctx, func(ctx context.Context) error {
			resp, err := s.requestToken(ctx)
			if err != nil {
				return err
			}
			tok = resp
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return &Credential{
		Value:     tok.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}

func (s *OAuth2ClientCredentialsStrategy) requestToken(ctx context.Context) (tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}
	if s.scope != "" {
		form.Set("scope", s.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("credential: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("credential: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("credential: read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return tokenResponse{}, fmt.Errorf("credential: token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return tokenResponse{}, fmt.Errorf("credential: decode token response: %w", err)
	}
	return tok, nil
}

// CertificateDelegatedStrategy is a reference DelegatedStrategy that stages
// a per-user client certificate to disk (via secret.FileStagingProvider)
// before handing its path to a downstream SDK, and releases it once the
// Credential is disposed.
type CertificateDelegatedStrategy struct {
	staging   *secret.FileStagingProvider
	fetchCert func(ctx context.Context, assertion authctx.UserAssertion) ([]byte, time.Time, error)
}

// NewCertificateDelegatedStrategy creates a strategy that stages
// certificates produced by fetchCert under staging.
func NewCertificateDelegatedStrategy(staging *secret.FileStagingProvider, fetchCert func(ctx context.Context, assertion authctx.UserAssertion) ([]byte, time.Time, error)) *CertificateDelegatedStrategy {
	return &CertificateDelegatedStrategy{staging: staging, fetchCert: fetchCert}
}

// AcquireDelegated implements DelegatedStrategy.
func (s *CertificateDelegatedStrategy) AcquireDelegated(ctx context.Context, authCtx authctx.AuthContext, assertion authctx.UserAssertion) (*Credential, error) {
	content, expiresAt, err := s.fetchCert(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("credential: fetch certificate: %w", err)
	}

	path, err := s.staging.Stage(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("credential: stage certificate: %w", err)
	}

	cred := &Credential{Value: path, ExpiresAt: expiresAt}
	return cred.WithDispose(func(ctx context.Context) error {
		return s.staging.Release(ctx, path)
	}), nil
}
