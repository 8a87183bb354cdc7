package clientpool

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/clientpool/auth"
	"github.com/jonwraymond/clientpool/authctx"
	"github.com/jonwraymond/clientpool/cachekey"
)

type fakeValidator struct{}

func (fakeValidator) Validate(ctx context.Context, rawAssertion string) (authctx.UserAssertion, error) {
	return authctx.UserAssertion{
		RawToken:     rawAssertion,
		TenantID:     "tenant-1",
		UserObjectID: "user-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func TestFacade_Client_NoBearerToken_UsesApplicationMode(t *testing.T) {
	mgr := newTestManager(t, time.Hour)
	pool, _ := newTestPool(t, mgr)
	extractor := NewBearerAssertionExtractor(fakeValidator{}, "Authorization")
	facade := NewFacade[*auth.AuthRequest, *fakeClient](pool, extractor)

	req := &auth.AuthRequest{}
	if _, err := facade.Client(context.Background(), req, "", nil, 0); err != nil {
		t.Fatalf("Client: %v", err)
	}
}

func TestFacade_Client_BearerToken_UsesDelegatedMode(t *testing.T) {
	mgr := newTestManager(t, time.Hour)
	pool, calls := newTestPool(t, mgr)
	extractor := NewBearerAssertionExtractor(fakeValidator{}, "Authorization")
	facade := NewFacade[*auth.AuthRequest, *fakeClient](pool, extractor)

	req := &auth.AuthRequest{Headers: map[string][]string{"Authorization": {"Bearer abc.def.ghi"}}}
	if _, err := facade.Client(context.Background(), req, "", nil, 0); err != nil {
		t.Fatalf("Client: %v", err)
	}
	if *calls != 1 {
		t.Errorf("factory invoked %d times, want 1", *calls)
	}
}

func TestFacade_ClientWithResolver_FingerprintResolverDerivesKey(t *testing.T) {
	mgr := newTestManager(t, time.Hour)
	pool, calls := newTestPool(t, mgr)
	extractor := NewBearerAssertionExtractor(fakeValidator{}, "Authorization")
	facade := NewFacade[*auth.AuthRequest, *fakeClient](pool, extractor)

	resolver := FingerprintResolver[*auth.AuthRequest]{
		Fingerprinter: cachekey.FingerprinterFunc(func(options any) string {
			return fmt.Sprintf("region:%v", options)
		}),
		OptionsExtractor: func(req *auth.AuthRequest) any {
			return req.Resource
		},
	}

	reqEU := &auth.AuthRequest{Resource: "eu"}
	reqUS := &auth.AuthRequest{Resource: "us"}

	if _, err := facade.ClientWithResolver(context.Background(), reqEU, resolver, 0); err != nil {
		t.Fatalf("ClientWithResolver: %v", err)
	}
	if _, err := facade.ClientWithResolver(context.Background(), reqEU, resolver, 0); err != nil {
		t.Fatalf("ClientWithResolver: %v", err)
	}
	if _, err := facade.ClientWithResolver(context.Background(), reqUS, resolver, 0); err != nil {
		t.Fatalf("ClientWithResolver: %v", err)
	}

	if *calls != 2 {
		t.Errorf("factory invoked %d times, want 2 (same resource should hit cache, different resource should miss)", *calls)
	}
}

func TestFacade_InvalidateClientCache(t *testing.T) {
	mgr := newTestManager(t, time.Hour)
	pool, calls := newTestPool(t, mgr)
	extractor := NewBearerAssertionExtractor(fakeValidator{}, "Authorization")
	facade := NewFacade[*auth.AuthRequest, *fakeClient](pool, extractor)

	req := &auth.AuthRequest{}
	if _, err := facade.Client(context.Background(), req, "", nil, 0); err != nil {
		t.Fatalf("Client: %v", err)
	}
	present, err := facade.InvalidateClientCache(context.Background(), req, "", nil)
	if err != nil {
		t.Fatalf("InvalidateClientCache: %v", err)
	}
	if !present {
		t.Error("InvalidateClientCache reported false, want true for a client that was just cached")
	}
	if _, err := facade.Client(context.Background(), req, "", nil, 0); err != nil {
		t.Fatalf("Client: %v", err)
	}
	if *calls != 2 {
		t.Errorf("factory invoked %d times, want 2 after invalidation", *calls)
	}
}
