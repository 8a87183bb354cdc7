package cachekey

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dchest/siphash"

	"github.com/jonwraymond/clientpool/authctx"
)

// DefaultPrefix is the raw-key prefix used when none is configured.
const DefaultPrefix = "client"

// maxLogRawKeyLen truncates the raw key for log messages, per spec §4.3.
const maxLogRawKeyLen = 50

// Fingerprinter produces a short, stable string summarizing an options value
// for key derivation. A caller-supplied ClientFactory is one example.
type Fingerprinter interface {
	Fingerprint(options any) string
}

// FingerprinterFunc adapts a function to a Fingerprinter.
type FingerprinterFunc func(options any) string

// Fingerprint calls f.
func (f FingerprinterFunc) Fingerprint(options any) string {
	return f(options)
}

// Builder constructs raw keys (spec §4.3) and digests them into stable
// stored keys using two independently-keyed siphash-2-4 passes concatenated
// into a 128-bit digest — grounded on the siphash usage in
// achuala-go-svc-extn's hasher_siphash24.go, generalized from one 64-bit
// pass to two for a wider digest.
//
// A Builder's siphash keys are generated once at construction from
// crypto/rand, so stored keys are not predictable across process restarts;
// this has no bearing on determinism within a single Builder's lifetime,
// which is all spec §8's key-determinism property requires.
type Builder struct {
	prefix string
	keyA   []byte
	keyB   []byte
}

// NewBuilder creates a Builder with the given raw-key prefix. An empty
// prefix falls back to DefaultPrefix.
func NewBuilder(prefix string) (*Builder, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	keys := make([]byte, 32)
	if _, err := rand.Read(keys); err != nil {
		return nil, fmt.Errorf("cachekey: generate siphash keys: %w", err)
	}

	return &Builder{
		prefix: prefix,
		keyA:   keys[:16],
		keyB:   keys[16:],
	}, nil
}

// BuildRaw produces the raw key for authCtx, in the order spec §4.3
// describes: prefix, mode, tenant/user (for non-application modes), then
// either the fingerprint (if non-empty) or a canonical-hash of options (if
// options is non-nil).
func (b *Builder) BuildRaw(authCtx authctx.AuthContext, fingerprint string, options any) (string, error) {
	parts := []string{b.prefix, authCtx.Mode().String()}

	if authCtx.Mode() != authctx.ModeApplication {
		parts = append(parts,
			"tenant:"+authCtx.TenantID(),
			"user:"+authCtx.UserObjectID(),
		)
	}

	switch {
	case fingerprint != "":
		parts = append(parts, "fingerprint:"+fingerprint)
	case options != nil:
		hash, err := CanonicalHash(options)
		if err != nil {
			return "", err
		}
		parts = append(parts, "options:"+hash)
	}

	return strings.Join(parts, "::"), nil
}

// Hash digests raw into the stored, URL-safe base64-encoded key.
func (b *Builder) Hash(raw string) string {
	data := []byte(raw)

	h1 := siphash.New(b.keyA)
	_, _ = h1.Write(data)
	sum1 := h1.Sum(nil)

	h2 := siphash.New(b.keyB)
	_, _ = h2.Write(data)
	sum2 := h2.Sum(nil)

	digest := append(sum1, sum2...)
	return base64.RawURLEncoding.EncodeToString(digest)
}

// Build is the convenience combination of BuildRaw and Hash, returning both
// the stored key and the raw form truncated for logging.
func (b *Builder) Build(authCtx authctx.AuthContext, fingerprint string, options any) (stored string, rawForLog string, err error) {
	raw, err := b.BuildRaw(authCtx, fingerprint, options)
	if err != nil {
		return "", "", err
	}
	return b.Hash(raw), Truncate(raw), nil
}

// Truncate truncates raw to maxLogRawKeyLen characters for log messages
// (spec §4.3).
func Truncate(raw string) string {
	if len(raw) <= maxLogRawKeyLen {
		return raw
	}
	return raw[:maxLogRawKeyLen]
}
