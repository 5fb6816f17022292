package token

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	svc, err := New(key)
	require.NoError(t, err)
	return svc, key
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	tok, err := svc.SignServer("testproto", "localhost:8089", time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "testproto", claims.Subject)
	require.Equal(t, "localhost:8089", claims.UserName)
	require.True(t, claims.IsServerToken())
}

func TestSignClientProducesClientSubject(t *testing.T) {
	svc, _ := newTestService(t)

	tok, err := svc.SignClient("testproto", 6*time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "client", claims.UserName)
	require.False(t, claims.IsServerToken())
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Verify("")
	require.ErrorIs(t, err, ErrEmptyToken)
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Verify("not-a-jws")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyRejectsWrongSigningKey(t *testing.T) {
	svc, _ := newTestService(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherSvc, err := New(other)
	require.NoError(t, err)

	tok, err := otherSvc.SignServer("p", "u", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(tok)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc, _ := newTestService(t)

	base := time.Now().UTC()
	svc.now = func() time.Time { return base }

	tok, err := svc.SignServer("p", "u", time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(time.Minute + 2*clockSkewTolerance) }
	_, err = svc.Verify(tok)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyAcceptsWithinSkewTolerance(t *testing.T) {
	svc, _ := newTestService(t)

	base := time.Now().UTC()
	svc.now = func() time.Time { return base }

	tok, err := svc.SignServer("p", "u", time.Minute)
	require.NoError(t, err)

	// Just past expiry but still within the 15-minute tolerance window.
	svc.now = func() time.Time { return base.Add(time.Minute + 5*time.Minute) }
	claims, err := svc.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "p", claims.Subject)
}

func TestVerifyRejectsTokenOlderThanMaxAge(t *testing.T) {
	svc, _ := newTestService(t)

	base := time.Now().UTC()
	svc.now = func() time.Time { return base }

	// ttl long enough that exp does not trip first, so the max-age check
	// is the one that fires.
	tok, err := svc.SignServer("p", "u", 24*time.Hour)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(90 * time.Minute) }
	_, err = svc.Verify(tok)
	require.ErrorIs(t, err, ErrTooOld)
}

func TestVerifyAcceptsNotYetValidWithinTolerance(t *testing.T) {
	svc, _ := newTestService(t)

	base := time.Now().UTC()
	svc.now = func() time.Time { return base }

	tok, err := svc.SignServer("p", "u", time.Hour)
	require.NoError(t, err)

	// Pretend the verifier's clock is 10 minutes behind the signer's.
	svc.now = func() time.Time { return base.Add(-10 * time.Minute) }
	_, err = svc.Verify(tok)
	require.NoError(t, err)
}
