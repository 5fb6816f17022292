// Package token signs and verifies the short-lived bearer tokens that bind
// a principal identity, an interface name, and an endpoint URL. Tokens are
// compact-serialized JWS, signed with the registry's RSA key, in the same
// style dexidp/dex signs its ID tokens (see server/oauth2.go's
// signPayload and signer/signer.go's verification path).
package token

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jose "gopkg.in/square/go-jose.v2"
)

// clockSkewTolerance allows a token to be accepted up to this long before
// its issue time or after its expiry, per spec section 4.A.
const clockSkewTolerance = 15 * time.Minute

// maxTokenAge rejects tokens whose issue time is further in the past than
// this, regardless of their stated expiry.
const maxTokenAge = 60 * time.Minute

// clientUser is the literal user_name carried by client tokens (§4.A).
const clientUser = "client"

// Claims is the signed payload. Field names mirror the original
// implementation's claim shape (subject/user_name/user_is_admin/
// user_country/exp) so a captured token looks the way the source's did.
type Claims struct {
	Subject     string `json:"sub"`
	UserName    string `json:"user_name"`
	UserIsAdmin bool   `json:"user_is_admin"`
	UserCountry string `json:"user_country"`
	IssuedAt    int64  `json:"iat"`
	Expiry      int64  `json:"exp"`
}

// IsServerToken reports whether the claims identify a provider endpoint
// rather than a discovering client.
func (c Claims) IsServerToken() bool {
	return c.UserName != clientUser
}

// Service signs and verifies tokens against a single RSA key pair. It
// holds no mutable state and is safe for concurrent use.
type Service struct {
	signer jose.Signer
	public *rsa.PublicKey

	// now is overridable in tests.
	now func() time.Time
}

// New builds a token Service from an RSA key pair. The private half signs
// new tokens; the public half verifies them.
func New(key *rsa.PrivateKey) (*Service, error) {
	signingKey := jose.SigningKey{Algorithm: jose.RS256, Key: key}
	signer, err := jose.NewSigner(signingKey, &jose.SignerOptions{})
	if err != nil {
		return nil, fmt.Errorf("token: new signer: %w", err)
	}
	return &Service{
		signer: signer,
		public: &key.PublicKey,
		now:    time.Now,
	}, nil
}

// Sign mints a token for the given subject (interface name) and user_name
// (an endpoint URL, or the literal "client"), valid from now until
// now+ttl.
func (s *Service) Sign(subject, userName string, admin bool, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Subject:     subject,
		UserName:    userName,
		UserIsAdmin: admin,
		UserCountry: "US",
		IssuedAt:    now.Unix(),
		Expiry:      now.Add(ttl).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("token: marshal claims: %w", err)
	}

	jws, err := s.signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("token: sign payload: %w", err)
	}

	return jws.CompactSerialize()
}

// SignClient mints a client (discovery) token for the named interface.
func (s *Service) SignClient(interfaceName string, ttl time.Duration) (string, error) {
	return s.Sign(interfaceName, clientUser, false, ttl)
}

// SignServer mints a server (provider) token binding the named interface
// to the given endpoint URL.
func (s *Service) SignServer(interfaceName, url string, ttl time.Duration) (string, error) {
	return s.Sign(interfaceName, url, false, ttl)
}

// ErrEmptyToken, ErrMalformed, ErrExpired and ErrTooOld classify why
// Verify rejected a token. The handlers in internal/registry do not
// branch on them: every Verify failure is reported as AUTHERROR.
var (
	ErrEmptyToken = errors.New("token: empty token")
	ErrMalformed  = errors.New("token: malformed token")
	ErrExpired    = errors.New("token: expired or not yet valid")
	ErrTooOld     = errors.New("token: issued too long ago")
)

// Verify parses and validates a compact JWS, returning its claims. It
// rejects tokens that are empty, malformed, signed by a different key,
// past expiry outside the clock-skew tolerance, or older than
// maxTokenAge. Tokens that are not yet valid are accepted within the
// tolerance window (accept_future semantics, matching the original
// implementation).
func (s *Service) Verify(rawToken string) (Claims, error) {
	if rawToken == "" {
		return Claims{}, ErrEmptyToken
	}

	jws, err := jose.ParseSigned(rawToken)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	payload, err := jws.Verify(s.public)
	if err != nil {
		return Claims{}, fmt.Errorf("token: verify signature: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	now := s.now().UTC()
	issuedAt := time.Unix(claims.IssuedAt, 0)
	expiry := time.Unix(claims.Expiry, 0)

	if now.Before(issuedAt.Add(-clockSkewTolerance)) {
		// Not valid yet, and outside the tolerance that lets a
		// slightly-fast clock through.
		return Claims{}, ErrExpired
	}
	if now.After(expiry.Add(clockSkewTolerance)) {
		return Claims{}, ErrExpired
	}
	if now.Sub(issuedAt) > maxTokenAge {
		return Claims{}, ErrTooOld
	}

	return claims, nil
}
