package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalid indicates the token is malformed, carries a bad signature or
	// does not describe exactly one stage.
	ErrInvalid = errors.New("invalid token")

	// ErrExpired indicates the token signature is valid but its lifetime ended.
	ErrExpired = errors.New("token has expired")
)

// claims is the wire form of every stage token.
type claims struct {
	VerificationToken bool   `json:"verification_token,omitempty"`
	VerificationCode  string `json:"verification_code,omitempty"`
	VerifiedToken     bool   `json:"verified_token,omitempty"`
	UserAccessToken   bool   `json:"user_access_token,omitempty"`
	UserID            int64  `json:"user_id,omitempty"`
	RoleAccessToken   bool   `json:"role_access_token,omitempty"`
	RoleID            int64  `json:"role_id,omitempty"`
	jwt.RegisteredClaims
}

// Config configures a Service.
type Config struct {
	Secret          string
	AccessTTL       time.Duration
	VerificationTTL time.Duration
	Now             func() time.Time
}

// Service signs and decodes stage tokens with HS256.
type Service struct {
	key             []byte
	accessTTL       time.Duration
	verificationTTL time.Duration
	now             func() time.Time
}

// NewService creates a Service. The secret must not be empty.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token signing secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = 4 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		key:             []byte(cfg.Secret),
		accessTTL:       cfg.AccessTTL,
		verificationTTL: cfg.VerificationTTL,
		now:             cfg.Now,
	}, nil
}

// Now returns the service clock in UTC.
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// IssueVerification signs a verification token embedding code.
func (s *Service) IssueVerification(email string, code int) (string, error) {
	if code < MinVerificationCode || code > MaxVerificationCode {
		return "", fmt.Errorf("verification code %d out of range", code)
	}
	return s.sign(email, s.verificationTTL, claims{VerificationToken: true, VerificationCode: s.codeMAC(email, code)})
}

// CheckCode reports whether code is the one v was issued for.
func (s *Service) CheckCode(v *Verification, code int) bool {
	if v == nil || code < MinVerificationCode || code > MaxVerificationCode {
		return false
	}
	want, err := base64.RawURLEncoding.DecodeString(v.CodeMAC)
	if err != nil {
		return false
	}
	got, _ := base64.RawURLEncoding.DecodeString(s.codeMAC(v.Subject, code))
	return hmac.Equal(got, want)
}

// codeMAC binds a code to its subject. Tokens are only signed, so the code
// itself never appears in the payload.
func (s *Service) codeMAC(subject string, code int) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "verification:%s:%06d", strings.TrimSpace(subject), code)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// IssueVerified signs a token proving control of email.
func (s *Service) IssueVerified(email string) (string, error) {
	return s.sign(email, s.accessTTL, claims{VerifiedToken: true})
}

// IssueUser signs a user session token.
func (s *Service) IssueUser(email string, userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("user id %d is not valid", userID)
	}
	return s.sign(email, s.accessTTL, claims{UserAccessToken: true, UserID: userID})
}

// IssueRole signs a role session token. It also carries the user stage flag.
func (s *Service) IssueRole(email string, userID, roleID int64) (string, error) {
	if userID <= 0 || roleID <= 0 {
		return "", fmt.Errorf("user id %d and role id %d must be positive", userID, roleID)
	}
	return s.sign(email, s.accessTTL, claims{UserAccessToken: true, UserID: userID, RoleAccessToken: true, RoleID: roleID})
}

func (s *Service) sign(subject string, ttl time.Duration, c claims) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := s.Now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of raw and returns the typed token.
func (s *Service) Decode(raw string) (Token, error) {
	return s.decode(raw, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.Now))
}

// DecodeIgnoringExpiry verifies only the signature and shape of raw. It is
// used where an expired token is acceptable input, such as logout.
func (s *Service) DecodeIgnoringExpiry(raw string) (Token, error) {
	return s.decode(raw, jwt.WithoutClaimsValidation())
}

func (s *Service) decode(raw string, opts ...jwt.ParserOption) (Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalid)
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return c.typed()
}

// typed converts wire claims into exactly one stage type.
func (c *claims) typed() (Token, error) {
	if strings.TrimSpace(c.Subject) == "" || c.ID == "" || c.ExpiresAt == nil || c.IssuedAt == nil {
		return nil, fmt.Errorf("%w: registered claims missing", ErrInvalid)
	}
	meta := Meta{
		ID:        c.ID,
		Subject:   c.Subject,
		IssuedAt:  c.IssuedAt.Time.UTC(),
		ExpiresAt: c.ExpiresAt.Time.UTC(),
	}

	flags := 0
	for _, set := range []bool{c.VerificationToken, c.VerifiedToken, c.UserAccessToken && !c.RoleAccessToken, c.RoleAccessToken} {
		if set {
			flags++
		}
	}
	if flags != 1 {
		return nil, fmt.Errorf("%w: token must carry exactly one stage", ErrInvalid)
	}

	switch {
	case c.VerificationToken:
		if c.VerificationCode == "" {
			return nil, fmt.Errorf("%w: verification code missing", ErrInvalid)
		}
		return &Verification{Meta: meta, CodeMAC: c.VerificationCode}, nil
	case c.VerifiedToken:
		return &Verified{Meta: meta}, nil
	case c.RoleAccessToken:
		if !c.UserAccessToken || c.UserID <= 0 || c.RoleID <= 0 {
			return nil, fmt.Errorf("%w: role token missing user or role id", ErrInvalid)
		}
		return &Role{Meta: meta, UserID: c.UserID, RoleID: c.RoleID}, nil
	default:
		if c.UserID <= 0 {
			return nil, fmt.Errorf("%w: user token missing user id", ErrInvalid)
		}
		return &User{Meta: meta, UserID: c.UserID}, nil
	}
}
