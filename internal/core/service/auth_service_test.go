package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/password"
	"github.com/99minutos/identity-api/internal/token"
)

type stubDirectory struct {
	users   map[string]*domain.User // keyed by email
	updates map[string]string       // id -> new hash
	err     error
}

func newStubDirectory(users ...*domain.User) *stubDirectory {
	d := &stubDirectory{users: make(map[string]*domain.User), updates: make(map[string]string)}
	for _, u := range users {
		d.users[u.Email] = u
	}
	return d
}

func (d *stubDirectory) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (d *stubDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *stubDirectory) FindByID(_ context.Context, id string) (*domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (d *stubDirectory) UpdatePassword(_ context.Context, id, hash string) error {
	if d.err != nil {
		return d.err
	}
	d.updates[id] = hash
	return nil
}

type storedEntry struct {
	value string
	ttl   time.Duration
}

type stubStore struct {
	entries map[string]storedEntry
	err     error
}

func newStubStore() *stubStore {
	return &stubStore{entries: make(map[string]storedEntry)}
}

func (s *stubStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.entries[key] = storedEntry{value: value, ttl: ttl}
	return nil
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	e, ok := s.entries[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return e.value, nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.entries, key)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type stubNotifier struct {
	sent []sentMail
	err  error
}

func (n *stubNotifier) Send(_ context.Context, to, subject, body string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fixture struct {
	svc      *AuthService
	dir      *stubDirectory
	store    *stubStore
	notifier *stubNotifier
	codec    *token.Codec
}

func newFixture(t *testing.T, users ...*domain.User) *fixture {
	t.Helper()
	dir := newStubDirectory(users...)
	store := newStubStore()
	notifier := &stubNotifier{}
	codec := token.NewCodec("secret")
	svc := NewAuthService(dir, store, codec, notifier, "https://demo.com/reset-password", zerolog.New(io.Discard))
	return &fixture{svc: svc, dir: dir, store: store, notifier: notifier, codec: codec}
}

func verifiedUser(t *testing.T, pw string) *domain.User {
	t.Helper()
	hash, err := password.Hash(pw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &domain.User{
		ID:           "user_1",
		Email:        "a@x.com",
		Username:     "alice",
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsVerified:   true,
	}
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	pending, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := f.codec.Verify(pending, domain.PurposePending)
	if err != nil {
		t.Fatalf("expected pending-purpose token, got verify error: %v", err)
	}
	if claims.UserID != "user_1" || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	entry, ok := f.store.entries["a@x.com"]
	if !ok {
		t.Fatalf("no otp stored under email")
	}
	if len(entry.value) != 6 {
		t.Fatalf("otp is not 6 digits: %q", entry.value)
	}
	if entry.ttl != 60*time.Second {
		t.Fatalf("otp ttl = %v, want 60s", entry.ttl)
	}

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(f.notifier.sent))
	}
	mail := f.notifier.sent[0]
	if mail.to != "a@x.com" || mail.subject != "Your OTP Code" {
		t.Fatalf("unexpected mail: %+v", mail)
	}
}

func TestLogin_UnifiedRejection(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	unverified := verifiedUser(t, "secret")
	unverified.ID = "user_2"
	unverified.Email = "b@x.com"
	unverified.Username = "bob"
	unverified.IsVerified = false
	f.dir.users[unverified.Email] = unverified

	cases := map[string]struct{ email, pw string }{
		"wrong password":     {"a@x.com", "not-it"},
		"unknown email":      {"ghost@x.com", "secret"},
		"unverified account": {"b@x.com", "secret"},
	}
	for name, tc := range cases {
		if _, err := f.svc.Login(context.Background(), tc.email, tc.pw); err != domain.ErrInvalidCredentials {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}

	if len(f.notifier.sent) != 0 {
		t.Fatalf("rejected logins must not send mail")
	}
}

func TestLogin_DirectoryFailureIsNotAccessDenied(t *testing.T) {
	f := newFixture(t)
	f.dir.err = errors.New("directory unreachable")

	_, err := f.svc.Login(context.Background(), "a@x.com", "secret")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("infrastructure failure must not surface as invalid credentials, got %v", err)
	}
}

func TestLogin_OverwritesPriorOTP(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	if _, err := f.svc.Login(context.Background(), "a@x.com", "secret"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "a@x.com", "secret"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if len(f.store.entries) != 1 {
		t.Fatalf("expected exactly one live otp entry, got %d", len(f.store.entries))
	}
	if len(f.notifier.sent) != 2 {
		t.Fatalf("expected two mails, got %d", len(f.notifier.sent))
	}

	// The stored code is the one from the second mail.
	latest := f.store.entries["a@x.com"].value
	if !strings.Contains(f.notifier.sent[1].body, latest) {
		t.Fatalf("stored otp %q is not the most recently mailed code", latest)
	}
}

func TestVerifyOTP_SuccessAndSingleUse(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	if _, err := f.svc.Login(context.Background(), "a@x.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	code := f.store.entries["a@x.com"].value

	session, err := f.svc.VerifyOTP(context.Background(), "a@x.com", code)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if _, err := f.codec.Verify(session, domain.PurposeSession); err != nil {
		t.Fatalf("expected session-purpose token: %v", err)
	}
	if _, ok := f.store.entries["a@x.com"]; ok {
		t.Fatalf("otp entry not consumed")
	}

	// Replay of the just-used code.
	if _, err := f.svc.VerifyOTP(context.Background(), "a@x.com", code); err != domain.ErrInvalidOTP {
		t.Fatalf("expected ErrInvalidOTP on replay, got %v", err)
	}
}

func TestVerifyOTP_Mismatch(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))
	f.store.entries["a@x.com"] = storedEntry{value: "654321", ttl: otpTTL}

	if _, err := f.svc.VerifyOTP(context.Background(), "a@x.com", "123456"); err != domain.ErrInvalidOTP {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
}

func TestVerifyOTP_NeverIssued(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	if _, err := f.svc.VerifyOTP(context.Background(), "a@x.com", "123456"); err != domain.ErrInvalidOTP {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
}

func TestRequestOTP_KeyedByEmail(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	if err := f.svc.RequestOTP(context.Background(), "alice"); err != nil {
		t.Fatalf("request otp: %v", err)
	}

	entry, ok := f.store.entries["a@x.com"]
	if !ok {
		t.Fatalf("otp not stored under the user's email")
	}
	if entry.ttl != 60*time.Second {
		t.Fatalf("otp ttl = %v, want 60s", entry.ttl)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].to != "a@x.com" {
		t.Fatalf("otp not mailed to the user's email: %+v", f.notifier.sent)
	}
}

func TestRequestOTP_UnknownUsername(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.RequestOTP(context.Background(), "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	session, err := f.codec.Sign(domain.Claims{UserID: "user_1", Email: "a@x.com"}, domain.PurposeSession, domain.SessionTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := f.svc.Authenticate(context.Background(), session, domain.PurposeSession); err != nil {
		t.Fatalf("token should be valid before logout: %v", err)
	}

	if err := f.svc.Logout(context.Background(), session); err != nil {
		t.Fatalf("logout: %v", err)
	}

	entry, ok := f.store.entries[blacklistPrefix+session]
	if !ok {
		t.Fatalf("no blacklist entry written")
	}
	if entry.ttl != time.Hour {
		t.Fatalf("blacklist ttl = %v, want 1h", entry.ttl)
	}

	if _, err := f.svc.Authenticate(context.Background(), session, domain.PurposeSession); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestLogout_ArbitraryString(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.Logout(context.Background(), "not-even-a-token"); err != nil {
		t.Fatalf("logout must accept any string: %v", err)
	}
}

func TestAuthenticate_PurposeScoping(t *testing.T) {
	f := newFixture(t)

	pending, err := f.codec.Sign(domain.Claims{UserID: "user_1"}, domain.PurposePending, domain.PendingTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := f.svc.Authenticate(context.Background(), pending, domain.PurposePending, domain.PurposeSession); err != nil {
		t.Fatalf("pending token should pass when pending is allowed: %v", err)
	}
	if _, err := f.svc.Authenticate(context.Background(), pending, domain.PurposeSession); err != domain.ErrInvalidToken {
		t.Fatalf("pending token must not pass a session-only check, got %v", err)
	}
}

func TestAuthenticate_StoreFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("store unreachable")

	session, err := f.codec.Sign(domain.Claims{UserID: "user_1"}, domain.PurposeSession, domain.SessionTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = f.svc.Authenticate(context.Background(), session, domain.PurposeSession)
	if err == nil || errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("store failure must not surface as invalid token, got %v", err)
	}
}
