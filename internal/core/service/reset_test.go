package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/password"
)

func extractResetToken(t *testing.T, body string) string {
	t.Helper()
	idx := strings.Index(body, "?token=")
	if idx < 0 {
		t.Fatalf("no reset link in body: %q", body)
	}
	rest := body[idx+len("?token="):]
	if end := strings.IndexAny(rest, "\n "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestSendPasswordResetEmail_SessionAuthenticated(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	session, err := f.codec.Sign(domain.Claims{UserID: "user_1", Email: "a@x.com"}, domain.PurposeSession, domain.SessionTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := f.svc.SendPasswordResetEmail(context.Background(), session); err != nil {
		t.Fatalf("send reset email: %v", err)
	}

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(f.notifier.sent))
	}
	mail := f.notifier.sent[0]
	if mail.to != "a@x.com" || mail.subject != "Password Reset Request" {
		t.Fatalf("unexpected mail: to=%s subject=%s", mail.to, mail.subject)
	}

	resetToken := extractResetToken(t, mail.body)
	if _, err := f.codec.Verify(resetToken, domain.PurposeReset); err != nil {
		t.Fatalf("mailed token is not a valid reset token: %v", err)
	}
}

func TestSendPasswordResetEmail_RejectsNonSessionTokens(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	pending, err := f.codec.Sign(domain.Claims{UserID: "user_1"}, domain.PurposePending, domain.PendingTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := f.svc.SendPasswordResetEmail(context.Background(), pending); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := f.svc.SendPasswordResetEmail(context.Background(), "garbage"); err != domain.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSendResetPasswordEmail_KnownEmail(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	if err := f.svc.SendResetPasswordEmail(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	if len(f.notifier.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(f.notifier.sent))
	}
	resetToken := extractResetToken(t, f.notifier.sent[0].body)
	if _, err := f.codec.Verify(resetToken, domain.PurposeReset); err != nil {
		t.Fatalf("mailed token is not a valid reset token: %v", err)
	}
}

func TestSendResetPasswordEmail_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.SendResetPasswordEmail(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Fatalf("no mail should be sent for unknown email")
	}
}

func TestSendResetPasswordEmail_DirectoryFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.dir.err = errors.New("directory unreachable")

	if err := f.svc.SendResetPasswordEmail(context.Background(), "a@x.com"); err == nil {
		t.Fatalf("infrastructure failure must surface")
	}
}

func TestResetPassword_SuccessThenReplayFails(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "old-pass"))

	resetToken, err := f.codec.Sign(domain.Claims{UserID: "user_1", Email: "a@x.com"}, domain.PurposeReset, domain.ResetTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := f.svc.ResetPassword(context.Background(), resetToken, "new-pass"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	hash, ok := f.dir.updates["user_1"]
	if !ok {
		t.Fatalf("directory never received the new hash")
	}
	if !password.Matches("new-pass", hash) {
		t.Fatalf("stored hash does not match the new password")
	}

	if err := f.svc.ResetPassword(context.Background(), resetToken, "another"); err != domain.ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken on replay, got %v", err)
	}
	if len(f.dir.updates) != 1 {
		t.Fatalf("replay must not update the password again")
	}
}

func TestResetPassword_RejectsBadTokens(t *testing.T) {
	f := newFixture(t, verifiedUser(t, "secret"))

	expired, err := f.codec.Sign(domain.Claims{UserID: "user_1"}, domain.PurposeReset, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	session, err := f.codec.Sign(domain.Claims{UserID: "user_1"}, domain.PurposeSession, domain.SessionTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, tok := range map[string]string{
		"expired":       expired,
		"wrong purpose": session,
		"malformed":     "garbage",
	} {
		if err := f.svc.ResetPassword(context.Background(), tok, "new-pass"); err != domain.ErrInvalidResetToken {
			t.Fatalf("%s: expected ErrInvalidResetToken, got %v", name, err)
		}
	}
	if len(f.dir.updates) != 0 {
		t.Fatalf("no password update should have happened")
	}
}

func TestResetPassword_MissingIdentity(t *testing.T) {
	f := newFixture(t)

	resetToken, err := f.codec.Sign(domain.Claims{UserID: "gone"}, domain.PurposeReset, domain.ResetTokenTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := f.svc.ResetPassword(context.Background(), resetToken, "new-pass"); err != domain.ErrInvalidResetToken {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}
