package account

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ai-financer/internal/config"
	"ai-financer/internal/database"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := database.InitRemote(config.RemoteConfig{DSN: filepath.Join(t.TempDir(), "remote.db")})
	if err != nil {
		t.Fatalf("init remote db: %v", err)
	}
	if err := database.MigrateRemote(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	s := NewService(db, config.JWTConfig{Secret: "test-secret", Issuer: "test"}, zerolog.Nop())
	s.BcryptCost = bcrypt.MinCost
	return s
}

func TestSignUpSignInVerify(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	g, err := s.SignUp(ctx, "  Asha@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if g.UID == "" || g.Token == "" || g.Email != "asha@example.com" || g.DisplayName != "asha" {
		t.Errorf("unexpected grant %+v", g)
	}

	if _, err := s.SignUp(ctx, "asha@example.com", "another1"); !errors.Is(err, ErrEmailInUse) {
		t.Errorf("duplicate SignUp error = %v, want ErrEmailInUse", err)
	}

	g2, err := s.SignIn(ctx, "ASHA@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if g2.UID != g.UID {
		t.Errorf("SignIn uid = %s, want %s", g2.UID, g.UID)
	}

	uid, err := s.Verify(ctx, g2.Token)
	if err != nil || uid != g.UID {
		t.Errorf("Verify = %q, %v", uid, err)
	}
}

func TestSignInErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, _ = s.SignUp(ctx, "ravi@example.com", "secret1")

	cases := []struct {
		email, password string
		want            error
	}{
		{"not-an-email", "secret1", ErrInvalidEmail},
		{"ravi@example.com", "123", ErrWeakPassword},
		{"nobody@example.com", "secret1", ErrUserNotFound},
		{"ravi@example.com", "wrong-password", ErrWrongPassword},
	}
	for _, tc := range cases {
		if _, err := s.SignIn(ctx, tc.email, tc.password); !errors.Is(err, tc.want) {
			t.Errorf("SignIn(%q) error = %v, want %v", tc.email, err, tc.want)
		}
	}
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	s := newTestService(t)
	if _, err := s.Verify(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(garbage) error = %v, want ErrInvalidToken", err)
	}
}

func TestProfileChanges(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	g, err := s.SignUp(ctx, "ravi@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	acc, err := s.UpdateDisplayName(ctx, g.UID, "  Ravi K ")
	if err != nil || acc.DisplayName != "Ravi K" {
		t.Fatalf("UpdateDisplayName = %+v, %v", acc, err)
	}
	if _, err := s.UpdateDisplayName(ctx, "missing", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown uid err = %v", err)
	}

	if err := s.ChangePassword(ctx, g.UID, "wrong1", "secret2"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong old password err = %v", err)
	}
	if err := s.ChangePassword(ctx, g.UID, "secret1", "123"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password err = %v", err)
	}
	if err := s.ChangePassword(ctx, g.UID, "secret1", "secret2"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := s.SignIn(ctx, "ravi@example.com", "secret2"); err != nil {
		t.Errorf("sign in with new password: %v", err)
	}
}

func TestSignUpConcurrentSameEmail(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.SignUp(ctx, "meera@example.com", "secret1")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, ErrEmailInUse):
			t.Errorf("concurrent SignUp error = %v, want ErrEmailInUse", err)
		}
	}
	if ok != 1 {
		t.Errorf("%d sign-ups succeeded, want 1", ok)
	}
}

func TestSignInLogsFailedLastLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	g, err := s.SignUp(ctx, "ravi@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	s.Log = zerolog.New(&buf)
	if err := s.DB.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("disk full"))
	}); err != nil {
		t.Fatal(err)
	}

	g2, err := s.SignIn(ctx, "ravi@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if g2.UID != g.UID {
		t.Errorf("SignIn uid = %s, want %s", g2.UID, g.UID)
	}
	if out := buf.String(); !strings.Contains(out, "record last login") || !strings.Contains(out, "disk full") {
		t.Errorf("log output = %q", out)
	}
}
