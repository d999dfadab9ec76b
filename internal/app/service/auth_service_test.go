package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shrinker-io/shrinker/internal/app/model"
	"github.com/shrinker-io/shrinker/internal/app/repository"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	nextID  int64
	byEmail map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.byEmail[user.Email] = &stored
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if user, ok := f.byEmail[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrUserNotFound
}

func newTestAuthService(users repository.UserRepository) *AuthService {
	svc := NewAuthService(users, []byte("test-secret"), time.Minute, nil)
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestAuthService_SignupLoginRoundtrip(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())

	user, token, err := svc.Signup(context.Background(), "owner@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.ID == 0 || token == "" {
		t.Fatalf("expected assigned id and token, got id=%d token=%q", user.ID, token)
	}

	loggedIn, loginToken, err := svc.Login(context.Background(), "owner@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("login resolved to user %d, want %d", loggedIn.ID, user.ID)
	}

	gotID, err := svc.Authenticate(loginToken)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if gotID != user.ID {
		t.Fatalf("token resolved to user %d, want %d", gotID, user.ID)
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())
	if _, _, err := svc.Signup(context.Background(), "owner@example.com", "correct horse"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "owner@example.com", "wrong horse")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// Unknown email must be indistinguishable from a wrong password.
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "whatever!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthService_SignupDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())
	if _, _, err := svc.Signup(context.Background(), "owner@example.com", "correct horse"); err != nil {
		t.Fatalf("first Signup: %v", err)
	}

	_, _, err := svc.Signup(context.Background(), "owner@example.com", "another pass")
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthService_SignupValidatesBeforeStore(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())

	if _, _, err := svc.Signup(context.Background(), "not-an-email", "long enough"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), "owner@example.com", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestAuthService_AuthenticateRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Authenticate(bad); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Authenticate(%q) error = %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestAuthService_AuthenticateRejectsForeignSignature(t *testing.T) {
	issuer := newTestAuthService(newFakeUserStore())
	_, token, err := issuer.Signup(context.Background(), "owner@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	verifier := NewAuthService(newFakeUserStore(), []byte("different-secret"), time.Minute, nil)
	if _, err := verifier.Authenticate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken across secrets, got %v", err)
	}
}
