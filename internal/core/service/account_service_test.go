package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelbase/reelbase-api/internal/core/domain"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

type stubUserRepo struct {
	users     map[string]*domain.User
	nextID    int
	updates   int
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Watchlist = append([]domain.WatchlistEntry(nil), u.Watchlist...)
	return &clone
}

func (r *stubUserRepo) conflict(u *domain.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return domain.ErrEmailTaken
		}
		if other.Username == u.Username {
			return domain.ErrUsernameTaken
		}
	}
	return nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if err := r.conflict(user); err != nil {
		return nil, err
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := r.conflict(user); err != nil {
		return err
	}
	r.updates++
	next := cloneUser(user)
	next.Watchlist = stored.Watchlist
	r.users[user.ID] = next
	return nil
}

func (r *stubUserRepo) ConsumeVerificationToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	for _, u := range r.users {
		if u.EmailVerificationToken == nil || *u.EmailVerificationToken != token {
			continue
		}
		if u.EmailVerificationExpires == nil || !u.EmailVerificationExpires.After(now) {
			continue
		}
		confirmEmail(u)
		return cloneUser(u), nil
	}
	return nil, domain.ErrInvalidVerificationToken
}

// confirmEmail mirrors the promotion the Mongo store performs when a token is
// consumed.
func confirmEmail(u *domain.User) {
	if u.HasPendingEmail() {
		u.Email = *u.PendingEmail
		u.PendingEmail = nil
	}
	u.IsEmailVerified = true
	u.ClearVerification()
}

func (r *stubUserRepo) AddToWatchlist(_ context.Context, userID string, entry domain.WatchlistEntry) ([]domain.WatchlistEntry, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	for _, e := range u.Watchlist {
		if e.Key() == entry.Key() {
			return nil, domain.ErrWatchlistDuplicate
		}
	}
	u.Watchlist = append(u.Watchlist, entry)
	return append([]domain.WatchlistEntry(nil), u.Watchlist...), nil
}

func (r *stubUserRepo) RemoveFromWatchlist(_ context.Context, userID, mediaID string) ([]domain.WatchlistEntry, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	kept := u.Watchlist[:0]
	for _, e := range u.Watchlist {
		if e.MediaID != mediaID {
			kept = append(kept, e)
		}
	}
	u.Watchlist = kept
	return append([]domain.WatchlistEntry(nil), kept...), nil
}

type sentMail struct {
	userID  string
	token   string
	address string
}

type stubMailer struct {
	err  error
	sent []sentMail
}

func (m *stubMailer) SendVerification(_ context.Context, user *domain.User, token, address string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{userID: user.ID, token: token, address: address})
	return nil
}

func (m *stubMailer) last(t *testing.T) sentMail {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatalf("expected a verification mail to be sent")
	}
	return m.sent[len(m.sent)-1]
}

type sequenceTokens struct {
	n       int
	expires time.Time
}

func (g *sequenceTokens) Generate() (string, time.Time, error) {
	g.n++
	return fmt.Sprintf("vtok-%d", g.n), g.expires, nil
}

type accountFixture struct {
	svc    *AccountService
	repo   *stubUserRepo
	mailer *stubMailer
	gen    *sequenceTokens
	jwt    *JWTService
	now    time.Time
}

func newAccountFixture() *accountFixture {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &accountFixture{
		repo:   newStubUserRepo(),
		mailer: &stubMailer{},
		gen:    &sequenceTokens{expires: now.Add(24 * time.Hour)},
		jwt:    NewJWTService("secret", time.Hour),
		now:    now,
	}
	f.jwt.now = func() time.Time { return f.now }
	f.svc = NewAccountService(f.repo, f.jwt, f.gen, f.mailer, zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *accountFixture) register(t *testing.T, username, email, password string) *ports.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), ports.RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return res
}

func strPtr(s string) *string { return &s }

func TestAccountService_Register_Success(t *testing.T) {
	f := newAccountFixture()

	res := f.register(t, "alice", "A@X.com", "secret1")

	if res.Message != MsgRegistered {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if res.User.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", res.User.Email)
	}
	if res.User.IsEmailVerified {
		t.Fatalf("new account must start unverified")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if sub, err := f.jwt.Verify(res.Token); err != nil || sub != res.User.ID {
		t.Fatalf("token does not verify to user id: sub=%q err=%v", sub, err)
	}
	mail := f.mailer.last(t)
	if mail.address != "a@x.com" || mail.token != "vtok-1" {
		t.Fatalf("unexpected mail: %+v", mail)
	}
}

func TestAccountService_Register_MailFailureStillSucceeds(t *testing.T) {
	f := newAccountFixture()
	f.mailer.err = errors.New("smtp down")

	res := f.register(t, "alice", "a@x.com", "secret1")

	if res.Message != MsgRegisteredNoMail {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	stored, _ := f.repo.FindByID(context.Background(), res.User.ID)
	if stored.EmailVerificationToken == nil {
		t.Fatalf("expected verification token to be kept for a later resend")
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	f := newAccountFixture()
	cases := []ports.RegisterInput{
		{Username: "al", Email: "a@x.com", Password: "secret1"},
		{Username: "alice", Email: "not-an-email", Password: "secret1"},
		{Username: "alice", Email: "a@x.com", Password: "12345"},
	}
	for _, in := range cases {
		_, err := f.svc.Register(context.Background(), in)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError for %+v, got %v", in, err)
		}
	}
	if len(f.repo.users) != 0 {
		t.Fatalf("invalid registrations must not create accounts")
	}
}

func TestAccountService_Register_Conflicts(t *testing.T) {
	f := newAccountFixture()
	f.register(t, "alice", "a@x.com", "secret1")

	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Email: "A@x.com", Password: "secret1"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Email: "b@x.com", Password: "secret1"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAccountService_Login(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")

	res, err := f.svc.Login(context.Background(), " A@X.COM", "secret1")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Fatalf("logged in as wrong user: %s", res.User.ID)
	}

	_, wrongPass := f.svc.Login(context.Background(), "a@x.com", "nope12")
	_, unknown := f.svc.Login(context.Background(), "ghost@x.com", "secret1")
	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) || !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPass, unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("login failures must be indistinguishable")
	}
}

func TestAccountService_Login_UnverifiedAllowed(t *testing.T) {
	f := newAccountFixture()
	f.register(t, "alice", "a@x.com", "secret1")

	if _, err := f.svc.Login(context.Background(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("unverified accounts must be able to log in: %v", err)
	}
}

func TestAccountService_VerifyEmail(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	token := f.mailer.last(t).token

	res, err := f.svc.VerifyEmail(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}
	if !res.User.IsEmailVerified || res.User.ID != reg.User.ID {
		t.Fatalf("expected verified user, got %+v", res.User)
	}
	if res.Message != MsgEmailVerified {
		t.Fatalf("unexpected message: %q", res.Message)
	}

	if _, err := f.svc.VerifyEmail(context.Background(), token); !errors.Is(err, domain.ErrInvalidVerificationToken) {
		t.Fatalf("token must be single-use, got %v", err)
	}
}

func TestAccountService_VerifyEmail_Expired(t *testing.T) {
	f := newAccountFixture()
	f.register(t, "alice", "a@x.com", "secret1")
	token := f.mailer.last(t).token

	f.now = f.gen.expires

	if _, err := f.svc.VerifyEmail(context.Background(), token); !errors.Is(err, domain.ErrInvalidVerificationToken) {
		t.Fatalf("expected ErrInvalidVerificationToken, got %v", err)
	}
	if _, err := f.svc.VerifyEmail(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidVerificationToken) {
		t.Fatalf("expected ErrInvalidVerificationToken for blank token, got %v", err)
	}
}

func TestAccountService_UpdateProfile_NoFields(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")

	_, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{Username: strPtr("")})
	if !errors.Is(err, domain.ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
}

func TestAccountService_UpdateProfile_UsernameAndPassword(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")

	res, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{
		Username: strPtr("alice2"),
		Password: strPtr("newsecret"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if res.Message != MsgProfileUpdated || res.User.Username != "alice2" {
		t.Fatalf("unexpected result: %q %+v", res.Message, res.User)
	}
	if _, err := f.svc.Login(context.Background(), "a@x.com", "newsecret"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestAccountService_UpdateProfile_Conflicts(t *testing.T) {
	f := newAccountFixture()
	f.register(t, "bob", "b@x.com", "secret1")
	reg := f.register(t, "alice", "a@x.com", "secret1")

	if _, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{Username: strPtr("bob")}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{Email: strPtr("B@x.com")}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAccountService_UpdateProfile_UserNotFound(t *testing.T) {
	f := newAccountFixture()

	if _, err := f.svc.UpdateProfile(context.Background(), "missing", ports.UpdateProfileInput{Username: strPtr("x_name")}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAccountService_EmailChangeFlow(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	if _, err := f.svc.VerifyEmail(context.Background(), f.mailer.last(t).token); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	res, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{Email: strPtr("new@x.com")})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if res.Message != MsgPendingEmail {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if res.User.Email != "a@x.com" || !res.User.HasPendingEmail() || *res.User.PendingEmail != "new@x.com" {
		t.Fatalf("email must stay until confirmed: %+v", res.User)
	}
	mail := f.mailer.last(t)
	if mail.address != "new@x.com" {
		t.Fatalf("verification must go to the pending address, got %q", mail.address)
	}

	// The old address keeps working until the change is confirmed.
	if _, err := f.svc.Login(context.Background(), "a@x.com", "secret1"); err != nil {
		t.Fatalf("login with current email: %v", err)
	}

	verified, err := f.svc.VerifyEmail(context.Background(), mail.token)
	if err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}
	if verified.User.Email != "new@x.com" || verified.User.HasPendingEmail() || !verified.User.IsEmailVerified {
		t.Fatalf("pending email not promoted: %+v", verified.User)
	}
	if _, err := f.svc.Login(context.Background(), "a@x.com", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old address must stop working, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "new@x.com", "secret1"); err != nil {
		t.Fatalf("login with new email: %v", err)
	}
}

func TestAccountService_EmailChange_MailFailureRollsBack(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{
		Username: strPtr("alice2"),
		Email:    strPtr("new@x.com"),
	})
	if !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), reg.User.ID)
	if stored.HasPendingEmail() || stored.EmailVerificationToken != nil {
		t.Fatalf("pending change must be rolled back: %+v", stored)
	}
	if stored.Email != "a@x.com" || stored.Username != "alice" {
		t.Fatalf("account must be left unchanged: %+v", stored)
	}
}

func TestAccountService_EmailChange_SaveFailureSendsNoMail(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	sent := len(f.mailer.sent)
	f.repo.updateErr = domain.ErrUsernameTaken

	_, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{
		Username: strPtr("alice2"),
		Email:    strPtr("new@x.com"),
	})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if len(f.mailer.sent) != sent {
		t.Fatalf("no link may be mailed for a token that was never stored")
	}
}

func TestAccountService_EmailChange_SameAddressIsNoop(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	sent := len(f.mailer.sent)

	res, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{Email: strPtr("A@x.com")})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if res.Message != MsgProfileUpdated || res.User.HasPendingEmail() {
		t.Fatalf("unexpected result: %q %+v", res.Message, res.User)
	}
	if len(f.mailer.sent) != sent {
		t.Fatalf("no mail expected for an unchanged address")
	}
}

func TestAccountService_ResendVerification(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	first := f.mailer.last(t).token

	msg, err := f.svc.ResendVerification(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("ResendVerification returned error: %v", err)
	}
	if msg != MsgVerificationSent {
		t.Fatalf("unexpected message: %q", msg)
	}
	second := f.mailer.last(t).token
	if second == first {
		t.Fatalf("expected a fresh token")
	}
	if _, err := f.svc.VerifyEmail(context.Background(), first); !errors.Is(err, domain.ErrInvalidVerificationToken) {
		t.Fatalf("replaced token must be rejected, got %v", err)
	}
	if _, err := f.svc.VerifyEmail(context.Background(), second); err != nil {
		t.Fatalf("fresh token must verify: %v", err)
	}

	if _, err := f.svc.ResendVerification(context.Background(), reg.User.ID); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestAccountService_ResendVerification_PendingTarget(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	if _, err := f.svc.VerifyEmail(context.Background(), f.mailer.last(t).token); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}
	if _, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, ports.UpdateProfileInput{Email: strPtr("new@x.com")}); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	if _, err := f.svc.ResendVerification(context.Background(), reg.User.ID); err != nil {
		t.Fatalf("verified account with pending email must be able to resend: %v", err)
	}
	if got := f.mailer.last(t).address; got != "new@x.com" {
		t.Fatalf("expected mail to pending address, got %q", got)
	}
}

func TestAccountService_ResendVerification_MailFailure(t *testing.T) {
	f := newAccountFixture()
	reg := f.register(t, "alice", "a@x.com", "secret1")
	f.mailer.err = errors.New("smtp down")

	if _, err := f.svc.ResendVerification(context.Background(), reg.User.ID); !errors.Is(err, domain.ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}
}
