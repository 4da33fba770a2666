package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sashaspath/backend/internal/requestdata"
	"github.com/sashaspath/backend/internal/types"
)

type fakeUserRepo struct {
	byEmail map[string]*types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*types.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error) {
	for _, u := range rows {
		f.byEmail[u.Email] = u
	}
	return rows, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	for _, u := range f.byEmail {
		for _, id := range ids {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) GetOrCreateByEmail(ctx context.Context, tx *gorm.DB, email, displayName string) (*types.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	u := &types.User{ID: uuid.New(), Email: email, DisplayName: displayName}
	f.byEmail[email] = u
	return u, nil
}

func TestAuth_TokenRoundTrip(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(testLogger(), users, "test-secret", time.Hour)
	ctx := context.Background()

	token, user, err := svc.Login(ctx, "sasha@example.com", "Sasha")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	authedCtx, err := svc.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("expected request data for %s, got %+v", user.ID, rd)
	}
	if rd.IsAdmin {
		t.Fatalf("expected non-admin")
	}
}

func TestAuth_AdminFlagCarriesThroughToken(t *testing.T) {
	users := newFakeUserRepo()
	users.byEmail["admin@example.com"] = &types.User{ID: uuid.New(), Email: "admin@example.com", IsAdmin: true}
	svc := NewAuthService(testLogger(), users, "test-secret", time.Hour)

	token, _, err := svc.Login(context.Background(), "admin@example.com", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	ctx, err := svc.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rd := requestdata.GetRequestData(ctx); rd == nil || !rd.IsAdmin {
		t.Fatalf("expected admin request data")
	}
}

func TestAuth_RejectsForgedAndExpiredTokens(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(testLogger(), users, "test-secret", time.Hour)
	other := NewAuthService(testLogger(), users, "other-secret", time.Hour)
	expired := NewAuthService(testLogger(), users, "test-secret", -time.Hour)
	ctx := context.Background()

	if _, err := svc.SetContextFromToken(ctx, "not-a-token"); err == nil {
		t.Fatalf("expected garbage token rejection")
	}

	forged, _, err := other.Login(ctx, "sasha@example.com", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, forged); err == nil {
		t.Fatalf("expected wrong-key token rejection")
	}

	stale, _, err := expired.Login(ctx, "sasha@example.com", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.SetContextFromToken(ctx, stale); err == nil {
		t.Fatalf("expected expired token rejection")
	}
}
