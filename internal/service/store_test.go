package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// memStore keeps rows in a slice and resolves filter columns with gorm's
// naming strategy, so filters read exactly like the ones sent to postgres.
type memStore[T any] struct {
	rows       []*T
	columns    map[string]int
	softDelete bool
	nextID     uint
}

func newMemStore[T any](softDelete bool) *memStore[T] {
	naming := schema.NamingStrategy{}
	typ := reflect.TypeFor[T]()

	columns := make(map[string]int)
	for i := 0; i < typ.NumField(); i++ {
		columns[naming.ColumnName("", typ.Field(i).Name)] = i
	}
	return &memStore[T]{columns: columns, softDelete: softDelete}
}

func (m *memStore[T]) field(row *T, column string) reflect.Value {
	idx, ok := m.columns[column]
	if !ok {
		panic(fmt.Sprintf("unknown column %q", column))
	}
	return reflect.ValueOf(row).Elem().Field(idx)
}

func deref(v reflect.Value) (reflect.Value, bool) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v, false
		}
		return v.Elem(), true
	}
	return v, true
}

func (m *memStore[T]) matches(row *T, filter repository.Filter, scoped bool) bool {
	for column, want := range filter {
		got, ok := deref(m.field(row, column))
		wv, wok := deref(reflect.ValueOf(want))
		if !ok || !wok {
			if ok != wok {
				return false
			}
			continue
		}
		if !wv.Type().ConvertibleTo(got.Type()) || got.Interface() != wv.Convert(got.Type()).Interface() {
			return false
		}
	}

	if scoped && m.softDelete {
		if _, explicit := filter["is_deleted"]; !explicit && m.field(row, "is_deleted").Bool() {
			return false
		}
	}
	return true
}

func (m *memStore[T]) set(row *T, column string, value any) {
	f := m.field(row, column)
	if value == nil {
		f.SetZero()
		return
	}

	v := reflect.ValueOf(value)
	if f.Kind() == reflect.Pointer && v.Kind() != reflect.Pointer {
		p := reflect.New(f.Type().Elem())
		p.Elem().Set(v.Convert(f.Type().Elem()))
		f.Set(p)
		return
	}
	f.Set(v.Convert(f.Type()))
}

func (m *memStore[T]) find(filter repository.Filter, scoped bool) *T {
	for _, row := range m.rows {
		if m.matches(row, filter, scoped) {
			c := *row
			return &c
		}
	}
	return nil
}

func (m *memStore[T]) Get(_ context.Context, filter repository.Filter) (*T, error) {
	return m.find(filter, true), nil
}

func (m *memStore[T]) GetUnscoped(_ context.Context, filter repository.Filter) (*T, error) {
	return m.find(filter, false), nil
}

func (m *memStore[T]) GetMulti(_ context.Context, filter repository.Filter, offset, limit int) ([]T, int64, error) {
	var all []T
	for _, row := range m.rows {
		if m.matches(row, filter, true) {
			all = append(all, *row)
		}
	}

	total := int64(len(all))
	if offset >= len(all) {
		return []T{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *memStore[T]) Exists(ctx context.Context, filter repository.Filter) (bool, error) {
	row, err := m.Get(ctx, filter)
	return row != nil, err
}

func (m *memStore[T]) Create(_ context.Context, entity *T) error {
	m.nextID++
	m.set(entity, "id", m.nextID)

	c := *entity
	m.rows = append(m.rows, &c)
	return nil
}

func (m *memStore[T]) Update(_ context.Context, filter repository.Filter, values map[string]any) error {
	for _, row := range m.rows {
		if !m.matches(row, filter, true) {
			continue
		}
		for column, value := range values {
			m.set(row, column, value)
		}
	}
	return nil
}

func (m *memStore[T]) Delete(ctx context.Context, filter repository.Filter) error {
	if !m.softDelete {
		return m.HardDelete(ctx, filter)
	}
	return m.Update(ctx, filter, map[string]any{
		"is_deleted": true,
		"deleted_at": time.Now().UTC(),
	})
}

func (m *memStore[T]) HardDelete(_ context.Context, filter repository.Filter) error {
	if len(filter) == 0 {
		return errors.New("refusing to delete without a filter")
	}

	kept := m.rows[:0]
	for _, row := range m.rows {
		if !m.matches(row, filter, false) {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

type memUsers struct {
	*memStore[models.User]
	tiers *memTiers
}

func (m *memUsers) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	if strings.Contains(subject, "@") {
		return m.Get(ctx, repository.Filter{"email": subject})
	}
	return m.Get(ctx, repository.Filter{"username": subject})
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.Get(ctx, repository.Filter{"username": username})
}

func (m *memUsers) GetWithTier(ctx context.Context, username string) (*models.UserTier, error) {
	user, _ := m.FindByUsername(ctx, username)
	if user == nil || user.TierID == nil {
		return nil, nil
	}
	tier, _ := m.tiers.GetByID(ctx, *user.TierID)
	if tier == nil {
		return nil, nil
	}
	return &models.UserTier{User: *user, TierName: tier.Name, TierCreatedAt: tier.CreatedAt}, nil
}

type memTiers struct {
	*memStore[models.Tier]
}

func (m *memTiers) GetByID(ctx context.Context, id uint) (*models.Tier, error) {
	return m.Get(ctx, repository.Filter{"id": id})
}

func (m *memTiers) GetByName(ctx context.Context, name string) (*models.Tier, error) {
	return m.Get(ctx, repository.Filter{"name": name})
}

type memRules struct {
	*memStore[models.RateLimit]
}

func (m *memRules) FindRule(ctx context.Context, tierID uint, path string) (*models.RateLimit, error) {
	return m.Get(ctx, repository.Filter{"tier_id": tierID, "path": path})
}

type revokedToken struct {
	token     string
	expiresAt time.Time
}

type fakeRevoker struct {
	revoked []revokedToken
}

func (f *fakeRevoker) Add(_ context.Context, token string, expiresAt time.Time) error {
	f.revoked = append(f.revoked, revokedToken{token: token, expiresAt: expiresAt})
	return nil
}

func (f *fakeRevoker) IsBlacklisted(_ context.Context, token string) (bool, error) {
	for _, r := range f.revoked {
		if r.token == token {
			return true, nil
		}
	}
	return false, nil
}

type fixture struct {
	users   *memUsers
	tiers   *memTiers
	rules   *memRules
	posts   *memStore[models.Post]
	revoker *fakeRevoker
	tokens  *auth.TokenManager

	auth    *AuthService
	userSvc *UserService
	postSvc *PostService
	tierSvc *TierService
	ruleSvc *RateLimitService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	revoker := &fakeRevoker{}
	f := &fixture{
		tiers:   &memTiers{newMemStore[models.Tier](false)},
		rules:   &memRules{newMemStore[models.RateLimit](false)},
		posts:   newMemStore[models.Post](true),
		revoker: revoker,
		tokens:  auth.NewTokenManager("test-secret", 30*time.Minute, 7*24*time.Hour, revoker),
	}
	f.users = &memUsers{memStore: newMemStore[models.User](true), tiers: f.tiers}

	f.auth = NewAuthService(f.users, f.revoker, f.tokens)
	f.userSvc = NewUserService(f.users, f.tiers, f.rules, f.auth)
	f.postSvc = NewPostService(f.posts, f.users)
	f.tierSvc = NewTierService(f.tiers)
	f.ruleSvc = NewRateLimitService(f.rules, f.tierSvc)
	return f
}

func (f *fixture) seedUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{Name: username, Username: username, Email: username + "@example.com"}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) accessToken(t *testing.T, username string) string {
	t.Helper()

	token, err := f.tokens.Issue(username, auth.AccessToken)
	require.NoError(t, err)
	return token
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.IsKind(err, kind), "want %s, got %v", kind, err)
}
