//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/permission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with GUARDIAN_TEST_PG_DSN pointing at a disposable database:
//
//	go test -tags integration ./internal/postgres/
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("GUARDIAN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("GUARDIAN_TEST_PG_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS comments, post_likes, posts, punishments, payments, products, role_user, roles, users CASCADE`)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))
	return NewStore(pool)
}

func TestStoreUsersAndRoles(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	u, err := s.InsertUser(ctx, repository.NewUser{Name: "Ann", UserName: "ann", Email: "ann@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.InsertUser(ctx, repository.NewUser{UserName: "ann2", Email: "ann@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	_, err = s.InsertUser(ctx, repository.NewUser{UserName: "ann3", Email: "ANN@Example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	mod, err := s.InsertRole(ctx, repository.RoleInput{Title: "Moderator", Permissions: permission.Mask(3), IsStaff: true})
	require.NoError(t, err)
	vip, err := s.InsertRole(ctx, repository.RoleInput{Title: "VIP", Permissions: permission.Mask(8)})
	require.NoError(t, err)

	require.NoError(t, s.SyncRoles(ctx, u.ID, []int64{mod.ID, vip.ID}))
	got, err := s.UserByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Len(t, got.Roles, 2)
	assert.Equal(t, permission.Mask(11), got.Permissions())

	assert.ErrorIs(t, s.SyncRoles(ctx, u.ID, []int64{999}), repository.ErrNotFound)
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.Roles, 2, "failed sync must not drop existing roles")

	staff, err := s.StaffRoles(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, u.ID, staff[0].Users[0].ID)

	require.NoError(t, s.DeleteRole(ctx, vip.ID))
	got, err = s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, permission.Mask(3), got.Permissions())

	require.NoError(t, s.SoftDeleteUser(ctx, u.ID))
	trashed, err := s.ListUsers(ctx, true, 1, repository.PerPage)
	require.NoError(t, err)
	assert.EqualValues(t, 1, trashed.Total)
	active, err := s.ListUsers(ctx, false, 1, repository.PerPage)
	require.NoError(t, err)
	assert.EqualValues(t, 0, active.Total)

	require.NoError(t, s.RestoreUser(ctx, u.ID))
	assert.ErrorIs(t, s.RestoreUser(ctx, 12345), repository.ErrNotFound)
}

func TestStorePaymentsAndPunishments(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	u, err := s.InsertUser(ctx, repository.NewUser{UserName: "bob", Email: "bob@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	staff, err := s.InsertUser(ctx, repository.NewUser{UserName: "mod", Email: "mod@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	for i := 0; i < 17; i++ {
		_, err := s.InsertPayment(ctx, u.ID, repository.NewPayment{PaymentMethod: "card", TotalPrice: 10, TotalPaid: 10})
		require.NoError(t, err)
	}
	page, err := s.ListPaymentsForUser(ctx, u.ID, 2, repository.PerPage)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.LastPage)

	p, err := s.InsertPunishment(ctx, repository.PunishmentInput{UserID: u.ID, StaffID: staff.ID, Reason: "spam"})
	require.NoError(t, err)
	reason := "abuse"
	require.NoError(t, s.UpdatePunishment(ctx, p.ID, repository.PunishmentUpdate{Reason: &reason}))
	got, err := s.PunishmentByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "abuse", got.Reason)

	require.NoError(t, s.DeletePunishment(ctx, p.ID))
	_, err = s.PunishmentByID(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorePostsAndComments(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	u, err := s.InsertUser(ctx, repository.NewUser{UserName: "cat", Email: "cat@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	fan, err := s.InsertUser(ctx, repository.NewUser{UserName: "dan", Email: "dan@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.InsertPost(ctx, 12345, repository.PostInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	first, err := s.InsertPost(ctx, u.ID, repository.PostInput{Title: "first", Description: "d"})
	require.NoError(t, err)
	second, err := s.InsertPost(ctx, u.ID, repository.PostInput{Title: "second", Description: "d"})
	require.NoError(t, err)

	page, err := s.ListPosts(ctx, 1, repository.PerPage)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, second.ID, page.Data[0].ID)

	require.NoError(t, s.LikePost(ctx, first.ID, fan.ID))
	require.NoError(t, s.LikePost(ctx, first.ID, fan.ID))
	require.NoError(t, s.LikePost(ctx, first.ID, u.ID))
	got, err := s.PostByID(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Likes)
	require.NoError(t, s.UnlikePost(ctx, first.ID, u.ID))
	assert.ErrorIs(t, s.UnlikePost(ctx, 12345, u.ID), repository.ErrNotFound)

	c, err := s.InsertComment(ctx, first.ID, fan.ID, "nice")
	require.NoError(t, err)
	require.NoError(t, s.UpdateComment(ctx, c.ID, "very nice"))
	gotComment, err := s.CommentByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, gotComment.Updated)
	assert.Equal(t, "very nice", gotComment.Content)

	require.NoError(t, s.DeletePost(ctx, first.ID))
	_, err = s.CommentByID(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.InsertComment(ctx, first.ID, fan.ID, "late")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoreProducts(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	u, err := s.InsertUser(ctx, repository.NewUser{UserName: "eve", Email: "eve@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	p, err := s.InsertProduct(ctx, repository.ProductInput{Title: "Sword", Price: 12, Description: "sharp"})
	require.NoError(t, err)

	_, err = s.ProductImage(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, s.SetProductImage(ctx, p.ID, repository.ProductImage{ContentType: "image/png", Data: []byte{1, 2, 3}}))
	img, err := s.ProductImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	_, err = s.InsertPayment(ctx, u.ID, repository.NewPayment{ProductID: &p.ID, PaymentMethod: "card", TotalPrice: 12})
	require.NoError(t, err)
	orders, err := s.ListPaymentsForProduct(ctx, p.ID, 1, repository.PerPage)
	require.NoError(t, err)
	assert.Len(t, orders.Data, 1)

	require.NoError(t, s.SoftDeleteProduct(ctx, p.ID))
	trashed, err := s.ListProducts(ctx, true, 1, repository.PerPage)
	require.NoError(t, err)
	assert.Len(t, trashed.Data, 1)
	_, err = s.InsertPayment(ctx, u.ID, repository.NewPayment{ProductID: &p.ID, PaymentMethod: "card"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.RestoreProduct(ctx, p.ID))
	live, err := s.ListProducts(ctx, false, 1, repository.PerPage)
	require.NoError(t, err)
	assert.Len(t, live.Data, 1)
}
