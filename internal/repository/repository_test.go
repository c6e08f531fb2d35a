package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/internal/repository/memstore"
	"github.com/MrEthical07/guardian/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how often the backing store is read.
type countingStore struct {
	*memstore.Store
	userByID  int
	listRoles int
	payment   int
}

func (c *countingStore) UserByID(ctx context.Context, id int64) (*guardian.User, error) {
	c.userByID++
	return c.Store.UserByID(ctx, id)
}

func (c *countingStore) ListRoles(ctx context.Context) ([]guardian.Role, error) {
	c.listRoles++
	return c.Store.ListRoles(ctx)
}

func (c *countingStore) PaymentByID(ctx context.Context, id int64) (*repository.Payment, error) {
	c.payment++
	return c.Store.PaymentByID(ctx, id)
}

type fixture struct {
	mr          *miniredis.Miniredis
	store       *countingStore
	users       *repository.UserRepository
	roles       *repository.RoleRepository
	payments    *repository.PaymentRepository
	punishments *repository.PunishmentRepository
	posts       *repository.PostRepository
	comments    *repository.CommentRepository
	products    *repository.ProductRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := cache.New(rdb, "test")
	store := &countingStore{Store: memstore.New()}
	log := zerolog.Nop()
	return &fixture{
		mr:          mr,
		store:       store,
		users:       repository.NewUserRepository(store, c, log),
		roles:       repository.NewRoleRepository(store, c, log),
		payments:    repository.NewPaymentRepository(store, c, log),
		punishments: repository.NewPunishmentRepository(store, c, log),
		posts:       repository.NewPostRepository(store, c, log),
		comments:    repository.NewCommentRepository(store, c, log),
		products:    repository.NewProductRepository(store, c, log),
	}
}

func (f *fixture) createUser(t *testing.T, email string) *guardian.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), repository.NewUser{
		Name: "Name", UserName: email, Email: email, PasswordHash: "$argon2id$stub",
	})
	require.NoError(t, err)
	return u
}

func TestFindUserByIDIsCachedWithCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "alice@example.com")

	first, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	second, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.userByID)
	assert.Equal(t, "alice@example.com", second.Email)
	assert.Equal(t, "$argon2id$stub", second.PasswordHash, "credentials must survive the cache round trip")
	assert.Equal(t, first.ID, second.ID)
}

func TestFindUserByIDMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.FindUserByID(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.True(t, errors.Is(err, guardian.ErrUserNotFound))

	_, err = f.users.FindUserByEmail(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, guardian.ErrUserNotFound))
}

func TestUserWritesFlushUsersNamespace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "bob@example.com")

	_, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)

	name := "Robert"
	require.NoError(t, f.users.UpdateProfile(ctx, u.ID, repository.ProfileUpdate{Name: &name}))

	got, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.Name)
	assert.Equal(t, 2, f.store.userByID)
}

func TestDeleteAndRestoreUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "carol@example.com")

	require.NoError(t, f.users.DeleteUser(ctx, u.ID))

	got, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err, "lookups include trashed users")
	assert.True(t, got.Trashed())

	trashed, err := f.users.FindPaginatedTrashedUsers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trashed.Data, 1)

	active, err := f.users.FindPaginatedUsers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, active.Data)

	require.NoError(t, f.users.RestoreUser(ctx, u.ID))
	active, err = f.users.FindPaginatedUsers(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, active.Data, 1)
}

func TestRoleWritesFlushUsersToo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "dave@example.com")

	role, err := f.roles.CreateRole(ctx, repository.RoleInput{Title: "Moderator", Permissions: permission.StorePunishment})
	require.NoError(t, err)
	require.NoError(t, f.users.SyncRoles(ctx, u.ID, []int64{role.ID}))

	before, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, before.HasPermission(permission.StorePunishment))

	require.NoError(t, f.roles.DeleteRole(ctx, role.ID))

	after, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, after.HasPermission(permission.StorePunishment), "role deletion must reach cached users")
}

func TestFindAllRolesCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.roles.CreateRole(ctx, repository.RoleInput{Title: "A"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		roles, err := f.roles.FindAllRoles(ctx)
		require.NoError(t, err)
		assert.Len(t, roles, 1)
	}
	assert.Equal(t, 1, f.store.listRoles)

	title := "B"
	require.NoError(t, f.roles.UpdateRole(ctx, 1, repository.RoleUpdate{Title: &title}))
	roles, err := f.roles.FindAllRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", roles[0].Title)
	assert.Equal(t, 2, f.store.listRoles)
}

func TestStaffRolesIncludeUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "erin@example.com")

	staff, err := f.roles.CreateRole(ctx, repository.RoleInput{Title: "Staff", IsStaff: true})
	require.NoError(t, err)
	_, err = f.roles.CreateRole(ctx, repository.RoleInput{Title: "Member"})
	require.NoError(t, err)
	require.NoError(t, f.users.SyncRoles(ctx, u.ID, []int64{staff.ID}))

	got, err := f.roles.FindAllRolesThatAreStaff(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Staff", got[0].Role.Title)
	require.Len(t, got[0].Users, 1)
	assert.Equal(t, u.ID, got[0].Users[0].ID)
}

func TestPaymentsCachedAndFlushed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "frank@example.com")

	p, err := f.payments.CreatePayment(ctx, u.ID, repository.NewPayment{PaymentMethod: "card", TotalPrice: 10, TotalPaid: 10})
	require.NoError(t, err)

	_, err = f.payments.FindPaymentByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = f.payments.FindPaymentByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.payment)

	page, err := f.payments.FindPaginatedPaymentsForUser(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	_, err = f.payments.CreatePayment(ctx, u.ID, repository.NewPayment{PaymentMethod: "pix"})
	require.NoError(t, err)
	page, err = f.payments.FindPaginatedPaymentsForUser(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	_, err = f.payments.FindPaymentByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPunishmentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "gina@example.com")

	p, err := f.punishments.CreatePunishment(ctx, repository.PunishmentInput{UserID: u.ID, StaffID: u.ID, Reason: "spam"})
	require.NoError(t, err)

	page, err := f.punishments.FindPaginatedPunishments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	reason := "flood"
	require.NoError(t, f.punishments.UpdatePunishment(ctx, p.ID, repository.PunishmentUpdate{Reason: &reason}))
	got, err := f.punishments.FindPunishmentByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "flood", got.Reason)

	require.NoError(t, f.punishments.DeletePunishment(ctx, p.ID))
	page, err = f.punishments.FindPaginatedPunishments(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestObserversReceiveEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var events []repository.Event
	f.users.Observe(func(_ context.Context, ev repository.Event, _ int64) {
		events = append(events, ev)
	})

	u := f.createUser(t, "hank@example.com")
	require.NoError(t, f.users.UpdatePasswordHash(ctx, u.ID, "new"))
	require.NoError(t, f.users.DeleteUser(ctx, u.ID))
	require.NoError(t, f.users.RestoreUser(ctx, u.ID))

	assert.Equal(t, []repository.Event{
		repository.EventCreated,
		repository.EventUpdated,
		repository.EventDeleted,
		repository.EventRestored,
	}, events)
}

func TestFailedWriteFiresNoEvent(t *testing.T) {
	f := newFixture(t)
	fired := false
	f.users.Observe(func(context.Context, repository.Event, int64) { fired = true })

	err := f.users.DeleteUser(context.Background(), 12345)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, fired)
}

func TestFailedFlushFailsWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "kim@example.com")
	_, err := f.users.FindUserByID(ctx, u.ID)
	require.NoError(t, err)

	var events []repository.Event
	f.users.Observe(func(_ context.Context, ev repository.Event, _ int64) {
		events = append(events, ev)
	})

	f.mr.SetError("LOADING redis is loading")
	err = f.users.UpdatePasswordHash(ctx, u.ID, "rotated")
	require.ErrorIs(t, err, repository.ErrCacheInvalidation)
	assert.Equal(t, []repository.Event{repository.EventUpdated}, events)

	_, err = f.posts.CreatePost(ctx, u.ID, repository.PostInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, repository.ErrCacheInvalidation)
	f.mr.SetError("")

	stored, err := f.store.Store.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", stored.PasswordHash)
}

func TestPostsCachedAndFlushed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "lena@example.com")
	fan := f.createUser(t, "max@example.com")

	p, err := f.posts.CreatePost(ctx, author.ID, repository.PostInput{Title: "Hello", Description: "World"})
	require.NoError(t, err)

	got, err := f.posts.FindPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Likes)

	require.NoError(t, f.posts.LikePost(ctx, p.ID, fan.ID))
	require.NoError(t, f.posts.LikePost(ctx, p.ID, fan.ID))
	got, err = f.posts.FindPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Likes)

	title := "Hello again"
	require.NoError(t, f.posts.UpdatePost(ctx, p.ID, repository.PostUpdate{Title: &title}))
	page, err := f.posts.FindPaginatedPosts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Hello again", page.Data[0].Title)
	assert.Equal(t, "World", page.Data[0].Description)

	require.NoError(t, f.posts.UnlikePost(ctx, p.ID, fan.ID))
	got, err = f.posts.FindPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Likes)

	_, err = f.posts.CreatePost(ctx, 9999, repository.PostInput{Title: "t", Description: "d"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeletePostDropsComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "nico@example.com")
	p, err := f.posts.CreatePost(ctx, u.ID, repository.PostInput{Title: "t", Description: "d"})
	require.NoError(t, err)

	c, err := f.comments.CreateComment(ctx, p.ID, u.ID, "nice")
	require.NoError(t, err)
	page, err := f.comments.FindPaginatedCommentsForPost(ctx, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	require.NoError(t, f.comments.UpdateComment(ctx, c.ID, "nicer"))
	got, err := f.comments.FindCommentByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "nicer", got.Content)
	assert.True(t, got.Updated)

	require.NoError(t, f.posts.DeletePost(ctx, p.ID))
	_, err = f.comments.FindCommentByID(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	page, err = f.comments.FindPaginatedCommentsForPost(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	_, err = f.comments.CreateComment(ctx, p.ID, u.ID, "late")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductTrashAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "olive@example.com")

	p, err := f.products.CreateProduct(ctx, repository.ProductInput{Title: "Cape", Price: 3, Description: "Red"})
	require.NoError(t, err)
	page, err := f.products.FindPaginatedProducts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	pid := p.ID
	pay, err := f.payments.CreatePayment(ctx, u.ID, repository.NewPayment{ProductID: &pid, PaymentMethod: "card"})
	require.NoError(t, err)
	commands, err := f.payments.FindPaginatedPaymentsForProduct(ctx, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, commands.Data, 1)
	assert.Equal(t, pay.ID, commands.Data[0].ID)

	require.NoError(t, f.products.DeleteProduct(ctx, p.ID))
	page, err = f.products.FindPaginatedProducts(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	trashed, err := f.products.FindPaginatedTrashedProducts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trashed.Data, 1)
	got, err := f.products.FindProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.DeletedAt)

	_, err = f.payments.CreatePayment(ctx, u.ID, repository.NewPayment{ProductID: &pid, PaymentMethod: "card"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, f.products.RestoreProduct(ctx, p.ID))
	got, err = f.products.FindProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeletedAt)

	_, err = f.products.FindProductImage(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, f.products.UpdateProductImage(ctx, p.ID, repository.ProductImage{ContentType: "image/png", Data: []byte{1, 2}}))
	img, err := f.products.FindProductImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []byte{1, 2}, img.Data)
}

func TestDuplicateUser(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "ivy@example.com")

	_, err := f.users.CreateUser(context.Background(), repository.NewUser{Email: "IVY@example.com", UserName: "other"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestRepositoryWithoutCache(t *testing.T) {
	store := memstore.New()
	users := repository.NewUserRepository(store, nil, zerolog.Nop())

	u, err := users.CreateUser(context.Background(), repository.NewUser{Email: "jay@example.com", UserName: "jay"})
	require.NoError(t, err)
	got, err := users.FindUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestNewPage(t *testing.T) {
	p := repository.NewPage([]int{1, 2}, 2, 15, 31)
	assert.Equal(t, 3, p.LastPage)
	assert.Equal(t, 15, repository.Offset(2, 15))
	assert.Equal(t, 0, repository.Offset(0, 15))

	empty := repository.NewPage[int](nil, 1, 15, 0)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 1, empty.LastPage)
}
