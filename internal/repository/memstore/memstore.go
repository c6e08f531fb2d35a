// Package memstore is an in-memory repository.Store for tests, local
// development and the load harness.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/repository"
)

type userRow struct {
	user    guardian.User
	roleIDs []int64
}

// Store keeps every table in maps guarded by one mutex. Returned values are
// copies.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	nextID      int64
	users       map[int64]*userRow
	roles       map[int64]*guardian.Role
	payments    map[int64]*repository.Payment
	punishments map[int64]*repository.Punishment
	posts       map[int64]*repository.Post
	likes       map[int64]map[int64]struct{}
	comments    map[int64]*repository.Comment
	products    map[int64]*repository.Product
	images      map[int64]repository.ProductImage
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:         time.Now,
		users:       map[int64]*userRow{},
		roles:       map[int64]*guardian.Role{},
		payments:    map[int64]*repository.Payment{},
		punishments: map[int64]*repository.Punishment{},
		posts:       map[int64]*repository.Post{},
		likes:       map[int64]map[int64]struct{}{},
		comments:    map[int64]*repository.Comment{},
		products:    map[int64]*repository.Product{},
		images:      map[int64]repository.ProductImage{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) hydrate(row *userRow) *guardian.User {
	u := row.user
	u.Roles = make([]guardian.Role, 0, len(row.roleIDs))
	for _, id := range row.roleIDs {
		if r, ok := s.roles[id]; ok {
			u.Roles = append(u.Roles, *r)
		}
	}
	return &u
}

func (s *Store) UserByID(_ context.Context, id int64) (*guardian.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.hydrate(row), nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*guardian.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.users {
		if strings.EqualFold(row.user.Email, email) {
			return s.hydrate(row), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, trashed bool, page, perPage int) (repository.Page[guardian.User], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.users))
	for id, row := range s.users {
		if (row.user.DeletedAt != nil) == trashed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]guardian.User, 0, perPage)
	for _, id := range window(ids, page, perPage) {
		out = append(out, *s.hydrate(s.users[id]))
	}
	return repository.NewPage(out, page, perPage, int64(len(ids))), nil
}

func (s *Store) InsertUser(_ context.Context, in repository.NewUser) (*guardian.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.users {
		if strings.EqualFold(row.user.Email, in.Email) || row.user.UserName == in.UserName {
			return nil, repository.ErrDuplicate
		}
	}
	now := s.now()
	row := &userRow{user: guardian.User{
		ID:           s.id(),
		Name:         in.Name,
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}}
	s.users[row.user.ID] = row
	return s.hydrate(row), nil
}

func (s *Store) updateUser(id int64, fn func(u *guardian.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := fn(&row.user); err != nil {
		return err
	}
	row.user.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, id int64, in repository.ProfileUpdate) error {
	return s.updateUser(id, func(u *guardian.User) error {
		if in.UserName != nil {
			for otherID, row := range s.users {
				if otherID != id && row.user.UserName == *in.UserName {
					return repository.ErrDuplicate
				}
			}
			u.UserName = *in.UserName
		}
		if in.Name != nil {
			u.Name = *in.Name
		}
		return nil
	})
}

func (s *Store) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	return s.updateUser(id, func(u *guardian.User) error {
		u.PasswordHash = hash
		return nil
	})
}

func (s *Store) SoftDeleteUser(_ context.Context, id int64) error {
	return s.updateUser(id, func(u *guardian.User) error {
		if u.DeletedAt == nil {
			now := s.now()
			u.DeletedAt = &now
		}
		return nil
	})
}

func (s *Store) RestoreUser(_ context.Context, id int64) error {
	return s.updateUser(id, func(u *guardian.User) error {
		u.DeletedAt = nil
		return nil
	})
}

func (s *Store) SyncRoles(_ context.Context, userID int64, roleIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	seen := map[int64]bool{}
	ids := make([]int64, 0, len(roleIDs))
	for _, id := range roleIDs {
		if _, ok := s.roles[id]; !ok {
			return repository.ErrNotFound
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	row.roleIDs = ids
	return nil
}

func (s *Store) ListRoles(_ context.Context) ([]guardian.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]guardian.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) RoleByID(_ context.Context, id int64) (*guardian.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (s *Store) StaffRoles(ctx context.Context) ([]repository.StaffRole, error) {
	roles, err := s.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	userIDs := make([]int64, 0, len(s.users))
	for id := range s.users {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	out := make([]repository.StaffRole, 0)
	for _, role := range roles {
		if !role.IsStaff {
			continue
		}
		entry := repository.StaffRole{Role: role, Users: []guardian.User{}}
		for _, uid := range userIDs {
			row := s.users[uid]
			if row.user.DeletedAt != nil {
				continue
			}
			for _, rid := range row.roleIDs {
				if rid == role.ID {
					entry.Users = append(entry.Users, *s.hydrate(row))
					break
				}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) InsertRole(_ context.Context, in repository.RoleInput) (*guardian.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	r := &guardian.Role{
		ID:          s.id(),
		Title:       in.Title,
		Color:       in.Color,
		Permissions: in.Permissions,
		IsStaff:     in.IsStaff,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.roles[r.ID] = r
	out := *r
	return &out, nil
}

func (s *Store) UpdateRole(_ context.Context, id int64, in repository.RoleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Color != nil {
		r.Color = *in.Color
	}
	if in.IsStaff != nil {
		r.IsStaff = *in.IsStaff
	}
	r.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteRole(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.roles, id)
	for _, row := range s.users {
		kept := row.roleIDs[:0]
		for _, rid := range row.roleIDs {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		row.roleIDs = kept
	}
	return nil
}

func (s *Store) ListPaymentsForUser(_ context.Context, userID int64, page, perPage int) (repository.Page[repository.Payment], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0)
	for id, p := range s.payments {
		if p.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]repository.Payment, 0, perPage)
	for _, id := range window(ids, page, perPage) {
		out = append(out, *s.payments[id])
	}
	return repository.NewPage(out, page, perPage, int64(len(ids))), nil
}

func (s *Store) ListPaymentsForProduct(_ context.Context, productID int64, page, perPage int) (repository.Page[repository.Payment], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0)
	for id, p := range s.payments {
		if p.ProductID != nil && *p.ProductID == productID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]repository.Payment, 0, perPage)
	for _, id := range window(ids, page, perPage) {
		out = append(out, *s.payments[id])
	}
	return repository.NewPage(out, page, perPage, int64(len(ids))), nil
}

func (s *Store) PaymentByID(_ context.Context, id int64) (*repository.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *Store) InsertPayment(_ context.Context, userID int64, in repository.NewPayment) (*repository.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	if in.ProductID != nil {
		if p, ok := s.products[*in.ProductID]; !ok || p.DeletedAt != nil {
			return nil, repository.ErrNotFound
		}
	}
	now := s.now()
	p := &repository.Payment{
		ID:            s.id(),
		UserID:        userID,
		ProductID:     in.ProductID,
		UserName:      in.UserName,
		IsDelivered:   in.IsDelivered,
		PaymentMethod: in.PaymentMethod,
		OriginAddress: in.OriginAddress,
		TotalPrice:    in.TotalPrice,
		TotalPaid:     in.TotalPaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.payments[p.ID] = p
	out := *p
	return &out, nil
}

func (s *Store) ListPunishments(_ context.Context, page, perPage int) (repository.Page[repository.Punishment], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.punishments))
	for id := range s.punishments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]repository.Punishment, 0, perPage)
	for _, id := range window(ids, page, perPage) {
		out = append(out, *s.punishments[id])
	}
	return repository.NewPage(out, page, perPage, int64(len(ids))), nil
}

func (s *Store) PunishmentByID(_ context.Context, id int64) (*repository.Punishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.punishments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *Store) InsertPunishment(_ context.Context, in repository.PunishmentInput) (*repository.Punishment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.UserID]; !ok {
		return nil, repository.ErrNotFound
	}
	now := s.now()
	p := &repository.Punishment{
		ID:        s.id(),
		UserID:    in.UserID,
		StaffID:   in.StaffID,
		Reason:    in.Reason,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.punishments[p.ID] = p
	out := *p
	return &out, nil
}

func (s *Store) UpdatePunishment(_ context.Context, id int64, in repository.PunishmentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.punishments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Reason != nil {
		p.Reason = *in.Reason
	}
	if in.ExpiresAt != nil {
		p.ExpiresAt = in.ExpiresAt
	}
	p.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeletePunishment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.punishments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.punishments, id)
	return nil
}

func (s *Store) post(id int64) repository.Post {
	p := *s.posts[id]
	p.Likes = int64(len(s.likes[id]))
	return p
}

// ListPosts returns the newest posts first.
func (s *Store) ListPosts(_ context.Context, page, perPage int) (repository.Page[repository.Post], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := make([]repository.Post, 0, perPage)
	for _, id := range window(ids, page, perPage) {
		out = append(out, s.post(id))
	}
	return repository.NewPage(out, page, perPage, int64(len(ids))), nil
}

func (s *Store) PostByID(_ context.Context, id int64) (*repository.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.posts[id]; !ok {
		return nil, repository.ErrNotFound
	}
	p := s.post(id)
	return &p, nil
}

func (s *Store) InsertPost(_ context.Context, userID int64, in repository.PostInput) (*repository.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	now := s.now()
	p := &repository.Post{
		ID:          s.id(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.posts[p.ID] = p
	out := *p
	return &out, nil
}

func (s *Store) UpdatePost(_ context.Context, id int64, in repository.PostUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	p.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	delete(s.likes, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *Store) LikePost(_ context.Context, postID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	if s.likes[postID] == nil {
		s.likes[postID] = map[int64]struct{}{}
	}
	s.likes[postID][userID] = struct{}{}
	return nil
}

func (s *Store) UnlikePost(_ context.Context, postID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.likes[postID], userID)
	return nil
}

func (s *Store) ListCommentsForPost(_ context.Context, postID int64, page, perPage int) (repository.Page[repository.Comment], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0)
	for id, c := range s.comments {
		if c.PostID == postID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]repository.Comment, 0, perPage)
	for _, id := range window(ids, page, perPage) {
		out = append(out, *s.comments[id])
	}
	return repository.NewPage(out, page, perPage, int64(len(ids))), nil
}

func (s *Store) CommentByID(_ context.Context, id int64) (*repository.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *Store) InsertComment(_ context.Context, postID, userID int64, content string) (*repository.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, repository.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	now := s.now()
	c := &repository.Comment{
		ID:        s.id(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.comments[c.ID] = c
	out := *c
	return &out, nil
}

func (s *Store) UpdateComment(_ context.Context, id int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Content = content
	c.Updated = true
	c.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context, trashed bool, page, perPage int) (repository.Page[repository.Product], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.products))
	for id, p := range s.products {
		if (p.DeletedAt != nil) == trashed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]repository.Product, 0, perPage)
	for _, id := range window(ids, page, perPage) {
		out = append(out, *s.products[id])
	}
	return repository.NewPage(out, page, perPage, int64(len(ids))), nil
}

func (s *Store) ProductByID(_ context.Context, id int64) (*repository.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *Store) InsertProduct(_ context.Context, in repository.ProductInput) (*repository.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := &repository.Product{
		ID:          s.id(),
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.products[p.ID] = p
	out := *p
	return &out, nil
}

func (s *Store) updateProduct(id int64, fn func(p *repository.Product)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(p)
	p.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, id int64, in repository.ProductInput) error {
	return s.updateProduct(id, func(p *repository.Product) {
		p.Title = in.Title
		p.Price = in.Price
		p.Description = in.Description
	})
}

func (s *Store) SoftDeleteProduct(_ context.Context, id int64) error {
	return s.updateProduct(id, func(p *repository.Product) {
		if p.DeletedAt == nil {
			now := s.now()
			p.DeletedAt = &now
		}
	})
}

func (s *Store) RestoreProduct(_ context.Context, id int64) error {
	return s.updateProduct(id, func(p *repository.Product) {
		p.DeletedAt = nil
	})
}

func (s *Store) ProductImage(_ context.Context, id int64) (*repository.ProductImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	img.Data = append([]byte(nil), img.Data...)
	return &img, nil
}

func (s *Store) SetProductImage(_ context.Context, id int64, img repository.ProductImage) error {
	return s.updateProduct(id, func(*repository.Product) {
		s.images[id] = repository.ProductImage{ContentType: img.ContentType, Data: append([]byte(nil), img.Data...)}
	})
}

func window(ids []int64, page, perPage int) []int64 {
	start := repository.Offset(page, perPage)
	if start >= len(ids) {
		return nil
	}
	end := start + perPage
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}
