package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// UserRepo implementa repository.UserRepository.
type UserRepo struct{ b binding }

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	cp := *u
	return r.b.write(ctx, func(st *state) error {
		for _, other := range st.users {
			if strings.EqualFold(other.Email, u.Email) {
				return fmt.Errorf("%w: email %s", domain.ErrDuplicate, u.Email)
			}
		}
		st.users[u.ID] = &cp
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.b.read(func(st *state) error {
		if u, ok := st.users[id]; ok {
			cp := *u
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.b.read(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				cp := *u
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) Count(_ context.Context) (int, error) {
	var n int
	err := r.b.read(func(st *state) error {
		n = len(st.users)
		return nil
	})
	return n, err
}
