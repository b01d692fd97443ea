package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,username,email,password_hash,role,created_at`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.CreatedAt = now()
	id, err := insertReturningID(ctx, executor(ctx, r.DB), `
		INSERT INTO users(username,email,password_hash,role,created_at)
		VALUES(?,?,?,?,?)`, u.Username, u.Email, u.Hash, u.Role, u.CreatedAt)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// ByLogin finds a user by email or username (case-insensitive) holding role.
func (r *UserRepo) ByLogin(ctx context.Context, identifier, role string) (*domain.User, error) {
	ex := executor(ctx, r.DB)
	var u domain.User
	err := sqlx.GetContext(ctx, ex, &u, ex.Rebind(`SELECT `+userCols+` FROM users
		WHERE (LOWER(email)=LOWER(?) OR LOWER(username)=LOWER(?)) AND role=?`),
		identifier, identifier, role)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	ex := executor(ctx, r.DB)
	var u domain.User
	if err := sqlx.GetContext(ctx, ex, &u, ex.Rebind(`SELECT `+userCols+` FROM users WHERE id=?`), id); err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether the username or email is already taken.
func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	ex := executor(ctx, r.DB)
	var n int
	err := sqlx.GetContext(ctx, ex, &n, ex.Rebind(`SELECT COUNT(*) FROM users
		WHERE LOWER(username)=LOWER(?) OR LOWER(email)=LOWER(?)`), username, email)
	return n > 0, err
}
