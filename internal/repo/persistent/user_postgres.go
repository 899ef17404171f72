package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/postgres"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	usersTable = "users"

	// Columns
	userIDColumn        = "user_id"
	usernameColumn      = "username"
	phoneNumberColumn   = "phone_number"
	passwordHashColumn  = "password_hash"
	displayNameColumn   = "display_name"
	userCreatedAtColumn = "created_at"

	// Constraints
	usernameConstraint    = "users_username_key"
	phoneNumberConstraint = "users_phone_number_key"
)

type UserRepo struct {
	*postgres.Postgres
}

func NewUserRepo(pg *postgres.Postgres) *UserRepo {
	return &UserRepo{pg}
}

// Create relies on the unique constraints, so two concurrent sign-ups
// with the same username cannot both succeed.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	sql, args, err := r.Builder.
		Insert(usersTable).
		Columns(
			userIDColumn,
			usernameColumn,
			phoneNumberColumn,
			passwordHashColumn,
			displayNameColumn,
			userCreatedAtColumn,
		).
		Values(
			user.UserID,
			user.Username,
			user.PhoneNumber,
			user.PasswordHash,
			user.DisplayName,
			user.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("UserRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		switch {
		case postgres.ConstraintViolated(err, usernameConstraint):
			return fmt.Errorf("UserRepo - Create: %w", errs.ErrUsernameTaken)
		case postgres.ConstraintViolated(err, phoneNumberConstraint):
			return fmt.Errorf("UserRepo - Create: %w", errs.ErrPhoneTaken)
		}
		return fmt.Errorf("UserRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	sql, args, err := r.Builder.
		Select(
			userIDColumn,
			usernameColumn,
			phoneNumberColumn,
			passwordHashColumn,
			displayNameColumn,
			userCreatedAtColumn,
		).
		From(usersTable).
		Where(squirrel.Eq{usernameColumn: username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("UserRepo - GetByUsername - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var user entity.User
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&user.UserID,
		&user.Username,
		&user.PhoneNumber,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("UserRepo - GetByUsername: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("UserRepo - GetByUsername - executor.QueryRow: %w", err)
	}

	return &user, nil
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	ok, err := r.exists(ctx, usernameColumn, username)
	if err != nil {
		return false, fmt.Errorf("UserRepo - ExistsByUsername: %w", err)
	}

	return ok, nil
}

func (r *UserRepo) ExistsByPhoneNumber(ctx context.Context, phoneNumber string) (bool, error) {
	ok, err := r.exists(ctx, phoneNumberColumn, phoneNumber)
	if err != nil {
		return false, fmt.Errorf("UserRepo - ExistsByPhoneNumber: %w", err)
	}

	return ok, nil
}

func (r *UserRepo) exists(ctx context.Context, column, value string) (bool, error) {
	sql, args, err := r.Builder.
		Select("1").
		Prefix("SELECT EXISTS (").
		From(usersTable).
		Where(squirrel.Eq{column: value}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var ok bool
	err = executor.QueryRow(ctx, sql, args...).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("executor.QueryRow: %w", err)
	}

	return ok, nil
}
