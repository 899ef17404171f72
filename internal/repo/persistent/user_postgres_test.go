package persistent

import (
	"context"
	"testing"
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *entity.User {
	return &entity.User{
		UserID:       uuid.New(),
		Username:     "ana",
		PhoneNumber:  "+15550001",
		PasswordHash: "$2a$09$hash",
		DisplayName:  "Ana",
		CreatedAt:    time.Now(),
	}
}

func TestUserRepo_Create(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewUserRepo(pg)
	u := testUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.UserID, u.Username, u.PhoneNumber, u.PasswordHash, u.DisplayName, u.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
}

func TestUserRepo_Create_UniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "username", constraint: usernameConstraint, want: errs.ErrUsernameTaken},
		{name: "phone number", constraint: phoneNumberConstraint, want: errs.ErrPhoneTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg, mock := newMockPostgres(t)
			repo := NewUserRepo(pg)

			mock.ExpectExec("INSERT INTO users").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := repo.Create(context.Background(), testUser())
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, errs.ErrAuth)
		})
	}
}

func TestUserRepo_GetByUsername(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewUserRepo(pg)
	u := testUser()

	rows := pgxmock.NewRows([]string{"user_id", "username", "phone_number", "password_hash", "display_name", "created_at"}).
		AddRow(u.UserID, u.Username, u.PhoneNumber, u.PasswordHash, u.DisplayName, u.CreatedAt)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("ana").
		WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewUserRepo(pg)

	mock.ExpectQuery("FROM users").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestUserRepo_Exists(t *testing.T) {
	pg, mock := newMockPostgres(t)
	repo := NewUserRepo(pg)

	mock.ExpectQuery("SELECT EXISTS (.+) FROM users WHERE username").
		WithArgs("ana").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS (.+) FROM users WHERE phone_number").
		WithArgs("+15550002").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ExistsByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByPhoneNumber(context.Background(), "+15550002")
	require.NoError(t, err)
	assert.False(t, ok)
}
