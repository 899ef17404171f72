package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/internal/repo"
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgAccountCreated = "Thanks a lot! Your account has been created successfully."
	msgLoggedIn       = "You've successfully logged in."

	msgUsernameTaken  = "Username already taken."
	msgPhoneTaken     = "Phone Number already exist."
	msgUserNotFound   = "User does not exist."
	msgWrongPassword  = "Password verification failed."
	msgFieldRequired  = "This field is required."
	msgLookupRequired = "Provide a username or a phone number."
	msgPasswordLong   = "Password must be at most 72 bytes."
)

// bcrypt refuses longer input
const _maxPasswordBytes = 72

type AccountUseCase struct {
	users  repo.UserRepo
	tokens usecase.TokenUseCase
	cost   int

	logger logger.Interface
}

func New(users repo.UserRepo, tokens usecase.TokenUseCase, bcryptCost int, l logger.Interface) *AccountUseCase {
	return &AccountUseCase{
		users:  users,
		tokens: tokens,
		cost:   bcryptCost,
		logger: l,
	}
}

func (uc *AccountUseCase) CreateAccount(ctx context.Context, in dto.CreateAccountInput) (dto.Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Name = strings.TrimSpace(in.Name)

	required := []struct{ field, value string }{
		{"username", in.Username},
		{"password", in.Password},
		{"phone_number", in.PhoneNumber},
		{"name", in.Name},
	}
	for _, r := range required {
		if r.value == "" {
			return dto.Session{}, errs.NewFieldError(r.field, msgFieldRequired, errs.ErrValidation)
		}
	}

	if len(in.Password) > _maxPasswordBytes {
		return dto.Session{}, errs.NewFieldError("password", msgPasswordLong, errs.ErrValidation)
	}

	// Pre-checks give the precise field; the unique constraints close the race.
	taken, err := uc.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return dto.Session{}, fmt.Errorf("AccountUseCase - CreateAccount - uc.users.ExistsByUsername: %w", err)
	}
	if taken {
		return dto.Session{}, errs.NewFieldError("username", msgUsernameTaken, errs.ErrUsernameTaken)
	}

	taken, err = uc.users.ExistsByPhoneNumber(ctx, in.PhoneNumber)
	if err != nil {
		return dto.Session{}, fmt.Errorf("AccountUseCase - CreateAccount - uc.users.ExistsByPhoneNumber: %w", err)
	}
	if taken {
		return dto.Session{}, errs.NewFieldError("phone_number", msgPhoneTaken, errs.ErrPhoneTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return dto.Session{}, fmt.Errorf("AccountUseCase - CreateAccount - bcrypt.GenerateFromPassword: %w", err)
	}

	user := &entity.User{
		UserID:       uuid.New(),
		Username:     in.Username,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		DisplayName:  in.Name,
		CreatedAt:    time.Now(),
	}

	err = uc.users.Create(ctx, user)
	switch {
	case errors.Is(err, errs.ErrUsernameTaken):
		return dto.Session{}, errs.NewFieldError("username", msgUsernameTaken, errs.ErrUsernameTaken)
	case errors.Is(err, errs.ErrPhoneTaken):
		return dto.Session{}, errs.NewFieldError("phone_number", msgPhoneTaken, errs.ErrPhoneTaken)
	case err != nil:
		return dto.Session{}, fmt.Errorf("AccountUseCase - CreateAccount - uc.users.Create: %w", err)
	}

	return uc.session(user, msgAccountCreated)
}

func (uc *AccountUseCase) Login(ctx context.Context, in dto.LoginInput) (dto.Session, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return dto.Session{}, errs.NewFieldError("username", msgFieldRequired, errs.ErrValidation)
	}
	if in.Password == "" {
		return dto.Session{}, errs.NewFieldError("password", msgFieldRequired, errs.ErrValidation)
	}

	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return dto.Session{}, errs.NewFieldError("username", msgUserNotFound, errs.ErrUserNotFound)
		}
		return dto.Session{}, fmt.Errorf("AccountUseCase - Login - uc.users.GetByUsername: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dto.Session{}, errs.NewFieldError("password", msgWrongPassword, errs.ErrWrongPassword)
		}
		return dto.Session{}, fmt.Errorf("AccountUseCase - Login - bcrypt.CompareHashAndPassword: %w", err)
	}

	return uc.session(user, msgLoggedIn)
}

func (uc *AccountUseCase) Lookup(ctx context.Context, in dto.LookupInput) (dto.LookupResult, error) {
	username := strings.TrimSpace(in.Username)
	phone := strings.TrimSpace(in.PhoneNumber)

	if username == "" && phone == "" {
		return dto.LookupResult{}, errs.NewFieldError("username", msgLookupRequired, errs.ErrValidation)
	}

	var (
		res dto.LookupResult
		err error
	)

	if username != "" {
		res.UsernameExists, err = uc.users.ExistsByUsername(ctx, username)
		if err != nil {
			return dto.LookupResult{}, fmt.Errorf("AccountUseCase - Lookup - uc.users.ExistsByUsername: %w", err)
		}
	}

	if phone != "" {
		res.PhoneNumberExists, err = uc.users.ExistsByPhoneNumber(ctx, phone)
		if err != nil {
			return dto.LookupResult{}, fmt.Errorf("AccountUseCase - Lookup - uc.users.ExistsByPhoneNumber: %w", err)
		}
	}

	return res, nil
}

func (uc *AccountUseCase) session(user *entity.User, message string) (dto.Session, error) {
	tok, err := uc.tokens.IssueToken(user.DisplayName, user.UserID)
	if err != nil {
		return dto.Session{}, fmt.Errorf("AccountUseCase - session - uc.tokens.IssueToken: %w", err)
	}

	return dto.Session{
		AccessToken: tok,
		DisplayName: user.DisplayName,
		Message:     message,
	}, nil
}
