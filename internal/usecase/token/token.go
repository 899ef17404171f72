package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const bearerPrefix = "Bearer "

// Claims carried by an access token.
type Claims struct {
	Name   string `json:"name"`
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type TokenUseCase struct {
	secret   []byte
	previous [][]byte
	expiry   time.Duration
	now      func() time.Time
}

// New issues tokens with secret. Tokens signed with any of previous keep
// verifying until the secret is removed from the list.
func New(secret string, previous []string, expiry time.Duration, opts ...Option) *TokenUseCase {
	uc := &TokenUseCase{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}

	for _, s := range previous {
		if s = strings.TrimSpace(s); s != "" {
			uc.previous = append(uc.previous, []byte(s))
		}
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *TokenUseCase) IssueToken(displayName string, userID uuid.UUID) (string, error) {
	now := uc.now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:   displayName,
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(uc.expiry)),
		},
	})

	s, err := t.SignedString(uc.secret)
	if err != nil {
		return "", fmt.Errorf("TokenUseCase - IssueToken - t.SignedString: %w", err)
	}

	return s, nil
}

func (uc *TokenUseCase) VerifyToken(authorizationHeader string) (entity.Identity, error) {
	if !strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return entity.Identity{}, errs.ErrMissingToken
	}

	raw := strings.TrimSpace(strings.TrimPrefix(authorizationHeader, bearerPrefix))
	if raw == "" {
		return entity.Identity{}, errs.ErrMissingToken
	}

	keys := make([][]byte, 0, len(uc.previous)+1)
	keys = append(keys, uc.secret)
	keys = append(keys, uc.previous...)

	for _, key := range keys {
		claims, err := uc.parse(raw, key)
		if err == nil {
			return identityFrom(claims)
		}

		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			continue
		case errors.Is(err, jwt.ErrTokenExpired):
			return entity.Identity{}, errs.ErrTokenExpired
		default:
			return entity.Identity{}, fmt.Errorf("%w: %w", errs.ErrInvalidToken, err)
		}
	}

	return entity.Identity{}, errs.ErrInvalidToken
}

func (uc *TokenUseCase) parse(raw string, key []byte) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(uc.now),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

func identityFrom(claims *Claims) (entity.Identity, error) {
	if claims.UserID == "" {
		return entity.Identity{}, fmt.Errorf("%w: no user_id claim", errs.ErrInvalidToken)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return entity.Identity{}, fmt.Errorf("%w: user_id claim: %w", errs.ErrInvalidToken, err)
	}

	return entity.Identity{
		DisplayName: claims.Name,
		UserID:      id,
	}, nil
}
