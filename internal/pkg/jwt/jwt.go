package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/leadcrm/crm-backend-go/internal/domain/auth"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const TokenTypeAccess = "access"

type Service interface {
	GenerateAccessToken(identity user.Identity) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken issues a token carrying the identity claims read by the
// auth middleware. Tokens are normally minted by the identity provider; this
// exists for tooling and tests that share the signing secret.
func (j *JWTService) GenerateAccessToken(identity user.Identity) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id": identity.UserID,
		"role":    string(identity.Role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	}
	if identity.Email != "" {
		claims["email"] = identity.Email
	}
	if identity.FirstName != "" {
		claims["first_name"] = identity.FirstName
	}
	if identity.LastName != "" {
		claims["last_name"] = identity.LastName
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// IdentityFromClaims reads the caller identity from verified access token
// claims. user_id and a known role are mandatory.
func IdentityFromClaims(claims map[string]interface{}) (user.Identity, error) {
	if tokenType, _ := claims["type"].(string); tokenType != TokenTypeAccess {
		return user.Identity{}, auth.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || !user.Role(role).IsValid() {
		return user.Identity{}, auth.ErrInvalidClaims
	}

	identity := user.Identity{UserID: userID, Role: user.Role(role)}
	identity.Email, _ = claims["email"].(string)
	identity.FirstName, _ = claims["first_name"].(string)
	identity.LastName, _ = claims["last_name"].(string)
	return identity, nil
}
