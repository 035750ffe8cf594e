package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"crewdesk/config"
	"crewdesk/models"
)

// Claims is the payload shared by all three services: the username travels
// in the registered "sub" claim, the role in a private claim. The signing
// secret is shared, so any service can verify a token minted by identity.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

const tokenLifetime = 60 * time.Minute

// GenerateToken signs an access token for the given user.
func GenerateToken(username string, role models.Role) (string, error) {
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ParseToken validates a bearer token and returns the principal it asserts.
// Any decode, signature or expiry failure, and any token missing the
// username or role claims, is an error; callers turn it into a 401.
func ParseToken(tokenString string) (*models.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, errors.New("token missing required claims")
	}

	return &models.Principal{
		Username: claims.Subject,
		Role:     claims.Role,
		Token:    tokenString,
	}, nil
}
