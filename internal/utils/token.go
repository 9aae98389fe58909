package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ghprime/jwt-pizza-service/internal/model"
)

// userClaims signs the sanitized user record itself, so a verified token is
// enough to rebuild the caller identity without a database read.
type userClaims struct {
	model.User
	jwt.RegisteredClaims
}

// SignUserToken builds an HS256 token over the user record. The token's
// third dot separated segment doubles as the session key stored by the DAO.
func SignUserToken(secret string, user model.User) (string, error) {
	claims := userClaims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseUserToken verifies the signature and returns the embedded user.
func ParseUserToken(secret, token string) (model.User, error) {
	var claims userClaims
	tok, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.User{}, err
	}
	if !tok.Valid {
		return model.User{}, jwt.ErrTokenUnverifiable
	}
	return claims.User, nil
}
