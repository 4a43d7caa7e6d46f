package jwt

import (
	jwt2 "github.com/golang-jwt/jwt/v5"
)

// UserClaimKey is the context key under which verified operator claims are stored.
const UserClaimKey = "user_claims"

type UserClaims struct {
	jwt2.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

func CreateToken(secret []byte, claims *UserClaims) (string, error) {
	return jwt2.NewWithClaims(jwt2.SigningMethodHS512, claims).SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*UserClaims, error) {
	token, err := jwt2.ParseWithClaims(tokenString, &UserClaims{}, func(t *jwt2.Token) (interface{}, error) {
		return secret, nil
	}, jwt2.WithValidMethods([]string{jwt2.SigningMethodHS512.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, jwt2.ErrTokenInvalidClaims
	}
	return claims, nil
}
