package auth

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed envelope around a token record. The record itself
// stays on the server; the envelope only lets us reject forged strings
// before touching storage.
type Claims struct {
	jwt.RegisteredClaims
	Tier string `json:"tier"`
}

// GenerateToken signs an HS256 envelope for rec. rec.ID becomes the jti.
func GenerateToken(rec *models.AuthToken, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rec.ID,
			Subject:   strconv.FormatInt(rec.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(rec.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
		Tier: rec.Tier.String(),
	})

	return token.SignedString(secretKey)
}

// GetTokenIDFromToken checks the envelope signature and returns the jti.
// Expiry is deliberately not checked here: the stored record's ExpiresAt is
// authoritative. Any envelope problem reads as an unknown token.
func GetTokenIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrTokenNotFound, err)
	}

	if !token.Valid || claims.ID == "" {
		return "", common.ErrTokenNotFound
	}

	return claims.ID, nil
}
