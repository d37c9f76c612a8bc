package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"

	"rollcall/backend/internal/config"
)

// AllGroups in the groups claim grants access to every group.
const AllGroups = "*"

const claimsKey = "operator_claims"

// OperatorClaims are the claims of an operator API token.
type OperatorClaims struct {
	Groups []string `json:"groups"`
	jwt.RegisteredClaims
}

// CanAccess reports whether the token covers groupID.
func (oc *OperatorClaims) CanAccess(groupID string) bool {
	return lo.Contains(oc.Groups, AllGroups) || lo.Contains(oc.Groups, groupID)
}

// GenerateToken signs an operator token for the given groups.
func GenerateToken(secret []byte, operator string, groups []string, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty JWT secret")
	}
	claims := OperatorClaims{
		Groups: groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			Issuer:    config.APITokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.APITokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(secret []byte, tokenString string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.APITokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Authenticate checks the bearer token and stores its claims in the context.
func (h *Handler) Authenticate(c *gin.Context) {
	tokenString, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}

	claims, err := ParseToken(h.JWTSecret, tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	c.Set(claimsKey, claims)
	c.Next()
}

// RequireGroupAccess rejects tokens that do not cover the :id path parameter.
func (h *Handler) RequireGroupAccess(c *gin.Context) {
	if !operatorClaims(c).CanAccess(c.Param("id")) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No access to this group"})
		return
	}
	c.Next()
}

func operatorClaims(c *gin.Context) *OperatorClaims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*OperatorClaims); ok {
			return claims
		}
	}
	return &OperatorClaims{}
}
