package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL é a validade dos tokens emitidos por IssueToken
const TokenTTL = 24 * time.Hour

// Claims são emitidas pelo serviço de login (fora deste módulo)
type Claims struct {
	Kind ActorKind `json:"kind"`
	Name string    `json:"name"`
	jwt.RegisteredClaims
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error_message": msg, "kind": "unauthorized"})
	c.Abort()
}

// Middleware valida o bearer token HS256 e grava o Actor no contexto
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			unauthorized(c, "empty token")
			return
		}

		actor, err := ParseToken(secret, tokenString)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// RequireKind bloqueia rotas que só um tipo de ator pode chamar
func RequireKind(kind ActorKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || actor.Kind != kind {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error_message": "only " + string(kind) + " accounts can perform this action", "kind": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ParseToken valida assinatura e expiração e converte as claims em Actor.
// Tokens sem exp são recusados.
func ParseToken(secret, tokenString string) (Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Actor{}, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Actor{}, jwt.ErrTokenInvalidClaims
	}
	if claims.Kind != ActorClient && claims.Kind != ActorCompany {
		return Actor{}, jwt.ErrTokenInvalidClaims
	}

	return Actor{ID: id, Kind: claims.Kind, Name: claims.Name}, nil
}

// IssueToken assina um token para o ator; usado por ferramentas e testes
func IssueToken(secret string, actor Actor) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Kind: actor.Kind,
		Name: actor.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	})
	return token.SignedString([]byte(secret))
}
