package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/gsqlai/internal/model"
	"github.com/xxxsen/gsqlai/internal/pkg/jwt"
	"github.com/xxxsen/gsqlai/internal/pkg/response"
)

const ContextUserIDKey = "user_id"

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type jwtAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret []byte) Authenticator {
	return &jwtAuthenticator{secret: secret}
}

func (a *jwtAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := jwt.ParseToken(token, a.secret)
	if err != nil {
		return nil, err
	}
	return &model.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

func Auth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		user, err := authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil || user == nil || user.ID == "" {
			logutil.GetLogger(c.Request.Context()).Debug("reject token", zap.Error(err))
			response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}
