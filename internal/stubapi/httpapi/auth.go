package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/codemap/internal/common"
	"github.com/dmitrijs2005/codemap/internal/stubapi/users"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	TokenType    string  `json:"tokenType"`
	ExpiresIn    float64 `json:"expiresIn"`
	ExpiresAt    int64   `json:"expiresAt"`
}

func newTokenResponse(p *users.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    time.Until(p.ExpiresAt).Seconds(),
		ExpiresAt:    p.ExpiresAt.UnixMilli(),
	}
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "username and password are required")
		return
	}

	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	pair, err := s.users.Login(c.Request.Context(), req.Username, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			respondError(c, http.StatusUnauthorized, "BAD_CREDENTIALS", "invalid username or password")
			return
		}
		respondError(c, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "refreshToken is required")
		return
	}

	pair, err := s.users.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, common.ErrRefreshTokenExpired):
		respondError(c, http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "refresh token expired")
		return
	case errors.Is(err, common.ErrorUnauthorized):
		respondError(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "unknown or already used refresh token")
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "INTERNAL", "refresh failed")
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(pair))
}

// logout revokes the presented refresh token; unknown tokens are accepted.
func (s *Server) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "refreshToken is required")
		return
	}
	s.users.Revoke(c.Request.Context(), req.RefreshToken)
	c.Status(http.StatusNoContent)
}
