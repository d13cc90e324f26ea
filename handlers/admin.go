package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"modu-consult/middleware"
	"modu-consult/utils"
)

const sessionTTL = 24 * time.Hour

// AdminHandler owns login/logout for the admin console. Authentication is a
// boolean capability: a matching credential pair yields an opaque token in
// Redis, and holding a live token is the entire admin check.
type AdminHandler struct {
	cache   utils.RedisClient
	adminID string
	adminPW string
}

func NewAdminHandler(cache utils.RedisClient, adminID, adminPW string) *AdminHandler {
	return &AdminHandler{
		cache:   cache,
		adminID: adminID,
		adminPW: adminPW,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "아이디와 비밀번호를 입력해주세요.",
		})
		return
	}

	if req.Username != h.adminID || req.Password != h.adminPW {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "아이디 또는 비밀번호가 틀렸습니다.",
		})
		return
	}

	token, err := newSessionToken()
	if err != nil {
		log.Printf("Failed to generate session token: %v", err)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "서버 오류가 발생했습니다.",
		})
		return
	}

	key := middleware.SessionKey(token)
	if err := h.cache.SetToCache(c.Request.Context(), key, "1", sessionTTL); err != nil {
		log.Printf("Failed to store session token: %v", err)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "서버 오류가 발생했습니다.",
		})
		return
	}

	c.SetCookie(middleware.SessionCookie, token, int(sessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		if err := h.cache.DeleteFromCache(c.Request.Context(), middleware.SessionKey(token)); err != nil {
			log.Printf("Failed to revoke session token: %v", err)
		}
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func newSessionToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
