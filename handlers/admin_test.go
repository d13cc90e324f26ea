package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"modu-consult/middleware"
)

// fakeCache is an in-memory utils.RedisClient.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) GetFromCache(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *fakeCache) SetToCache(ctx context.Context, key string, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) DeleteFromCache(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *fakeCache) Close() error { return nil }

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newAdminRouter(cache *fakeCache) *gin.Engine {
	h := NewAdminHandler(cache, "admin", "secret")
	router := gin.New()
	router.POST("/admin/login", h.Login)
	router.POST("/admin/logout", h.Logout)
	return router
}

func TestAdminLogin(t *testing.T) {
	cache := newFakeCache()
	router := newAdminRouter(cache)

	w := doJSON(t, router, http.MethodPost, "/admin/login", map[string]string{
		"username": "admin",
		"password": "secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("Expected a session token")
	}
	if _, err := cache.GetFromCache(context.Background(), middleware.SessionKey(resp.Token)); err != nil {
		t.Errorf("Token not stored in cache: %v", err)
	}

	foundCookie := false
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value == resp.Token {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Error("Session cookie not set")
	}
}

func TestAdminLoginBadCredentials(t *testing.T) {
	cache := newFakeCache()
	router := newAdminRouter(cache)

	for _, body := range []map[string]string{
		{"username": "admin", "password": "wrong"},
		{"username": "intruder", "password": "secret"},
		{"username": "admin"},
	} {
		w := doJSON(t, router, http.MethodPost, "/admin/login", body)
		if w.Code == http.StatusOK {
			t.Errorf("Login %v succeeded, expected rejection", body)
		}
	}
	if len(cache.values) != 0 {
		t.Errorf("Expected no tokens issued, cache holds %d entries", len(cache.values))
	}
}

func TestAdminLogoutRevokesToken(t *testing.T) {
	cache := newFakeCache()
	router := newAdminRouter(cache)

	w := doJSON(t, router, http.MethodPost, "/admin/login", map[string]string{
		"username": "admin",
		"password": "secret",
	})
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse login response: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: resp.Token})
	w2 := performRequest(router, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("Logout status = %d, want %d", w2.Code, http.StatusOK)
	}

	if _, err := cache.GetFromCache(context.Background(), middleware.SessionKey(resp.Token)); err == nil {
		t.Error("Token still valid after logout")
	}
}
