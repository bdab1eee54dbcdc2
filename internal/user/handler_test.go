package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quickcourt/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupHandler(repo *MockRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(repo, testSecret, new(MockPendingStore), &fakeMailer{}, nil))

	r := gin.New()
	r.POST("/auth/signup", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", auth.AuthMiddleware(testSecret, nil), h.GetMe)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Register(t *testing.T) {
	repo := new(MockRepository)
	repo.On("EmailExists", mock.Anything, "asha@example.com").Return(false, nil)
	repo.On("Create", mock.Anything, "Asha", "asha@example.com", mock.Anything, auth.RoleUser, "", false).
		Return(&User{ID: 1, Name: "Asha", Email: "asha@example.com", Role: auth.RoleUser}, nil)

	r := setupHandler(repo)

	w := postJSON(r, "/auth/signup", `{"name":"Asha","email":"asha@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.AccessToken)
	assert.Equal(t, "asha@example.com", body.Data.User.Email)
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestHandler_RegisterValidation(t *testing.T) {
	r := setupHandler(new(MockRepository))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name": "x`},
		{"bad email", `{"name":"Asha","email":"nope","password":"secret123"}`},
		{"short password", `{"name":"Asha","email":"a@example.com","password":"123"}`},
		{"admin role not allowed", `{"name":"Asha","email":"a@example.com","password":"secret123","role":"admin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, postJSON(r, "/auth/signup", tt.body).Code)
		})
	}
}

func TestHandler_LoginUnauthorized(t *testing.T) {
	repo := new(MockRepository)
	hash, _ := auth.HashPassword("secret123")
	repo.On("FindByEmail", mock.Anything, "asha@example.com").Return(&User{ID: 1, PasswordHash: hash}, nil)

	w := postJSON(setupHandler(repo), "/auth/login", `{"email":"asha@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")
}

func TestHandler_GetMe(t *testing.T) {
	repo := new(MockRepository)
	repo.On("FindByID", mock.Anything, 7).Return(&User{ID: 7, Name: "Asha"}, nil)
	r := setupHandler(repo)

	token, err := auth.GenerateAccessToken(7, "asha@example.com", auth.RoleUser, testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil).WithContext(context.Background())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Asha"`)
}
