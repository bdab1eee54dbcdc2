package venue

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"quickcourt/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "venue-test-secret"

func setupRouter(repo *MockRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(repo, stubUsers{}))

	r := gin.New()
	r.GET("/venues", h.ListVenues)
	r.GET("/venues/:id", h.GetVenue)

	protected := r.Group("/", auth.AuthMiddleware(testSecret, nil))
	protected.POST("/venues", auth.RequireRole(auth.RoleFacilityOwner, auth.RoleAdmin), h.CreateVenue)
	protected.POST("/venues/:id/courts", auth.RequireRole(auth.RoleFacilityOwner, auth.RoleAdmin), h.AddCourt)
	protected.DELETE("/venues/:id", auth.RequireRole(auth.RoleAdmin), h.DeleteVenue)
	return r
}

func bearer(t *testing.T, id int, role string) string {
	token, err := auth.GenerateAccessToken(id, "x@example.com", role, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHandler_GetVenue(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetVenue", mock.Anything, 1).Return(ownedVenue(3), nil)
	repo.On("GetVenue", mock.Anything, 2).Return(nil, sql.ErrNoRows)
	r := setupRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/venues/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":{"id":1`)
	assert.Contains(t, w.Body.String(), `"Court 1"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/venues/2", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"venue not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/venues/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListVenues(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListVenues", mock.Anything, "tennis").Return([]Venue{{ID: 1, Name: "A"}}, nil)
	r := setupRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/venues?sport=tennis", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"A"`)
}

func TestHandler_CreateVenueRoles(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateVenue", mock.Anything, mock.Anything).Return(&Venue{ID: 5, Name: "New"}, nil)
	r := setupRouter(repo)

	body := `{"name":"New","description":"d","address":"a","courts":[{"name":"C1","sport":"tennis","price_per_hour":500,"operating_hours":"06:00-22:00"}]}`

	req := httptest.NewRequest(http.MethodPost, "/venues", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, 2, auth.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/venues", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, 3, auth.RoleFacilityOwner))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_AddCourtForbidden(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetVenue", mock.Anything, 1).Return(ownedVenue(3), nil)
	r := setupRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/venues/1/courts",
		bytes.NewBufferString(`{"name":"C2","sport":"tennis","price_per_hour":500,"operating_hours":"06:00-22:00"}`))
	req.Header.Set("Authorization", bearer(t, 4, auth.RoleFacilityOwner))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_DeleteVenue(t *testing.T) {
	repo := new(MockRepository)
	repo.On("DeleteVenue", mock.Anything, 1).Return(true, nil)
	r := setupRouter(repo)

	req := httptest.NewRequest(http.MethodDelete, "/venues/1", nil)
	req.Header.Set("Authorization", bearer(t, 1, auth.RoleAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
