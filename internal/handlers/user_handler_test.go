package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userdeck/backend/internal/dto"
	"github.com/userdeck/backend/internal/models"
	"github.com/userdeck/backend/internal/services"
	"gorm.io/gorm"
)

// stubRepo backs handler tests with a map keyed by id. It honors the store
// contract the handlers rely on: not-found and duplicate-key errors.
type stubRepo struct {
	users map[uuid.UUID]models.User
	order []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[uuid.UUID]models.User)}
}

func (s *stubRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	s.users[user.ID] = *user
	s.order = append(s.order, user.ID)
	return nil
}

func (s *stubRepo) ByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *stubRepo) List(_ context.Context, page, limit int) ([]models.User, int64, error) {
	all := s.newestFirst()
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (s *stubRepo) Update(_ context.Context, id uuid.UUID, fields map[string]any) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	email := fields["email"].(string)
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	u.FirstName = fields["first_name"].(string)
	u.LastName = fields["last_name"].(string)
	u.Email = email
	u.Phone = fields["phone"].(string)
	u.Address = fields["address"].(string)
	u.City = fields["city"].(string)
	u.State = fields["state"].(string)
	u.ZipCode = fields["zip_code"].(string)
	s.users[id] = u
	return &u, nil
}

func (s *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubRepo) Search(_ context.Context, query string, max int) ([]models.User, error) {
	q := strings.ToLower(query)
	var matches []models.User
	for _, u := range s.newestFirst() {
		if strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			matches = append(matches, u)
			if len(matches) == max {
				break
			}
		}
	}
	return matches, nil
}

func (s *stubRepo) All(_ context.Context) ([]models.User, error) {
	return s.newestFirst(), nil
}

func (s *stubRepo) newestFirst() []models.User {
	all := make([]models.User, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if u, ok := s.users[s.order[i]]; ok {
			all = append(all, u)
		}
	}
	return all
}

func newTestApp() (*fiber.App, *stubRepo) {
	repo := newStubRepo()
	handler := NewUserHandler(services.NewUserService(repo))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Success: false, Message: "Internal server error",
			})
		},
	})

	users := app.Group("/api/users")
	users.Get("/search", handler.SearchUsers)
	users.Get("/export", handler.ExportUsers)
	users.Get("/", handler.ListUsers)
	users.Post("/", handler.CreateUser)
	users.Get("/:id", handler.GetUser)
	users.Put("/:id", handler.UpdateUser)
	users.Delete("/:id", handler.DeleteUser)

	return app, repo
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	return sendJSON(t, app, http.MethodPost, path, payload)
}

func sendJSON(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func samplePayload() map[string]string {
	return map[string]string{
		"firstName": "Ann",
		"lastName":  "Smith",
		"email":     "ann@example.com",
		"phone":     "555-0100",
		"address":   "12 Elm Street",
		"city":      "Springfield",
		"state":     "IL",
		"zipCode":   "62704",
	}
}

func createUser(t *testing.T, app *fiber.App, payload map[string]string) map[string]any {
	t.Helper()
	resp := postJSON(t, app, "/api/users/", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	return body["data"].(map[string]any)
}

func TestCreateUser_Created(t *testing.T) {
	app, _ := newTestApp()

	resp := postJSON(t, app, "/api/users/", samplePayload())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "Ann", data["firstName"])
	assert.Equal(t, "ann@example.com", data["email"])
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	app, repo := newTestApp()

	resp := postJSON(t, app, "/api/users/", map[string]string{
		"firstName": "Ann",
		"zipCode":   "bad",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Validation error", body["message"])

	errs := body["errors"].([]any)
	assert.Len(t, errs, 7) // every failed field is reported, not just the first

	first := errs[0].(map[string]any)
	assert.Equal(t, "lastName", first["field"])
	assert.Equal(t, "Last name is required", first["message"])

	assert.Empty(t, repo.users, "validation failure must not write")
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	app, _ := newTestApp()
	createUser(t, app, samplePayload())

	payload := samplePayload()
	payload["firstName"] = "Other"
	resp := postJSON(t, app, "/api/users/", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email already exists", body["message"])
}

func TestGetUser(t *testing.T) {
	app, _ := newTestApp()
	created := createUser(t, app, samplePayload())

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+created["id"].(string), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, created["id"], body["data"].(map[string]any)["id"])
}

func TestGetUser_NotFound(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/users/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "User not found", body["message"])
}

func TestGetUser_InvalidID(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/users/not-a-uuid", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid user ID", body["message"])
}

func TestListUsers_Envelope(t *testing.T) {
	app, _ := newTestApp()
	for i := 0; i < 12; i++ {
		payload := samplePayload()
		payload["email"] = strings.Replace(payload["email"], "ann", "user"+string(rune('a'+i)), 1)
		createUser(t, app, payload)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/?page=2&limit=5", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["currentPage"])
	assert.Equal(t, float64(3), body["totalPages"])
	assert.Equal(t, float64(12), body["totalItems"])
	assert.Equal(t, true, body["hasNextPage"])
	assert.Equal(t, true, body["hasPrevPage"])
	assert.Len(t, body["data"].([]any), 5)
}

func TestUpdateUser(t *testing.T) {
	app, _ := newTestApp()
	created := createUser(t, app, samplePayload())

	payload := samplePayload()
	payload["city"] = "Shelbyville"
	resp := sendJSON(t, app, http.MethodPut, "/api/users/"+created["id"].(string), payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Shelbyville", body["data"].(map[string]any)["city"])
}

func TestUpdateUser_ValidationLeavesRecordUnchanged(t *testing.T) {
	app, repo := newTestApp()
	created := createUser(t, app, samplePayload())

	payload := samplePayload()
	payload["email"] = ""
	resp := sendJSON(t, app, http.MethodPut, "/api/users/"+created["id"].(string), payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Validation error", body["message"])

	id, err := uuid.Parse(created["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", repo.users[id].Email)
}

func TestUpdateUser_NotFound(t *testing.T) {
	app, _ := newTestApp()

	resp := sendJSON(t, app, http.MethodPut, "/api/users/"+uuid.NewString(), samplePayload())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decodeBody(t, resp)["message"])
}

func TestDeleteUser(t *testing.T) {
	app, repo := newTestApp()
	created := createUser(t, app, samplePayload())

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+created["id"].(string), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User deleted successfully", body["message"])
	assert.Empty(t, repo.users)
}

func TestDeleteUser_NotFound(t *testing.T) {
	app, repo := newTestApp()
	createUser(t, app, samplePayload())

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Len(t, repo.users, 1)
}

func TestSearchUsers_EmptyQuery(t *testing.T) {
	app, _ := newTestApp()
	createUser(t, app, samplePayload())

	req := httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Empty(t, body["data"])
}

func TestSearchUsers_Matches(t *testing.T) {
	app, _ := newTestApp()
	createUser(t, app, samplePayload())

	bo := samplePayload()
	bo["firstName"] = "Bo"
	bo["email"] = "bo@example.com"
	createUser(t, app, bo)

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?query=ann", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body := decodeBody(t, resp)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Ann", data[0].(map[string]any)["firstName"])
}

// search is resolved as a literal path, never as a user id
func TestSearchUsers_RoutePrecedence(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?query=x", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEqual(t, "Invalid user ID", body["message"])
}

func TestExportUsers(t *testing.T) {
	app, _ := newTestApp()
	createUser(t, app, samplePayload())

	req := httptest.NewRequest(http.MethodGet, "/api/users/export", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=users-export.csv", resp.Header.Get("Content-Disposition"))

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	lines := strings.Split(string(raw), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"First Name,Last Name,Email,Phone,Address,City,State,ZIP Code,Created At",
		lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"Ann","Smith","ann@example.com"`))
}
