package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/auth"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/http/middleware"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/service"
	serviceMocks "github.com/devTanmayBang2104/scholar-share-platform/internal/service/mocks"
)

// asUser stands in for the auth middleware in handler-level tests.
func asUser(id string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, id)
		return c.Next()
	}
}

func jsonReq(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterAccount(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Post("/auth/register", RegisterAccount(mockSvc))

	t.Run("success", func(t *testing.T) {
		sess := &service.Session{User: model.User{ID: "u1", Name: "Priya"}, Token: "tok"}
		mockSvc.On("Register", mock.Anything, "Priya", "priya@example.com", "correct-horse").
			Return(sess, nil).Once()

		req := jsonReq(http.MethodPost, "/auth/register", fiber.Map{
			"name": "Priya", "email": "priya@example.com", "password": "correct-horse",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got service.Session
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, "tok", got.Token)
		mockSvc.AssertExpectations(t)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "", "x", "y").
			Return(nil, &service.ValidationError{Field: "name", Message: "must not be empty"}).Once()

		req := jsonReq(http.MethodPost, "/auth/register", fiber.Map{"email": "x", "password": "y"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	})

	t.Run("email taken", func(t *testing.T) {
		mockSvc.On("Register", mock.Anything, "Priya", "taken@example.com", "correct-horse").
			Return(nil, service.ErrEmailTaken).Once()

		req := jsonReq(http.MethodPost, "/auth/register", fiber.Map{
			"name": "Priya", "email": "taken@example.com", "password": "correct-horse",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "EMAIL_TAKEN", res.Error.Code)
	})
}

func TestLogin(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Post("/auth/login", Login(mockSvc))

	t.Run("success", func(t *testing.T) {
		sess := &service.Session{User: model.User{ID: "u1"}, Token: "tok"}
		mockSvc.On("Login", mock.Anything, "priya@example.com", "correct-horse").Return(sess, nil).Once()

		req := jsonReq(http.MethodPost, "/auth/login", fiber.Map{
			"email": "priya@example.com", "password": "correct-horse",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("bad credentials", func(t *testing.T) {
		mockSvc.On("Login", mock.Anything, "priya@example.com", "wrong").
			Return(nil, service.ErrUnauthenticated).Once()

		req := jsonReq(http.MethodPost, "/auth/login", fiber.Map{
			"email": "priya@example.com", "password": "wrong",
		})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHENTICATED", res.Error.Code)
	})
}

func TestListMaterials(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Get("/materials", ListMaterials(mockSvc))

	t.Run("filters are passed through", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(f repository.MaterialFilter) bool {
			return f.Search == "graph" &&
				f.Category == model.CategoryBooks &&
				f.Year == model.YearThird &&
				f.Sort == repository.SortPopular
		})).Return([]model.Material{{ID: uuid.NewString(), Title: "Graph Theory"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet,
			"/materials?search=graph&category=Books&year=3rd+Year&sort=popular", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Materials []model.Material `json:"materials"`
			Total     int              `json:"total"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, 1, body.Total)
		assert.Equal(t, "Graph Theory", body.Materials[0].Title)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown category", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything).
			Return(nil, &service.ValidationError{Field: "category", Message: "unknown category"}).Once()

		req := httptest.NewRequest(http.MethodGet, "/materials?category=Poetry", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, mock.Anything).
			Return(nil, service.ErrUnavailable).Once()

		req := httptest.NewRequest(http.MethodGet, "/materials", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestCreateMaterial(t *testing.T) {
	newApp := func(materials *serviceMocks.MockMaterialService, users *serviceMocks.MockUserService) *fiber.App {
		app := fiber.New()
		app.Post("/materials", asUser("u1"), CreateMaterial(materials, users))
		return app
	}

	multipartBody := func(t *testing.T) (*bytes.Buffer, string) {
		t.Helper()
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		w.WriteField("title", "Discrete Math Notes")
		w.WriteField("description", "Handwritten lecture notes")
		w.WriteField("category", string(model.CategoryHandwrittenNotes))
		w.WriteField("year", string(model.YearSecond))
		part, err := w.CreateFormFile("file", "notes.pdf")
		require.NoError(t, err)
		part.Write([]byte("%PDF-1.4"))
		w.Close()
		return body, w.FormDataContentType()
	}

	t.Run("success", func(t *testing.T) {
		mockMat := new(serviceMocks.MockMaterialService)
		mockUsers := new(serviceMocks.MockUserService)
		app := newApp(mockMat, mockUsers)

		mockUsers.On("Get", mock.Anything, "u1").
			Return(&model.User{ID: "u1", Name: "Priya"}, nil).Once()

		created := &model.Material{ID: uuid.NewString(), Title: "Discrete Math Notes"}
		mockMat.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateMaterialInput) bool {
			return in.Title == "Discrete Math Notes" &&
				in.Category == model.CategoryHandwrittenNotes &&
				in.Year == model.YearSecond &&
				in.FileName == "notes.pdf"
		}), model.Uploader{ID: "u1", Name: "Priya"}).Return(created, nil).Once()

		body, ct := multipartBody(t)
		req := httptest.NewRequest(http.MethodPost, "/materials", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got model.Material
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, created.ID, got.ID)
		mockMat.AssertExpectations(t)
		mockUsers.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		app := newApp(new(serviceMocks.MockMaterialService), new(serviceMocks.MockUserService))

		req := httptest.NewRequest(http.MethodPost, "/materials", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		mockMat := new(serviceMocks.MockMaterialService)
		mockUsers := new(serviceMocks.MockUserService)
		app := newApp(mockMat, mockUsers)

		mockUsers.On("Get", mock.Anything, "u1").
			Return(&model.User{ID: "u1", Name: "Priya"}, nil).Once()
		mockMat.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &service.ValidationError{Field: "category", Message: "unknown category"}).Once()

		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		w.WriteField("title", "x")
		w.WriteField("description", "y")
		w.WriteField("category", "Poetry")
		w.WriteField("year", string(model.YearFirst))
		part, _ := w.CreateFormFile("file", "x.pdf")
		part.Write([]byte("x"))
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/materials", body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	})
}

func TestGetMaterial(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Get("/materials/:id", GetMaterial(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		m := &model.Material{ID: id, Title: "OS Notes", Voted: []string{"u1", "u2"}}
		mockSvc.On("Get", mock.Anything, id).Return(m, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/materials/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got model.Material
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, []string{"u1", "u2"}, got.Voted)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/materials/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})
}

func TestDownloadMaterial(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Get("/materials/:id/download", DownloadMaterial(mockSvc))

	id := uuid.NewString()
	mockSvc.On("DownloadURL", mock.Anything, id, 15*time.Minute).
		Return("https://minio.local/presigned", nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/materials/"+id+"/download", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "https://minio.local/presigned", body["url"])
	mockSvc.AssertExpectations(t)
}

func TestVoteMaterial(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Post("/materials/:id/vote", asUser("u1"), VoteMaterial(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		m := &model.Material{ID: id, Upvotes: 1, Voted: []string{"u1"}}
		mockSvc.On("Vote", mock.Anything, id, "u1", model.VoteUp).Return(m, nil).Once()

		req := jsonReq(http.MethodPost, "/materials/"+id+"/vote", fiber.Map{"voteType": "upvote"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got model.Material
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, 1, got.Upvotes)
		mockSvc.AssertExpectations(t)
	})

	t.Run("already voted", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Vote", mock.Anything, id, "u1", model.VoteDown).
			Return(nil, service.ErrAlreadyVoted).Once()

		req := jsonReq(http.MethodPost, "/materials/"+id+"/vote", fiber.Map{"voteType": "downvote"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ALREADY_VOTED", res.Error.Code)
	})

	t.Run("invalid vote type", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Vote", mock.Anything, id, "u1", model.VoteType("sideways")).
			Return(nil, &service.ValidationError{Field: "voteType", Message: "must be upvote or downvote"}).Once()

		req := jsonReq(http.MethodPost, "/materials/"+id+"/vote", fiber.Map{"voteType": "sideways"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestReportMaterial(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Post("/materials/:id/report", asUser("u1"), ReportMaterial(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		rep := &model.Report{ID: uuid.NewString(), MaterialID: id, Status: model.ReportPending}
		mockSvc.On("Report", mock.Anything, id, "u1", "broken file").Return(rep, nil).Once()

		req := jsonReq(http.MethodPost, "/materials/"+id+"/report", fiber.Map{"reason": "broken file"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got model.Report
		json.NewDecoder(resp.Body).Decode(&got)
		assert.Equal(t, model.ReportPending, got.Status)
		mockSvc.AssertExpectations(t)
	})

	t.Run("material gone", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Report", mock.Anything, id, "u1", "spam").
			Return(nil, service.ErrNotFound).Once()

		req := jsonReq(http.MethodPost, "/materials/"+id+"/report", fiber.Map{"reason": "spam"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteMaterial(t *testing.T) {
	mockSvc := new(serviceMocks.MockMaterialService)
	app := fiber.New()
	app.Delete("/materials/:id", asUser("u1"), DeleteMaterial(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id, "u1").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/materials/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not the uploader", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id, "u1").Return(service.ErrForbidden).Once()

		req := httptest.NewRequest(http.MethodDelete, "/materials/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FORBIDDEN", res.Error.Code)
	})
}

func TestGetUserProfile(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Get("/users/:id", GetUserProfile(mockSvc))

	t.Run("password hash never leaves", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "u1").
			Return(&model.User{ID: "u1", Name: "Priya", Email: "priya@example.com", PasswordHash: "secret"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.NotContains(t, buf.String(), "secret")
		assert.NotContains(t, buf.String(), "priya@example.com")
	})

	t.Run("unknown user", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "ghost").Return(nil, service.ErrUserNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/users/ghost", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestUpdateUserProfile(t *testing.T) {
	mockSvc := new(serviceMocks.MockUserService)
	app := fiber.New()
	app.Put("/users/:id", asUser("u1"), UpdateUserProfile(mockSvc))

	t.Run("name and bio", func(t *testing.T) {
		mockSvc.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(in service.UpdateProfileInput) bool {
			return in.UserID == "u1" && in.RequesterID == "u1" &&
				in.Name != nil && *in.Name == "Priya S" &&
				in.Bio != nil && *in.Bio == "3rd year CS"
		})).Return(&model.User{ID: "u1", Name: "Priya S", Bio: "3rd year CS"}, nil).Once()

		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		w.WriteField("name", "Priya S")
		w.WriteField("bio", "3rd year CS")
		w.Close()

		req := httptest.NewRequest(http.MethodPut, "/users/u1", body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("editing someone else", func(t *testing.T) {
		mockSvc.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(in service.UpdateProfileInput) bool {
			return in.UserID == "u2" && in.RequesterID == "u1"
		})).Return(nil, service.ErrForbidden).Once()

		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		w.WriteField("name", "Hijack")
		w.Close()

		req := httptest.NewRequest(http.MethodPut, "/users/u2", body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	tokens, err := auth.NewManager("test-secret", time.Minute)
	require.NoError(t, err)

	mockMat := new(serviceMocks.MockMaterialService)
	mockUsers := new(serviceMocks.MockUserService)
	RegisterRoutes(app, nil, mockMat, mockUsers, tokens)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/auth/login", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("protected route without token", func(t *testing.T) {
		req := jsonReq(http.MethodPost, "/materials/abc/vote", fiber.Map{"voteType": "upvote"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHENTICATED", res.Error.Code)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		token, err := tokens.Issue("u1")
		require.NoError(t, err)

		id := uuid.NewString()
		mockMat.On("Vote", mock.Anything, id, "u1", model.VoteUp).
			Return(&model.Material{ID: id, Upvotes: 1}, nil).Once()

		req := jsonReq(http.MethodPost, "/materials/"+id+"/vote", fiber.Map{"voteType": "upvote"})
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockMat.AssertExpectations(t)
	})
}
