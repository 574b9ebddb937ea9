package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/auth"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/http/middleware"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/service"
)

const downloadURLTTL = 15 * time.Minute

// RegisterRoutes attaches all HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, call the service, translate errors.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	materials service.MaterialService,
	users service.UserService,
	tokens *auth.Manager,
) {
	authed := middleware.Auth(tokens)

	app.Get("/openapi.yaml", OpenAPISpec())
	app.Get("/docs", SwaggerUI())

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/auth/register", RegisterAccount(users))
	app.Post("/auth/login", Login(users))

	app.Get("/materials", ListMaterials(materials))
	app.Post("/materials", authed, CreateMaterial(materials, users))
	app.Get("/materials/:id", GetMaterial(materials))
	app.Get("/materials/:id/download", DownloadMaterial(materials))
	app.Post("/materials/:id/vote", authed, VoteMaterial(materials))
	app.Post("/materials/:id/report", authed, ReportMaterial(materials))
	app.Delete("/materials/:id", authed, DeleteMaterial(materials))

	app.Get("/users/:id", GetUserProfile(users))
	app.Get("/users/:id/materials", ListUserMaterials(materials))
	app.Put("/users/:id", authed, UpdateUserProfile(users))
}

// OpenAPISpec serves the static API description.
func OpenAPISpec() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	}
}

// SwaggerUI serves an inline Swagger UI page pointed at /openapi.yaml.
func SwaggerUI() fiber.Handler {
	return func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	}
}

// HealthCheck reports DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain 200 for orchestrator probes.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterAccount creates a new account and returns a session token.
func RegisterAccount(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}

		sess, err := users.Register(c.UserContext(), body.Name, body.Email, body.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

// Login exchanges credentials for a session token.
func Login(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}

		sess, err := users.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sess)
	}
}

// ListMaterials lists materials with optional search/category/year/sort
// filters. Filtering happens server-side so every response reflects the
// current data set.
func ListMaterials(materials service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := repository.MaterialFilter{
			Search:   c.Query("search"),
			Category: model.Category(c.Query("category")),
			Year:     model.AcademicYear(c.Query("year")),
			Sort:     repository.SortOrder(c.Query("sort")),
		}

		items, err := materials.List(c.UserContext(), f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"materials": items, "total": len(items)})
	}
}

// CreateMaterial shares a new material. Expects multipart/form-data with
// title, description, category, year and file fields.
func CreateMaterial(materials service.MaterialService, users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		userID := c.Locals(middleware.UserIDLocalKey).(string)
		u, err := users.Get(c.UserContext(), userID)
		if err != nil {
			return writeServiceError(c, err)
		}

		m, err := materials.Create(c.UserContext(), service.CreateMaterialInput{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			Category:    model.Category(c.FormValue("category")),
			Year:        model.AcademicYear(c.FormValue("year")),
			FileName:    fh.Filename,
			ContentType: ct,
			File:        f,
			Size:        fh.Size,
		}, model.Uploader{ID: u.ID, Name: u.Name})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// GetMaterial returns one material with its voter ids and reports.
func GetMaterial(materials service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := materials.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(m)
	}
}

// DownloadMaterial returns a time-limited URL for the stored document.
func DownloadMaterial(materials service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		url, err := materials.DownloadURL(c.UserContext(), c.Params("id"), downloadURLTTL)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url, "expires_in_seconds": int(downloadURLTTL.Seconds())})
	}
}

// VoteMaterial casts an up or down vote. Each user gets at most one vote per
// material; a repeat attempt comes back as 409 ALREADY_VOTED.
func VoteMaterial(materials service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			VoteType string `json:"voteType"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}

		userID := c.Locals(middleware.UserIDLocalKey).(string)
		m, err := materials.Vote(c.UserContext(), c.Params("id"), userID, model.VoteType(body.VoteType))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(m)
	}
}

// ReportMaterial files a moderation report against a material.
func ReportMaterial(materials service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}

		userID := c.Locals(middleware.UserIDLocalKey).(string)
		rep, err := materials.Report(c.UserContext(), c.Params("id"), userID, body.Reason)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rep)
	}
}

// DeleteMaterial removes a material; only its uploader may do so.
func DeleteMaterial(materials service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals(middleware.UserIDLocalKey).(string)
		if err := materials.Delete(c.UserContext(), c.Params("id"), userID); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetUserProfile returns the public view of an account.
func GetUserProfile(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := users.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u.PublicProfile())
	}
}

// ListUserMaterials lists the materials shared by one user.
func ListUserMaterials(materials service.MaterialService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := materials.ListByUploader(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"materials": items, "total": len(items)})
	}
}

// UpdateUserProfile edits name, bio, or profile picture. Expects
// multipart/form-data; absent fields stay unchanged.
func UpdateUserProfile(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.UpdateProfileInput{
			UserID:      c.Params("id"),
			RequesterID: c.Locals(middleware.UserIDLocalKey).(string),
		}

		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "expected multipart form data")
		}
		if vs := form.Value["name"]; len(vs) > 0 {
			in.Name = &vs[0]
		}
		if vs := form.Value["bio"]; len(vs) > 0 {
			in.Bio = &vs[0]
		}
		if fhs := form.File["picture"]; len(fhs) > 0 {
			fh := fhs[0]
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			in.Picture = f
			in.PictureName = fh.Filename
			in.PictureType = fh.Header.Get("Content-Type")
			in.PictureSize = fh.Size
		}

		u, err := users.UpdateProfile(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(u)
	}
}
