package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type studentDashboardService interface {
	Student(ctx context.Context, identity models.Identity) (*dto.StudentDashboard, error)
}

type studentApplicationService interface {
	ListForStudent(ctx context.Context, identity models.Identity) ([]models.ApplicationDetail, error)
}

// StudentHandler serves the student's own area.
type StudentHandler struct {
	dashboard    studentDashboardService
	profiles     profileService
	applications studentApplicationService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(dashboard studentDashboardService, profiles profileService, applications studentApplicationService) *StudentHandler {
	return &StudentHandler{dashboard: dashboard, profiles: profiles, applications: applications}
}

// Dashboard godoc
// @Summary Student dashboard
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentHandler) Dashboard(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	dashboard, err := h.dashboard.Student(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// UploadCV godoc
// @Summary Upload a CV
// @Description Stores a new CV without touching its approval flag.
// @Tags Student
// @Accept multipart/form-data
// @Produce json
// @Param cv formData file true "CV (.pdf, .doc, .docx up to 5MB)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /student/cv [post]
func (h *StudentHandler) UploadCV(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	upload, closeUpload, err := formUpload(c, "cv")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload()

	student, err := h.profiles.UploadCV(requestContext(c), identity, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil, map[string]interface{}{"message": "CV uploaded successfully!"})
}

// Applications godoc
// @Summary Own applications
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/applications [get]
func (h *StudentHandler) Applications(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	apps, err := h.applications.ListForStudent(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, nil)
}
