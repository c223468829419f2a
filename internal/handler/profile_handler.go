package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, identity models.Identity) (*models.Profile, error)
	Update(ctx context.Context, identity models.Identity, req service.ProfileUpdate) (*models.Profile, error)
	UploadCV(ctx context.Context, identity models.Identity, upload *service.Upload) (*models.StudentProfile, error)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary Current profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Update godoc
// @Summary Edit account and role profile
// @Description Students may attach a new CV, which resets its approval.
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param full_name formData string false "Full name"
// @Param company_name formData string false "Company (recruiters)"
// @Param cv formData file false "CV (students)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	var form struct {
		models.AccountUpdate
		CompanyName string `form:"company_name"`
	}
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	upload, closeUpload, err := formUpload(c, "cv")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload()

	profile, err := h.service.Update(requestContext(c), identity, service.ProfileUpdate{
		Account:     form.AccountUpdate,
		CompanyName: form.CompanyName,
		CV:          upload,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil, map[string]interface{}{"message": "Profile updated successfully!"})
}
