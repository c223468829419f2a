package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var applicationExportHeaders = []string{"Student", "Email", "Job", "Status", "Preference", "Applied", "CV Approved"}

type applicationLister interface {
	ListForRecruiter(ctx context.Context, identity models.Identity, filter models.ApplicationFilter) (*dto.ApplicationList, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered export ready to be sent.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the recruiter application list as CSV or PDF.
type ExportService struct {
	apps      applicationLister
	renderers map[string]renderer
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(apps applicationLister) *ExportService {
	return &ExportService{
		apps: apps,
		renderers: map[string]renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		now: time.Now,
	}
}

// Applications renders the filtered recruiter applications in format.
func (s *ExportService) Applications(ctx context.Context, identity models.Identity, filter models.ApplicationFilter, format string) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Validation("invalid export request", map[string]string{"format": "Select a valid choice."})
	}

	list, err := s.apps.ListForRecruiter(ctx, identity, filter)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   "Applications",
		Headers: applicationExportHeaders,
		Rows:    make([]map[string]string, 0, len(list.Applications)),
	}
	for _, app := range list.Applications {
		data.Rows = append(data.Rows, map[string]string{
			"Student":     app.StudentDisplayName(),
			"Email":       app.StudentEmail,
			"Job":         app.JobTitle,
			"Status":      app.Status.Label(),
			"Preference":  strconv.Itoa(app.PreferenceOrder),
			"Applied":     app.AppliedDate.UTC().Format("2006-01-02 15:04"),
			"CV Approved": strconv.FormatBool(app.CVApprovedStatus),
		})
	}

	body, err := r.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("applications_%s%s", s.now().UTC().Format("20060102_150405"), r.Extension()),
		ContentType: r.ContentType(),
		Data:        body,
	}, nil
}
