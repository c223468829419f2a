package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type listerStub struct {
	list   *dto.ApplicationList
	filter models.ApplicationFilter
}

func (l *listerStub) ListForRecruiter(ctx context.Context, identity models.Identity, filter models.ApplicationFilter) (*dto.ApplicationList, error) {
	l.filter = filter
	return l.list, nil
}

func exportFixture() (*ExportService, *listerStub) {
	stub := &listerStub{list: &dto.ApplicationList{Applications: []models.ApplicationDetail{
		{
			Application: models.Application{
				Status:          models.StatusShortlistedOA,
				PreferenceOrder: 2,
				AppliedDate:     time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC),
			},
			JobTitle:         "Backend Engineer",
			StudentUsername:  "asha",
			StudentFullName:  "Asha Rao",
			StudentEmail:     "asha@campus.test",
			CVApprovedStatus: true,
		},
	}}}
	svc := NewExportService(stub)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, stub
}

func TestExportApplicationsCSV(t *testing.T) {
	svc, stub := exportFixture()
	filter := models.ApplicationFilter{Status: models.StatusShortlistedOA}

	file, err := svc.Applications(context.Background(), models.Identity{UserID: "r1"}, filter, "")
	require.NoError(t, err)

	assert.Equal(t, "applications_20260301_120000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, filter, stub.filter)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, applicationExportHeaders, records[0])
	assert.Equal(t, []string{"Asha Rao", "asha@campus.test", "Backend Engineer", "Shortlisted for OA", "2", "2026-02-03 09:30", "true"}, records[1])
}

func TestExportApplicationsPDF(t *testing.T) {
	svc, _ := exportFixture()

	file, err := svc.Applications(context.Background(), models.Identity{UserID: "r1"}, models.ApplicationFilter{}, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "applications_20260301_120000.pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportApplicationsUnknownFormat(t *testing.T) {
	svc, _ := exportFixture()

	_, err := svc.Applications(context.Background(), models.Identity{UserID: "r1"}, models.ApplicationFilter{}, "xlsx")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "format")
}
