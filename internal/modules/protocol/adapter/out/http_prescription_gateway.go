package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"carepath/internal/modules/protocol/domain"
	protocolout "carepath/internal/modules/protocol/port/out"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/httpapi"
)

type HTTPPrescriptionGateway struct {
	api       *httpapi.Client
	listPath  string
	startPath string
}

func NewHTTPPrescriptionGateway(api *httpapi.Client, listPath, startPath string) protocolout.PrescriptionGateway {
	return &HTTPPrescriptionGateway{api: api, listPath: listPath, startPath: startPath}
}

type prescriptionsResponse struct {
	Success       bool                 `json:"success"`
	Error         string               `json:"error"`
	Prescriptions []prescriptionRecord `json:"prescriptions"`
}

type prescriptionRecord struct {
	ID               httpapi.FlexString `json:"id"`
	ProtocolID       httpapi.FlexString `json:"protocol_id"`
	Protocol         protocolRecord     `json:"protocol"`
	Status           string             `json:"status"`
	ActualStartDate  *string            `json:"actual_start_date"`
	PlannedStartDate *string            `json:"planned_start_date"`
	PlannedEndDate   *string            `json:"planned_end_date"`
	AvailableFrom    *string            `json:"available_from"`
	CurrentDay       int                `json:"current_day"`
	AdherenceRate    float64            `json:"adherence_rate"`
	Progress         float64            `json:"progress"`
}

type protocolRecord struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Duration    int         `json:"duration"`
	CoverImage  string      `json:"cover_image"`
	Doctor      doctorField `json:"doctor"`
}

func (g *HTTPPrescriptionGateway) List(ctx context.Context) ([]domain.Assignment, error) {
	var resp prescriptionsResponse
	if err := g.api.Do(ctx, http.MethodGet, g.listPath, nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "unsuccessful response"
		}
		return nil, fmt.Errorf("prescriptions: %s", msg)
	}
	out := make([]domain.Assignment, 0, len(resp.Prescriptions))
	for _, rec := range resp.Prescriptions {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (g *HTTPPrescriptionGateway) Start(ctx context.Context, assignmentID string) error {
	err := g.api.Do(ctx, http.MethodPost, httpapi.Expand(g.startPath, assignmentID), nil, nil, nil)
	var statusErr *httpapi.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
		if date := statusErr.Field("actual_start_date", "startDate"); date != "" {
			return &apperrors.AlreadyStartedError{AssignmentID: assignmentID, StartDate: date}
		}
	}
	return err
}

func (r prescriptionRecord) toDomain() domain.Assignment {
	return domain.Assignment{
		ID:         string(r.ID),
		ProtocolID: string(r.ProtocolID),
		Protocol: domain.Protocol{
			Name:         r.Protocol.Name,
			Description:  r.Protocol.Description,
			DurationDays: r.Protocol.Duration,
			CoverImage:   r.Protocol.CoverImage,
			Doctor:       string(r.Protocol.Doctor),
		},
		Status:           domain.ParseStatus(r.Status),
		PlannedStartDate: parseDate(r.PlannedStartDate),
		PlannedEndDate:   parseDate(r.PlannedEndDate),
		ActualStartDate:  parseDate(r.ActualStartDate),
		AvailableFrom:    parseDate(r.AvailableFrom),
		CurrentDay:       r.CurrentDay,
		AdherenceRate:    r.AdherenceRate,
		Progress:         r.Progress,
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

func parseDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// doctorField accepts a plain name or an object with name parts.
type doctorField string

func (d *doctorField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = doctorField(s)
		return nil
	}
	var obj struct {
		Name      string `json:"name"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Title     string `json:"title"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("doctor: %w", err)
	}
	name := obj.Name
	if name == "" {
		name = strings.TrimSpace(obj.FirstName + " " + obj.LastName)
	}
	if name != "" && obj.Title != "" {
		name = obj.Title + " " + name
	}
	*d = doctorField(name)
	return nil
}
