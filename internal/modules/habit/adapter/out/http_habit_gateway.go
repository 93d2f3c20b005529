package out

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carepath/internal/modules/habit/domain"
	habitout "carepath/internal/modules/habit/port/out"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/httpapi"
)

type HTTPHabitGateway struct {
	api          *httpapi.Client
	habitsPath   string
	progressPath string
}

func NewHTTPHabitGateway(api *httpapi.Client, habitsPath, progressPath string) habitout.HabitGateway {
	return &HTTPHabitGateway{api: api, habitsPath: strings.TrimRight(habitsPath, "/"), progressPath: progressPath}
}

type habitRecord struct {
	ID       httpapi.FlexString `json:"id"`
	Title    string             `json:"title"`
	Category string             `json:"category"`
	Progress []progressRecord   `json:"progress"`
}

type progressRecord struct {
	Date      string `json:"date"`
	IsChecked bool   `json:"isChecked"`
}

type habitsResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Habits  []habitRecord `json:"habits"`
	Total   int           `json:"total"`
}

type habitResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Habit   *habitRecord `json:"habit"`
}

type habitRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

type toggleRequest struct {
	HabitID string `json:"habitId"`
	Date    string `json:"date"`
}

type toggleResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	IsChecked bool   `json:"isChecked"`
	IsUpdate  bool   `json:"isUpdate"`
}

func (g *HTTPHabitGateway) List(ctx context.Context, month domain.YearMonth) ([]domain.Habit, error) {
	query := url.Values{"month": []string{month.First().Format(time.DateOnly)}}
	var resp habitsResponse
	if err := g.api.Do(ctx, http.MethodGet, g.habitsPath, query, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, unsuccessful("list habits", resp.Error)
	}
	out := make([]domain.Habit, 0, len(resp.Habits))
	for _, rec := range resp.Habits {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (g *HTTPHabitGateway) Create(ctx context.Context, draft domain.Draft) (domain.Habit, error) {
	return g.save(ctx, http.MethodPost, g.habitsPath, "", draft)
}

func (g *HTTPHabitGateway) Update(ctx context.Context, id string, draft domain.Draft) (domain.Habit, error) {
	return g.save(ctx, http.MethodPut, g.itemPath(id), id, draft)
}

func (g *HTTPHabitGateway) Delete(ctx context.Context, id string) error {
	var resp habitResponse
	if err := g.api.Do(ctx, http.MethodDelete, g.itemPath(id), nil, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return unsuccessful("delete habit", resp.Error)
	}
	return nil
}

func (g *HTTPHabitGateway) Toggle(ctx context.Context, habitID, date string) (domain.ToggleResult, error) {
	var resp toggleResponse
	if err := g.api.Do(ctx, http.MethodPost, g.progressPath, nil, toggleRequest{HabitID: habitID, Date: date}, &resp); err != nil {
		return domain.ToggleResult{}, err
	}
	if !resp.Success {
		return domain.ToggleResult{}, unsuccessful("toggle progress", resp.Error)
	}
	return domain.ToggleResult{IsChecked: resp.IsChecked, IsUpdate: resp.IsUpdate}, nil
}

// save sends draft. An update response without a habit echoes the draft under
// id; a create response must carry the new habit's id.
func (g *HTTPHabitGateway) save(ctx context.Context, method, path, id string, draft domain.Draft) (domain.Habit, error) {
	var resp habitResponse
	body := habitRequest{Title: draft.Title, Category: string(draft.Category)}
	if err := g.api.Do(ctx, method, path, nil, body, &resp); err != nil {
		return domain.Habit{}, err
	}
	if !resp.Success {
		return domain.Habit{}, unsuccessful("save habit", resp.Error)
	}
	var h domain.Habit
	if resp.Habit != nil {
		h = resp.Habit.toDomain()
	} else {
		h = domain.Habit{Title: draft.Title, Category: draft.Category}
	}
	if h.ID == "" {
		h.ID = id
	}
	if h.ID == "" {
		return domain.Habit{}, fmt.Errorf("%w: save habit: response has no habit id", apperrors.ErrHabitRequestFailed)
	}
	return h, nil
}

func (g *HTTPHabitGateway) itemPath(id string) string {
	return g.habitsPath + "/" + url.PathEscape(id)
}

func (r habitRecord) toDomain() domain.Habit {
	h := domain.Habit{
		ID:       string(r.ID),
		Title:    r.Title,
		Category: domain.Category(strings.ToLower(r.Category)),
	}
	if r.Progress == nil {
		return h
	}
	h.Progress = make([]domain.ProgressEntry, 0, len(r.Progress))
	for _, p := range r.Progress {
		h = domain.Merge(h, dayKey(p.Date), p.IsChecked)
	}
	return h
}

// dayKey trims timestamps such as 2026-03-01T00:00:00.000Z to their date.
func dayKey(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) > len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, v[:len(time.DateOnly)]); err == nil {
			return v[:len(time.DateOnly)]
		}
	}
	return v
}

func unsuccessful(op, msg string) error {
	if msg == "" {
		msg = "unsuccessful response"
	}
	return fmt.Errorf("%s: %s", op, msg)
}
