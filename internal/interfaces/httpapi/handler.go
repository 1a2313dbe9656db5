package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/scorewatch/scorewatch/internal/domain/reminder"
	"github.com/scorewatch/scorewatch/internal/domain/settings"
	"github.com/scorewatch/scorewatch/internal/monitor"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
)

type Handler struct {
	mon       *monitor.Monitor
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(mon *monitor.Monitor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		mon:       mon,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type eventsDTO struct {
	Status    string                      `json:"status"`
	Events    []event.Event               `json:"events"`
	GoalFlags map[string]monitor.GoalFlag `json:"goal_flags,omitempty"`
}

// ListEvents serves the sorted snapshot. `live=true` restricts it to
// in-progress matches; without the parameter the persisted filter mode
// applies.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEvents")
	defer span.End()

	liveOnly := h.mon.Settings().FilterLive
	if raw := r.URL.Query().Get("live"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: live must be a boolean", monitor.ErrInvalidInput))
			return
		}
		liveOnly = parsed
	}

	writeSuccess(ctx, w, http.StatusOK, eventsDTO{
		Status:    h.mon.Status(),
		Events:    h.mon.Events(liveOnly),
		GoalFlags: h.mon.GoalFlags(),
	})
}

type statusDTO struct {
	Status        string `json:"status"`
	EventCount    int    `json:"event_count"`
	LiveCount     int    `json:"live_count"`
	ReminderCount int    `json:"reminder_count"`
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatus")
	defer span.End()

	all := h.mon.Events(false)
	live := 0
	for _, item := range all {
		if item.Live() {
			live++
		}
	}

	writeSuccess(ctx, w, http.StatusOK, statusDTO{
		Status:        h.mon.Status(),
		EventCount:    len(all),
		LiveCount:     live,
		ReminderCount: len(h.mon.Reminders()),
	})
}

func (h *Handler) RequestRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RequestRefresh")
	defer span.End()

	h.mon.Refresh()
	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListReminders")
	defer span.End()

	items := h.mon.Reminders()
	out := make([]reminderDTO, 0, len(items))
	for _, item := range items {
		out = append(out, reminderToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type createReminderRequest struct {
	MatchName   string `json:"match_name" validate:"required"`
	TriggerAt   int64  `json:"trigger_at" validate:"required,gt=0"`
	League      string `json:"league"`
	Label       string `json:"label"`
	HomeLogoURL string `json:"home_logo_url"`
	AwayLogoURL string `json:"away_logo_url"`
	TuneRef     string `json:"tune_ref"`
}

type reminderDTO struct {
	Key         string `json:"key"`
	MatchName   string `json:"match_name"`
	TriggerAt   int64  `json:"trigger_at"`
	TriggerTime string `json:"trigger_time"`
	League      string `json:"league,omitempty"`
	Label       string `json:"label,omitempty"`
	TuneRef     string `json:"tune_ref,omitempty"`
}

func reminderToDTO(item reminder.Reminder) reminderDTO {
	return reminderDTO{
		Key:         item.Key(),
		MatchName:   item.MatchName,
		TriggerAt:   item.TriggerAt,
		TriggerTime: time.Unix(item.TriggerAt, 0).UTC().Format(time.RFC3339),
		League:      item.League,
		Label:       item.Label,
		TuneRef:     item.TuneRef,
	}
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateReminder")
	defer span.End()

	var req createReminderRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON body", monitor.ErrInvalidInput))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", monitor.ErrInvalidInput, err))
		return
	}

	item := reminder.Reminder{
		MatchName:   req.MatchName,
		TriggerAt:   req.TriggerAt,
		League:      req.League,
		Label:       req.Label,
		HomeLogoURL: req.HomeLogoURL,
		AwayLogoURL: req.AwayLogoURL,
		TuneRef:     req.TuneRef,
	}
	if err := h.mon.AddReminder(ctx, item); err != nil {
		h.logger.WarnContext(ctx, "create reminder failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, reminderToDTO(item))
}

func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteReminder")
	defer span.End()

	key := r.PathValue("key")
	if err := h.mon.RemoveReminder(ctx, key); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"deleted": key})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSettings")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.mon.Settings())
}

type updateSettingsRequest struct {
	League           leagueRequest   `json:"league" validate:"required"`
	CustomLeagues    []leagueRequest `json:"custom_leagues" validate:"dive"`
	CustomLeagueMode bool            `json:"custom_league_mode"`
	DiscoveryEnabled bool            `json:"discovery_enabled"`
	SoundEnabled     bool            `json:"sound_enabled"`
	FilterLive       bool            `json:"filter_live"`
	Theme            map[string]any  `json:"theme"`
}

type leagueRequest struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// UpdateSettings replaces everything except reminders, which have their own
// endpoints.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSettings")
	defer span.End()

	var req updateSettingsRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON body", monitor.ErrInvalidInput))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", monitor.ErrInvalidInput, err))
		return
	}

	next := settings.Settings{
		League:           settings.League{Name: req.League.Name, URL: req.League.URL},
		CustomLeagueMode: req.CustomLeagueMode,
		DiscoveryEnabled: req.DiscoveryEnabled,
		SoundEnabled:     req.SoundEnabled,
		FilterLive:       req.FilterLive,
		Theme:            req.Theme,
		Reminders:        h.mon.Reminders(),
	}
	for _, item := range req.CustomLeagues {
		next.CustomLeagues = append(next.CustomLeagues, settings.League{Name: item.Name, URL: item.URL})
	}

	if err := h.mon.UpdateSettings(ctx, next); err != nil {
		h.logger.ErrorContext(ctx, "update settings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.mon.Settings())
}
