package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/group-scheduler/internal/application"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.Schedule, error)
	GetSchedule(ctx context.Context, scheduleID string) (application.Schedule, error)
	ListSchedules(ctx context.Context, principal application.Principal) ([]application.Schedule, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, scheduleID string) error
	ToggleDate(ctx context.Context, params application.ToggleDateParams) (application.Schedule, error)
	AddTimeOption(ctx context.Context, params application.AddTimeOptionParams) (application.Schedule, error)
	ToggleVote(ctx context.Context, params application.ToggleVoteParams) (application.Schedule, error)
	DeleteTimeOption(ctx context.Context, params application.DeleteTimeOptionParams) (application.Schedule, error)
}

type identityService interface {
	Resolve(ctx context.Context, principal application.Principal, scheduleID string) (application.Resolution, error)
	Join(ctx context.Context, params application.JoinScheduleParams) (application.Schedule, application.Participant, error)
}

type ScheduleHandler struct {
	schedules scheduleService
	identity  identityService
	responder responder
}

func NewScheduleHandler(schedules scheduleService, identity identityService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, identity: identity, responder: newResponder(logger)}
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedules, err := h.schedules.ListSchedules(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSchedulesResponse{
		Schedules: toScheduleDTOs(schedules),
	})
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.schedules.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: principal,
		Name:      req.Name,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, application.Resolution{NeedsJoin: true}, http.StatusCreated)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil || h.identity == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.schedules.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resolution, err := h.identity.Resolve(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, resolution, http.StatusOK)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.schedules.DeleteSchedule(r.Context(), principal, scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Join registers a participant identity for the caller.
func (h *ScheduleHandler) Join(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.identity == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req joinScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, participant, err := h.identity.Join(r.Context(), application.JoinScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Name:       req.Name,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resolution := application.Resolution{ParticipantID: participant.ID}
	h.renderSchedule(r.Context(), w, schedule, resolution, http.StatusCreated)
}

// ToggleDate flips the caller's availability mark on a calendar date.
func (h *ScheduleHandler) ToggleDate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil || h.identity == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req toggleDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resolution, err := h.identity.Resolve(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	schedule, err := h.schedules.ToggleDate(r.Context(), application.ToggleDateParams{
		ScheduleID:    scheduleID,
		Date:          req.Date,
		ParticipantID: resolution.ParticipantID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, resolution, http.StatusOK)
}

// AddOption proposes a new time option.
func (h *ScheduleHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil || h.identity == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req addTimeOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resolution, err := h.identity.Resolve(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	schedule, err := h.schedules.AddTimeOption(r.Context(), application.AddTimeOptionParams{
		ScheduleID: scheduleID,
		Time:       req.Time,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, resolution, http.StatusCreated)
}

// ToggleVote flips the caller's vote on a time option. Callers without a
// participant identity get the unchanged schedule back.
func (h *ScheduleHandler) ToggleVote(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil || h.identity == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	optionID, ok := OptionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(optionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOptionID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resolution, err := h.identity.Resolve(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	schedule, err := h.schedules.ToggleVote(r.Context(), application.ToggleVoteParams{
		ScheduleID:    scheduleID,
		OptionID:      optionID,
		ParticipantID: resolution.ParticipantID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, resolution, http.StatusOK)
}

// DeleteOption removes a time option. Removing an already absent option
// succeeds and returns the unchanged schedule.
func (h *ScheduleHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.schedules == nil || h.identity == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	optionID, ok := OptionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(optionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidOptionID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resolution, err := h.identity.Resolve(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	schedule, err := h.schedules.DeleteTimeOption(r.Context(), application.DeleteTimeOptionParams{
		ScheduleID: scheduleID,
		OptionID:   optionID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, resolution, http.StatusOK)
}

func (h *ScheduleHandler) renderSchedule(ctx context.Context, w http.ResponseWriter, schedule application.Schedule, resolution application.Resolution, status int) {
	payload := scheduleResponse{
		Schedule: toScheduleDTO(schedule),
		Viewer: viewerDTO{
			ParticipantID: resolution.ParticipantID,
			NeedsJoin:     resolution.NeedsJoin,
		},
	}
	h.responder.writeJSON(ctx, w, status, payload)
}

type createScheduleRequest struct {
	Name string `json:"name"`
}

type joinScheduleRequest struct {
	Name string `json:"name"`
}

type toggleDateRequest struct {
	Date string `json:"date"`
}

type addTimeOptionRequest struct {
	Time string `json:"time"`
}

type scheduleResponse struct {
	Schedule scheduleDTO `json:"schedule"`
	Viewer   viewerDTO   `json:"viewer"`
}

type listSchedulesResponse struct {
	Schedules []scheduleDTO `json:"schedules"`
}

type viewerDTO struct {
	ParticipantID string `json:"participant_id,omitempty"`
	NeedsJoin     bool   `json:"needs_join"`
}

type scheduleDTO struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	OwnerID        string             `json:"owner_id"`
	Participants   []participantDTO   `json:"participants"`
	DateSelections []dateSelectionDTO `json:"date_selections"`
	TimeOptions    []timeOptionDTO    `json:"time_options"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
}

type participantDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type dateSelectionDTO struct {
	Date           string   `json:"date"`
	ParticipantIDs []string `json:"participant_ids"`
}

type timeOptionDTO struct {
	ID    string   `json:"id"`
	Time  string   `json:"time"`
	Votes []string `json:"votes"`
}

func toScheduleDTO(schedule application.Schedule) scheduleDTO {
	dto := scheduleDTO{
		ID:             schedule.ID,
		Name:           schedule.Name,
		OwnerID:        schedule.OwnerID,
		Participants:   make([]participantDTO, 0, len(schedule.Participants)),
		DateSelections: make([]dateSelectionDTO, 0, len(schedule.DateSelections)),
		TimeOptions:    make([]timeOptionDTO, 0, len(schedule.TimeOptions)),
		CreatedAt:      schedule.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      schedule.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	for _, participant := range schedule.Participants {
		dto.Participants = append(dto.Participants, participantDTO{
			ID:    participant.ID,
			Name:  participant.Name,
			Color: participant.Color,
		})
	}

	for _, selection := range schedule.DateSelections {
		dto.DateSelections = append(dto.DateSelections, dateSelectionDTO{
			Date:           selection.Date,
			ParticipantIDs: append([]string(nil), selection.ParticipantIDs...),
		})
	}

	for _, option := range schedule.TimeOptions {
		dto.TimeOptions = append(dto.TimeOptions, timeOptionDTO{
			ID:    option.ID,
			Time:  option.Time,
			Votes: append([]string(nil), option.Votes...),
		})
	}

	return dto
}

func toScheduleDTOs(schedules []application.Schedule) []scheduleDTO {
	if len(schedules) == 0 {
		return nil
	}
	out := make([]scheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toScheduleDTO(schedule))
	}
	return out
}
