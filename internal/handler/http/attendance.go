package http

import (
	"log/slog"
	"net/http"

	"github.com/leadcrm/crm-backend-go/internal/domain/attendance"
	"github.com/leadcrm/crm-backend-go/internal/domain/auth"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/middleware"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	PunchIn(w http.ResponseWriter, r *http.Request)
	PunchOut(w http.ResponseWriter, r *http.Request)
	GetToday(w http.ResponseWriter, r *http.Request)
	GetByDate(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// punchBody is the optional JSON payload of punch requests
type punchBody struct {
	Location *attendance.Location `json:"location"`
}

// PunchIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) PunchIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.punchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.PunchIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punch in successful", result)
}

// PunchOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) PunchOut(w http.ResponseWriter, r *http.Request) {
	req, ok := h.punchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.PunchOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punch out successful", result)
}

func (h *attendanceHandlerImpl) punchRequest(w http.ResponseWriter, r *http.Request) (attendance.PunchRequest, bool) {
	identity, ok := middleware.CurrentUser(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return attendance.PunchRequest{}, false
	}

	var body punchBody
	if err := decodeOptionalJSON(r, &body); err != nil {
		slog.ErrorContext(r.Context(), "Failed to decode punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return attendance.PunchRequest{}, false
	}

	return attendance.PunchRequest{
		UserID:   identity.UserID,
		Location: body.Location,
	}, true
}

// GetToday implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetToday(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CurrentUser(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	result, err := h.attendanceService.GetToday(r.Context(), identity.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetByDate implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetByDate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CurrentUser(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	userID := identity.UserID
	if requested := r.URL.Query().Get("user_id"); requested != "" && requested != userID {
		if !user.HasPermission(identity.Role, user.PermissionAttendanceViewAll) {
			response.HandleError(w, user.ErrInsufficientPermissions)
			return
		}
		userID = requested
	}

	result, err := h.attendanceService.GetByDate(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CurrentUser(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	filter := attendance.AttendanceFilter{
		UserID:    getOptionalQueryParam(r, "user_id"),
		StartDate: getOptionalQueryParam(r, "start_date"),
		EndDate:   getOptionalQueryParam(r, "end_date"),
		Page:      getIntQueryParam(r, "page", 1),
		Limit:     getIntQueryParam(r, "limit", 20),
	}

	// Callers without view_all only ever see their own records
	if !user.HasPermission(identity.Role, user.PermissionAttendanceViewAll) {
		filter.UserID = &identity.UserID
	}

	results, err := h.attendanceService.ListRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
