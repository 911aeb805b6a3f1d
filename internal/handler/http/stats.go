package http

import (
	"net/http"

	"github.com/leadcrm/crm-backend-go/internal/domain/stats"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/response"
)

type StatsHandler interface {
	// GetAttendanceStats handles GET /stats/attendance
	GetAttendanceStats(w http.ResponseWriter, r *http.Request)
}

type statsHandlerImpl struct {
	statsService stats.StatsService
}

func NewStatsHandler(statsService stats.StatsService) StatsHandler {
	return &statsHandlerImpl{statsService: statsService}
}

func (h *statsHandlerImpl) GetAttendanceStats(w http.ResponseWriter, r *http.Request) {
	filter := stats.AttendanceStatsFilter{
		StartDate: getOptionalQueryParam(r, "start_date"), // format: YYYY-MM-DD
		EndDate:   getOptionalQueryParam(r, "end_date"),   // format: YYYY-MM-DD
	}

	result, err := h.statsService.GetAttendanceStats(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
