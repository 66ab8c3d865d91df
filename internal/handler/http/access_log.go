package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/accesslog"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/handler/http/response"
)

type AccessLogHandler interface {
	List(w http.ResponseWriter, r *http.Request)
}

type accessLogHandlerImpl struct {
	accessLogService accesslog.AccessLogService
}

func NewAccessLogHandler(accessLogService accesslog.AccessLogService) AccessLogHandler {
	return &accessLogHandlerImpl{accessLogService: accessLogService}
}

// List implements AccessLogHandler.
func (h *accessLogHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := accesslog.AccessLogFilter{}

	if badgeUID := query.Get("badge_uid"); badgeUID != "" {
		filter.BadgeUID = &badgeUID
	}
	if registered, err := strconv.ParseBool(query.Get("registered")); err == nil {
		filter.Registered = &registered
	}
	if l := query.Get("limit"); l != "" {
		if limit, err := strconv.Atoi(l); err == nil {
			filter.Limit = limit
		}
	}

	logs, err := h.accessLogService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, logs)
}
