package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reservio/internal/export"
	"reservio/internal/models"
)

const reservationsPrefix = "/api/v1/reservations/"

// Default export window around today, in months.
const (
	defaultExportMonthsBefore = 1
	defaultExportMonthsAfter  = 2
)

type createReservationRequest struct {
	CustomerID string    `json:"customer_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreate(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createReservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result := s.svc.CreateReservation(r.Context(), body.CustomerID, body.StartDate, body.EndDate)
	s.writeResult(w, result, http.StatusCreated)
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customerID := strings.TrimSpace(q.Get("customer_id"))
	scope := strings.TrimSpace(q.Get("scope"))
	status := strings.TrimSpace(q.Get("status"))

	switch {
	case scope == "active":
		s.writeList(w, r, func() ([]models.ReservationView, error) {
			return s.svc.GetActiveReservations(r.Context())
		})
	case scope == "upcoming":
		s.writeList(w, r, func() ([]models.ReservationView, error) {
			return s.svc.GetUpcomingReservations(r.Context())
		})
	case scope == "confirmed":
		s.writeList(w, r, func() ([]models.ReservationView, error) {
			return s.svc.GetConfirmedByCustomer(r.Context(), customerID)
		})
	case status != "":
		s.writeList(w, r, func() ([]models.ReservationView, error) {
			return s.svc.GetReservationsByStatus(r.Context(), models.Status(status))
		})
	case q.Has("skip") || q.Has("take"):
		skip, _ := strconv.Atoi(q.Get("skip"))
		take, _ := strconv.Atoi(q.Get("take"))
		page, err := s.svc.GetCustomerReservationsPage(r.Context(), customerID, skip, take)
		if err != nil {
			s.writeQueryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	default:
		s.writeList(w, r, func() ([]models.ReservationView, error) {
			return s.svc.GetReservationsByCustomer(r.Context(), customerID)
		})
	}
}

func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, reservationsPrefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view, err := s.svc.GetReservation(r.Context(), parts[0])
		if err != nil {
			s.writeQueryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)

	case len(parts) == 2 && parts[1] == "confirm":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		result := s.svc.ConfirmReservation(r.Context(), parts[0])
		s.writeResult(w, result, http.StatusOK)

	case len(parts) == 2 && parts[1] == "cancel":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var body cancelReservationRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		}
		result := s.svc.CancelReservation(r.Context(), parts[0], body.Reason)
		s.writeResult(w, result, http.StatusOK)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := time.Now()
	from := now.AddDate(0, -defaultExportMonthsBefore, 0)
	to := now.AddDate(0, defaultExportMonthsAfter, 0)

	var err error
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
			return
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
			return
		}
	}

	reservations, err := s.svc.ReservationsForPeriod(r.Context(), from, to)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("save"), "true") {
		path, err := export.SaveReservationsReport(s.exportDir, from, to, reservations)
		if err != nil {
			s.log.Error().Err(err).Msg("save export report")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"file_path": path})
		return
	}

	workbook, err := export.BuildReservationsWorkbook(from, to, reservations)
	if err != nil {
		s.log.Error().Err(err).Msg("build export workbook")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer workbook.Close()

	fileName := "reservations_" + from.Format("2006-01-02") + "_to_" + to.Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	if err := workbook.Write(w); err != nil {
		s.log.Error().Err(err).Msg("write export workbook")
	}
}

func (s *HTTPServer) writeList(w http.ResponseWriter, r *http.Request, fn func() ([]models.ReservationView, error)) {
	views, err := fn()
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	if views == nil {
		views = []models.ReservationView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": views})
}

func (s *HTTPServer) writeResult(w http.ResponseWriter, result models.Result, successCode int) {
	if result.Success {
		writeJSON(w, successCode, result)
		return
	}
	writeJSON(w, statusForKind(result.ErrorKind), result)
}

func (s *HTTPServer) writeQueryError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	message := err.Error()
	if kind == models.KindUnexpected {
		s.log.Error().Err(err).Msg("query failed")
		message = "internal error"
	}
	writeError(w, statusForKind(kind.String()), message)
}
