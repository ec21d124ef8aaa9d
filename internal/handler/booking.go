package handler

// Handlers for the staff-facing booking API. Every endpoint works on
// pre-validated values: dates arrive as DD.MM.YYYY strings, times as HH:MM
// (or the N/A marker for walk-ins seated by a manager), party sizes as
// positive integers. The caller identity comes from the JWT middleware via
// c.Get("user_id") / c.Get("user_name").

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ishcherbinin/telegram-bot-booking/internal/model"
	"github.com/ishcherbinin/telegram-bot-booking/internal/service"
	"github.com/ishcherbinin/telegram-bot-booking/internal/storage"
)

// BookingHandler exposes the booking service over HTTP.
type BookingHandler struct {
	Service *service.BookingService
}

// NewBookingHandler constructs a BookingHandler. The service must be
// non-nil.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Service: svc}
}

// tableView is the JSON shape of a table record returned to clients.
type tableView struct {
	TableID     int    `json:"table_id"`
	Capacity    int    `json:"capacity"`
	IsReserved  bool   `json:"is_reserved"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time,omitempty"`
	UserName    string `json:"user_name,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

func viewOf(t *model.Table) tableView {
	return tableView{
		TableID:     t.TableID,
		Capacity:    t.Capacity,
		IsReserved:  t.IsReserved,
		BookingDate: t.ReadableBookingDate(),
		BookingTime: t.ReadableBookingTime(),
		UserName:    t.UserName,
		UserID:      t.UserID,
	}
}

func viewsOf(tables []*model.Table) []tableView {
	out := make([]tableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, viewOf(t))
	}
	return out
}

// parseDate decodes a DD.MM.YYYY date parameter.
func parseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

// tableRefRequest addresses one table record by date + table id.
type tableRefRequest struct {
	Date    string `json:"date"`
	TableID int    `json:"table_id"`
}

func (r tableRefRequest) ref() (storage.TableRef, error) {
	d, err := parseDate(r.Date)
	if err != nil {
		return storage.TableRef{}, err
	}
	if r.TableID <= 0 {
		return storage.TableRef{}, errors.New("table_id must be positive")
	}
	return storage.TableRef{Date: d, TableID: r.TableID}, nil
}

// ListTables handles GET /v1/tables?date=DD.MM.YYYY. It returns the date's
// full table set, materializing it on first access.
func (h *BookingHandler) ListTables(c echo.Context) error {
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date: want DD.MM.YYYY"})
	}
	tables := h.Service.TablesForDate(date)
	return c.JSON(http.StatusOK, echo.Map{"items": viewsOf(tables), "count": len(tables)})
}

// SearchTable handles POST /v1/bookings/search. It returns the best-fit
// free table for a party size on a date, or 404 when nothing fits. The
// table is not held yet; a subsequent hold call claims it for the flow.
func (h *BookingHandler) SearchTable(c echo.Context) error {
	var req struct {
		Date  string `json:"date"`
		Seats int    `json:"seats"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date: want DD.MM.YYYY"})
	}
	if req.Seats <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be positive"})
	}
	t, _, err := h.Service.FindTable(date, req.Seats)
	if err != nil {
		if errors.Is(err, service.ErrNoTableAvailable) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no table available for this party size"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": viewOf(t)})
}

// HoldTable handles POST /v1/bookings/hold. It attaches a guest name and a
// booking time (HH:MM, or N/A for a walk-in) to a table, moving it into the
// pending state.
func (h *BookingHandler) HoldTable(c echo.Context) error {
	var req struct {
		tableRefRequest
		GuestName string `json:"guest_name"`
		Time      string `json:"time"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ref, err := req.ref()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.GuestName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_name is required"})
	}
	bt, err := model.ParseBookingTime(req.Time)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Service.HoldTable(ref, req.GuestName, bt); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ConfirmBooking handles POST /v1/bookings/confirm. It finalizes a pending
// booking under the authenticated user's identity and returns the reserved
// table.
func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	var req tableRefRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ref, err := req.ref()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	userID, _ := c.Get("user_id").(string)
	t, err := h.Service.ConfirmBooking(c.Request().Context(), ref, userID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": viewOf(t)})
}

// RejectBooking handles POST /v1/bookings/reject. It abandons a pending
// booking, leaving the table free.
func (h *BookingHandler) RejectBooking(c echo.Context) error {
	var req tableRefRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ref, err := req.ref()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Service.RejectBooking(ref); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelBooking handles DELETE /v1/bookings. By default the cancellation is
// scoped to the caller's own reservations; ?force=true cancels regardless
// of owner, for manager overrides.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	var req tableRefRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ref, err := req.ref()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	requesterID, _ := c.Get("user_id").(string)
	if c.QueryParam("force") == "true" {
		requesterID = ""
	}
	if err := h.Service.CancelBooking(ref, requesterID); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MyBookings handles GET /v1/my-bookings. It returns the caller's confirmed
// reservations across all dates.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	items := h.Service.UserBookings(userID)
	return c.JSON(http.StatusOK, echo.Map{"items": viewsOf(items), "count": len(items)})
}

// ListReservations handles GET /v1/reservations. It returns every confirmed
// reservation across all materialized dates.
func (h *BookingHandler) ListReservations(c echo.Context) error {
	items := h.Service.AllReservations()
	return c.JSON(http.StatusOK, echo.Map{"items": viewsOf(items), "count": len(items)})
}

// TriggerBackup handles POST /v1/backup. It flushes the calendar to the
// configured backup file.
func (h *BookingHandler) TriggerBackup(c echo.Context) error {
	if err := h.Service.Backup(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "backup failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// bookingError maps service and storage errors onto HTTP statuses.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, storage.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	case errors.Is(err, storage.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table already reserved"})
	case errors.Is(err, storage.ErrNotPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table has no pending booking"})
	case errors.Is(err, storage.ErrNotReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table is not reserved"})
	case errors.Is(err, service.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "reservation belongs to another user"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
	}
}
