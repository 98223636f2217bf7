package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type handlers struct {
	users           domain.UserService
	items           domain.ItemService
	bookings        domain.BookingService
	requests        domain.RequestService
	defaultPageSize int
	health          func(ctx context.Context) error
	log             *zerolog.Logger
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *handlers) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) createUser(c *gin.Context) {
	var req models.NewUser
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(users))
}

func (h *handlers) getUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) updateUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var patch models.UserPatch
	if !h.bindJSON(c, &patch) {
		return
	}
	user, err := h.users.UpdateUser(c.Request.Context(), id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) deleteUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) createItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req models.NewItem
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.items.CreateItem(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *handlers) updateItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c)
	if !ok {
		return
	}
	var patch models.ItemPatch
	if !h.bindJSON(c, &patch) {
		return
	}
	item, err := h.items.UpdateItem(c.Request.Context(), userID, itemID, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *handlers) deleteItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.items.DeleteItem(c.Request.Context(), userID, itemID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) getItem(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c)
	if !ok {
		return
	}
	item, err := h.items.GetItem(c.Request.Context(), userID, itemID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *handlers) listOwnerItems(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	from, size, ok := h.page(c)
	if !ok {
		return
	}
	items, err := h.items.ListOwnerItems(c.Request.Context(), userID, from, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *handlers) searchItems(c *gin.Context) {
	from, size, ok := h.page(c)
	if !ok {
		return
	}
	items, err := h.items.SearchItems(c.Request.Context(), c.Query("text"), from, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(items))
}

func (h *handlers) addComment(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req commentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	comment, err := h.items.AddComment(c.Request.Context(), userID, itemID, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *handlers) createBooking(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req models.NewBooking
	if !h.bindJSON(c, &req) {
		return
	}
	booking, err := h.bookings.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *handlers) approveBooking(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	bookingID, ok := h.pathID(c)
	if !ok {
		return
	}
	approved, err := strconv.ParseBool(strings.TrimSpace(c.Query("approved")))
	if err != nil {
		h.writeError(c, domain.Validation("Parameter approved must be true or false"))
		return
	}
	booking, err := h.bookings.ApproveBooking(c.Request.Context(), userID, bookingID, approved)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *handlers) getBooking(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	bookingID, ok := h.pathID(c)
	if !ok {
		return
	}
	booking, err := h.bookings.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *handlers) listBookerBookings(c *gin.Context) {
	h.listBookings(c, h.bookings.ListBookerBookings)
}

func (h *handlers) listOwnerBookings(c *gin.Context) {
	h.listBookings(c, h.bookings.ListOwnerBookings)
}

type listFunc func(ctx context.Context, userID int64, state string, from, size int) ([]*models.Booking, error)

func (h *handlers) listBookings(c *gin.Context, list listFunc) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	from, size, ok := h.page(c)
	if !ok {
		return
	}
	bookings, err := list(c.Request.Context(), userID, c.DefaultQuery("state", string(models.StateAll)), from, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(bookings))
}

func (h *handlers) createRequest(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req models.NewItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	request, err := h.requests.CreateRequest(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *handlers) listOwnRequests(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	requests, err := h.requests.ListOwnRequests(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(requests))
}

func (h *handlers) listOtherRequests(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	from, size, ok := h.page(c)
	if !ok {
		return
	}
	requests, err := h.requests.ListOtherRequests(c.Request.Context(), userID, from, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(requests))
}

func (h *handlers) getRequest(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	requestID, ok := h.pathID(c)
	if !ok {
		return
	}
	request, err := h.requests.GetRequest(c.Request.Context(), userID, requestID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *handlers) userID(c *gin.Context) (int64, bool) {
	id, err := parseUserID(c.GetHeader(userIDHeader))
	if err != nil {
		h.writeError(c, err)
		return 0, false
	}
	return id, true
}

func (h *handlers) pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(c, domain.Validation("Invalid id: %s", raw))
		return 0, false
	}
	return id, true
}

// page reads from/size; the service validates the values themselves.
func (h *handlers) page(c *gin.Context) (int, int, bool) {
	from, err := queryInt(c, "from", 0)
	if err != nil {
		h.writeError(c, err)
		return 0, 0, false
	}
	size, err := queryInt(c, "size", h.defaultPageSize)
	if err != nil {
		h.writeError(c, err)
		return 0, 0, false
	}
	return from, size, true
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation("Invalid %s parameter: %s", name, raw)
	}
	return v, nil
}

func (h *handlers) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.writeError(c, domain.Validation("Invalid request body: %v", err))
		return false
	}
	return true
}

func (h *handlers) writeError(c *gin.Context, err error) {
	code, body := httpError(err)
	if code == http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("request_id", c.GetString(requestIDCtxKey)).
			Str("route", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(code, body)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
