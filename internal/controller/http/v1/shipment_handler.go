package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

const dateLayout = "2006-01-02"

type ShipmentsRepository interface {
	SaveShipment(ctx context.Context, shipment *domain.Shipment) error
	ShipmentByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
	UpdateShipment(ctx context.Context, shipment *domain.Shipment) error
	DeleteShipment(ctx context.Context, id uuid.UUID) error
	Shipments(ctx context.Context, viewer *domain.User, filter domain.ShipmentFilter) ([]*domain.Shipment, int, error)
}

type ShipmentHandler struct {
	shipments ShipmentsRepository
}

func NewShipmentHandler(shipments ShipmentsRepository) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

type ListShipmentsResponse struct {
	Data       []*domain.Shipment `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

func (h *ShipmentHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	filter, err := parseShipmentFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter = filter.Normalize(time.Now())

	shipments, total, err := h.shipments.Shipments(r.Context(), user, filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListShipmentsResponse{
		Data:       shipments,
		Pagination: NewPagination(filter.Page, filter.Limit, total),
	})
}

type ShipmentRequest struct {
	ItemID                  uuid.UUID  `json:"item_id"`
	Quantity                int        `json:"quantity"`
	DestinationDepartmentID uuid.UUID  `json:"destination_department_id"`
	ShipmentDepartmentID    *uuid.UUID `json:"shipment_department_id,omitempty"`
	ShipmentUserID          *uuid.UUID `json:"shipment_user_id,omitempty"`
	TrackingNumber          string     `json:"tracking_number"`
	Notes                   string     `json:"notes"`
	ShippedAt               *time.Time `json:"shipped_at,omitempty"`
}

// resolveShipmentDepartment applies the override rule shared with the import
// validator: only management may ship on behalf of another department.
func resolveShipmentDepartment(user *domain.User, requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == user.DepartmentID {
		return user.DepartmentID, nil
	}

	if !user.Role.CanOverrideShipmentDepartment() {
		return uuid.Nil, errors.New("regular users cannot specify a shipment department")
	}

	return *requested, nil
}

func (h *ShipmentHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	shipmentDepartmentID, err := resolveShipmentDepartment(user, req.ShipmentDepartmentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	shipment := &domain.Shipment{
		ID:                      uuid.New(),
		ItemID:                  req.ItemID,
		Quantity:                req.Quantity,
		SenderID:                user.ID,
		ShipmentDepartmentID:    shipmentDepartmentID,
		DestinationDepartmentID: req.DestinationDepartmentID,
		ShipmentUserID:          req.ShipmentUserID,
		TrackingNumber:          req.TrackingNumber,
		Notes:                   req.Notes,
		ShippedAt:               req.ShippedAt,
		CreatedBy:               user.ID,
		UpdatedBy:               user.ID,
	}

	if err := shipment.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.shipments.SaveShipment(r.Context(), shipment); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, shipment)
}

func (h *ShipmentHandler) UpdateShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	shipment, ok := h.loadMutable(w, r, user, domain.ErrShipmentLockedEdit)
	if !ok {
		return
	}

	var req ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	shipmentDepartmentID, err := resolveShipmentDepartment(user, req.ShipmentDepartmentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	shipment.ItemID = req.ItemID
	shipment.Quantity = req.Quantity
	shipment.DestinationDepartmentID = req.DestinationDepartmentID
	shipment.ShipmentDepartmentID = shipmentDepartmentID
	shipment.ShipmentUserID = req.ShipmentUserID
	shipment.TrackingNumber = req.TrackingNumber
	shipment.Notes = req.Notes
	shipment.ShippedAt = req.ShippedAt
	shipment.UpdatedBy = user.ID

	if err := shipment.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.shipments.UpdateShipment(r.Context(), shipment); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, shipment)
}

func (h *ShipmentHandler) DeleteShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	shipment, ok := h.loadMutable(w, r, user, domain.ErrShipmentLockedDelete)
	if !ok {
		return
	}

	if err := h.shipments.DeleteShipment(r.Context(), shipment.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadMutable fetches the shipment and rejects the request when it is outside
// the user's visibility or already locked. The lock is recomputed at request
// time: it is a property of the clock, not of the stored row.
func (h *ShipmentHandler) loadMutable(w http.ResponseWriter, r *http.Request, user *domain.User, lockErr error) (*domain.Shipment, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "shipment_id"))
	if err != nil {
		http.Error(w, "invalid shipment id", http.StatusBadRequest)
		return nil, false
	}

	shipment, err := h.shipments.ShipmentByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "shipment not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}

	if user.Role.ScopedToOwnDepartment() && shipment.ShipmentDepartmentID != user.DepartmentID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}

	if shipment.Locked(time.Now()) {
		http.Error(w, lockErr.Error(), http.StatusConflict)
		return nil, false
	}

	return shipment, true
}

func parseShipmentFilter(r *http.Request) (domain.ShipmentFilter, error) {
	var filter domain.ShipmentFilter

	query := r.URL.Query()

	if from := query.Get("from"); from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			return filter, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		filter.From = &parsed
	}

	if to := query.Get("to"); to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			return filter, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		// The end bound is inclusive through the whole day.
		end := parsed.Add(24*time.Hour - time.Millisecond)
		filter.To = &end
	}

	if raw := query.Get("shipment_department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid shipment_department_id")
		}
		filter.ShipmentDepartmentID = &id
	}

	if raw := query.Get("destination_department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid destination_department_id")
		}
		filter.DestinationDepartmentID = &id
	}

	filter.Search = query.Get("search")

	page, limit, err := parsePagination(r)
	if err != nil {
		return filter, err
	}
	filter.Page = page
	filter.Limit = limit

	return filter, nil
}

func parsePagination(r *http.Request) (page uint64, limit uint64, err error) {
	page, limit = 1, domain.DefaultPageLimit

	if p := r.URL.Query().Get("page"); p != "" {
		page, err = strconv.ParseUint(p, 10, 64)
		if err != nil || page == 0 {
			return 0, 0, errors.New("invalid page")
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.ParseUint(l, 10, 64)
		if err != nil || limit < 1 || limit > domain.MaxPageLimit {
			return 0, 0, errors.New("invalid limit, must be in [1;100]")
		}
	}

	return page, limit, nil
}
