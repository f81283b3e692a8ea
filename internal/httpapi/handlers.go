package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/repository"
	"github.com/stockup/stockup/internal/services/pantry"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type pantryItemRequest struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
	Category  string `json:"category"`
}

type pantryItemResponse struct {
	models.PantryItem
	Level           models.StockLevel `json:"level"`
	RestockQuantity int               `json:"restock_quantity"`
}

func itemResponse(item models.PantryItem) pantryItemResponse {
	return pantryItemResponse{PantryItem: item, Level: item.StockLevel(), RestockQuantity: item.RestockQuantity()}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}

// writeError maps validation errors to 400, missing records to 404 and
// provider failures to 502.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	switch {
	case models.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	default:
		if kind, ok := models.ProviderKind(err); ok {
			status = http.StatusBadGateway
			resp.Kind = kind.String()
		}
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.HealthCheck(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		s.writeError(w, &models.ValidationError{Field: "position", Reason: "latitude and longitude are required"})
		return
	}

	coord := models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := s.deps.Positions.Publish(coord); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) listPantry(w http.ResponseWriter, r *http.Request) {
	items := s.deps.Pantry.List()
	out := make([]pantryItemResponse, len(items))
	for i, item := range items {
		out[i] = itemResponse(item)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) putPantryItem(w http.ResponseWriter, r *http.Request) {
	var req pantryItemRequest
	if !s.decode(w, r, &req) {
		return
	}

	item, err := s.deps.Pantry.Set(r.Context(), pantry.SetItemInput{
		ID:        mux.Vars(r)["id"],
		Name:      req.Name,
		Quantity:  req.Quantity,
		Threshold: req.Threshold,
		Category:  req.Category,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, itemResponse(item))
}

func (s *Server) deletePantryItem(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Pantry.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) groceryList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Pantry.GroceryList())
}

func (s *Server) listStores(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Stores.Current())
}

// nearestStores ranks from ?lat=&lon=, or the last posted position.
func (s *Server) nearestStores(w http.ResponseWriter, r *http.Request) {
	coord, ok, err := coordinateQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		coord, ok = s.deps.Positions.Last()
	}
	if !ok {
		s.writeError(w, &models.ValidationError{Field: "position", Reason: "pass lat and lon or post a position first"})
		return
	}

	nearest, err := s.deps.Nearest.Nearest(coord)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if nearest == nil {
		nearest = []models.StoreDistance{}
	}
	s.writeJSON(w, http.StatusOK, nearest)
}

func coordinateQuery(r *http.Request) (models.Coordinate, bool, error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" && lonStr == "" {
		return models.Coordinate{}, false, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.Coordinate{}, false, &models.ValidationError{Field: "lat", Reason: "must be a number"}
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.Coordinate{}, false, &models.ValidationError{Field: "lon", Reason: "must be a number"}
	}
	return models.Coordinate{Latitude: lat, Longitude: lon}, true, nil
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	page := models.DefaultPagination()
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, &models.ValidationError{Field: "page", Reason: "must be an integer"})
			return
		}
		page.Page = n
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, &models.ValidationError{Field: "page_size", Reason: "must be an integer"})
			return
		}
		page.PageSize = n
	}

	events, err := s.deps.Reminders.ListRecent(r.Context(), page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if events == nil {
		events = []models.ReminderEvent{}
	}
	s.writeJSON(w, http.StatusOK, events)
}
