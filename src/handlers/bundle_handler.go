package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/username/bundlefolio/backend/src/bundlecalc"
	"github.com/username/bundlefolio/backend/src/database"
	"github.com/username/bundlefolio/backend/src/logger"
	"github.com/username/bundlefolio/backend/src/model"
	"github.com/username/bundlefolio/backend/src/models"
	"github.com/username/bundlefolio/backend/src/security/validation"
	"github.com/username/bundlefolio/backend/src/services"
)

type BundleHandler struct {
	bundleService services.BundleService
}

func NewBundleHandler(bundleService services.BundleService) *BundleHandler {
	return &BundleHandler{bundleService: bundleService}
}

// targetFromQuery reads the target income from ?daily=, ?monthly= or
// ?yearly=; the first unit present wins. With none given the target is zero
// and only share-independent figures are meaningful.
func targetFromQuery(r *http.Request) models.TargetIncome {
	for _, unit := range []models.TargetUnit{models.UnitYearly, models.UnitMonthly, models.UnitDaily} {
		raw := r.URL.Query().Get(string(unit))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			continue
		}
		return bundlecalc.ConvertTargetIncome(unit, value)
	}
	return models.TargetIncome{}
}

func bundleServiceErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrAllocationNot100),
		errors.Is(err, services.ErrZeroPercentStock),
		errors.Is(err, services.ErrDuplicateSymbol),
		errors.Is(err, services.ErrEmptyBundle),
		errors.Is(err, validation.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrBundleLimitReached):
		return http.StatusConflict
	case errors.Is(err, services.ErrSymbolNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *BundleHandler) HandleListBundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := model.ListBundles(database.DB)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to list bundles", "error", err)
		sendJSONError(w, "Failed to list bundles", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bundles)
}

func (h *BundleHandler) HandleListMyBundles(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	bundles, err := model.ListBundlesByCreator(database.DB, userID)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to list user bundles", "userID", userID, "error", err)
		sendJSONError(w, "Failed to list bundles", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bundles)
}

func (h *BundleHandler) HandleCreateBundle(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name       string                  `json:"name"`
		Country    string                  `json:"country"`
		Currency   string                  `json:"currency"`
		Securities []models.StoredSecurity `json:"securities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bundle, err := h.bundleService.CreateBundle(r.Context(), userID, req.Name, req.Country, req.Currency, req.Securities)
	if err != nil {
		status := bundleServiceErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.ErrorFromContext(r.Context(), "Failed to create bundle", "userID", userID, "error", err)
			sendJSONError(w, "Failed to create bundle", status)
			return
		}
		sendJSONError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(bundle)
}

func (h *BundleHandler) getBundleFromURL(w http.ResponseWriter, r *http.Request) *model.Bundle {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		sendJSONError(w, "Invalid bundle ID", http.StatusBadRequest)
		return nil
	}
	bundle, err := model.GetBundleByID(database.DB, id)
	if err != nil {
		if errors.Is(err, model.ErrBundleNotFound) {
			sendJSONError(w, "Bundle not found", http.StatusNotFound)
			return nil
		}
		logger.ErrorFromContext(r.Context(), "Failed to load bundle", "bundleID", id, "error", err)
		sendJSONError(w, "Failed to load bundle", http.StatusInternalServerError)
		return nil
	}
	return bundle
}

func (h *BundleHandler) HandleGetBundle(w http.ResponseWriter, r *http.Request) {
	bundle := h.getBundleFromURL(w, r)
	if bundle == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bundle)
}

func (h *BundleHandler) HandleDeleteBundle(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		sendJSONError(w, "Invalid bundle ID", http.StatusBadRequest)
		return
	}

	if err := model.DeleteBundle(database.DB, id, userID); err != nil {
		if errors.Is(err, model.ErrBundleNotFound) {
			sendJSONError(w, "Bundle not found", http.StatusNotFound)
			return
		}
		logger.ErrorFromContext(r.Context(), "Failed to delete bundle", "bundleID", id, "userID", userID, "error", err)
		sendJSONError(w, "Failed to delete bundle", http.StatusInternalServerError)
		return
	}

	logger.InfoFromContext(r.Context(), "Bundle deleted", "bundleID", id, "userID", userID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleBundleSummary computes the full derived view of a saved bundle:
// per-security shares, yields and growth, score, sector count and the payout
// calendar, all against the target income from the query string.
func (h *BundleHandler) HandleBundleSummary(w http.ResponseWriter, r *http.Request) {
	bundle := h.getBundleFromURL(w, r)
	if bundle == nil {
		return
	}

	summary, err := h.bundleService.SummaryForBundle(r.Context(), bundle, targetFromQuery(r))
	if err != nil {
		status := bundleServiceErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.ErrorFromContext(r.Context(), "Failed to build bundle summary", "bundleID", bundle.ID, "error", err)
			sendJSONError(w, "Failed to build bundle summary", status)
			return
		}
		sendJSONError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleBundlePreview summarizes an unsaved allocation list so the builder
// can show live figures while the user edits.
func (h *BundleHandler) HandleBundlePreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Country    string                  `json:"country"`
		Securities []models.StoredSecurity `json:"securities"`
		Target     struct {
			Unit  models.TargetUnit `json:"unit"`
			Value float64           `json:"value"`
		} `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	target := bundlecalc.ConvertTargetIncome(req.Target.Unit, req.Target.Value)
	summary, err := h.bundleService.PreviewSummary(r.Context(), req.Country, req.Securities, target)
	if err != nil {
		status := bundleServiceErrorStatus(err)
		if status == http.StatusInternalServerError {
			logger.ErrorFromContext(r.Context(), "Failed to build bundle preview", "error", err)
			sendJSONError(w, "Failed to build bundle preview", status)
			return
		}
		sendJSONError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HandleConvertTargetIncome converts a target income figure between daily,
// monthly and yearly without touching any bundle.
func HandleConvertTargetIncome(w http.ResponseWriter, r *http.Request) {
	unit := models.TargetUnit(r.URL.Query().Get("unit"))
	switch unit {
	case models.UnitDaily, models.UnitMonthly, models.UnitYearly:
	default:
		sendJSONError(w, "unit must be one of daily, monthly, yearly", http.StatusBadRequest)
		return
	}

	value, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil || value < 0 {
		sendJSONError(w, "value must be a non-negative number", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bundlecalc.ConvertTargetIncome(unit, value))
}
