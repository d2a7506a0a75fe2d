package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"portfolio/internal/models"
)

type experienceResponse struct {
	ID               uuid.UUID  `json:"id"`
	Company          string     `json:"company"`
	Position         string     `json:"position"`
	Location         string     `json:"location"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Current          bool       `json:"current"`
	Description      string     `json:"description"`
	Responsibilities []string   `json:"responsibilities"`
	URL              string     `json:"url"`
	Technologies     []string   `json:"technologies"`
	SortOrder        int        `json:"sort_order"`
}

func experienceToAPI(e models.Experience) experienceResponse {
	return experienceResponse{
		ID:               e.ID,
		Company:          e.Company,
		Position:         e.Position,
		Location:         e.Location,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		Current:          e.Current,
		Description:      e.Description,
		Responsibilities: models.StringsFromJSON(e.Responsibilities),
		URL:              e.URL,
		Technologies:     models.StringsFromJSON(e.Technologies),
		SortOrder:        e.SortOrder,
	}
}

func experiencesToAPI(entries []models.Experience) []experienceResponse {
	out := make([]experienceResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, experienceToAPI(e))
	}
	return out
}

func (s *Server) handleListExperience(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var entries []models.Experience
	if err := s.db.WithContext(ctx).
		Order("sort_order ASC, start_date DESC").
		Find(&entries).Error; err != nil {
		s.log.Error().Err(err).Msg("list experience failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"experience": experiencesToAPI(entries)})
}

func (s *Server) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid experience id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var entry models.Experience
	err = s.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("experience not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("get experience failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"experience": experienceToAPI(entry)})
}

type experienceInput struct {
	Company          string     `json:"company"`
	Position         string     `json:"position"`
	Location         string     `json:"location"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Current          bool       `json:"current"`
	Description      string     `json:"description"`
	Responsibilities []string   `json:"responsibilities"`
	URL              string     `json:"url"`
	Technologies     []string   `json:"technologies"`
	SortOrder        int        `json:"sort_order"`
}

func (s *Server) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	var req experienceInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	if req.Company == "" || req.Position == "" {
		respondError(w, http.StatusBadRequest, errors.New("company and position are required"))
		return
	}
	if req.StartDate.IsZero() {
		respondError(w, http.StatusBadRequest, errors.New("start_date is required"))
		return
	}
	if req.Current && req.EndDate != nil {
		respondError(w, http.StatusBadRequest, errors.New("a current position cannot have an end date"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	entry := models.Experience{
		ID:               uuid.New(),
		Company:          req.Company,
		Position:         req.Position,
		Location:         req.Location,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Current:          req.Current,
		Description:      req.Description,
		Responsibilities: models.JSONStrings(req.Responsibilities),
		URL:              req.URL,
		Technologies:     models.JSONStrings(req.Technologies),
		SortOrder:        req.SortOrder,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Error().Err(err).Msg("create experience failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"experience": experienceToAPI(entry)})
}

type experienceUpdate struct {
	Company          *string    `json:"company"`
	Position         *string    `json:"position"`
	Location         *string    `json:"location"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Current          *bool      `json:"current"`
	Description      *string    `json:"description"`
	Responsibilities *[]string  `json:"responsibilities"`
	URL              *string    `json:"url"`
	Technologies     *[]string  `json:"technologies"`
	SortOrder        *int       `json:"sort_order"`
}

func (s *Server) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid experience id"))
		return
	}

	var req experienceUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var entry models.Experience
	err = s.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("experience not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("load experience failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	if req.Company != nil {
		entry.Company = *req.Company
	}
	if req.Position != nil {
		entry.Position = *req.Position
	}
	if req.Location != nil {
		entry.Location = *req.Location
	}
	if req.StartDate != nil {
		entry.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		entry.EndDate = req.EndDate
	}
	if req.Current != nil {
		entry.Current = *req.Current
		if entry.Current {
			entry.EndDate = nil
		}
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}
	if req.Responsibilities != nil {
		entry.Responsibilities = models.JSONStrings(*req.Responsibilities)
	}
	if req.URL != nil {
		entry.URL = *req.URL
	}
	if req.Technologies != nil {
		entry.Technologies = models.JSONStrings(*req.Technologies)
	}
	if req.SortOrder != nil {
		entry.SortOrder = *req.SortOrder
	}

	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		s.log.Error().Err(err).Msg("update experience failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"experience": experienceToAPI(entry)})
}

func (s *Server) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid experience id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.Experience{}, "id = ?", id)
	if res.Error != nil {
		s.log.Error().Err(res.Error).Msg("delete experience failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, errors.New("experience not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleReorderExperience(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, errors.New("ids are required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range req.IDs {
			if err := tx.Model(&models.Experience{}).
				Where("id = ?", id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("reorder experience failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
