package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"portfolio/internal/models"
)

type projectResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"image_url"`
	DemoURL      string    `json:"demo_url"`
	GithubURL    string    `json:"github_url"`
	Technologies []string  `json:"technologies"`
	Featured     bool      `json:"featured"`
	SortOrder    int       `json:"sort_order"`
	PublishedAt  time.Time `json:"published_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func projectToAPI(p models.Project) projectResponse {
	return projectResponse{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Description:  p.Description,
		Content:      p.Content,
		ImageURL:     p.ImageURL,
		DemoURL:      p.DemoURL,
		GithubURL:    p.GithubURL,
		Technologies: models.StringsFromJSON(p.Technologies),
		Featured:     p.Featured,
		SortOrder:    p.SortOrder,
		PublishedAt:  p.PublishedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func projectsToAPI(projects []models.Project) []projectResponse {
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectToAPI(p))
	}
	return out
}

// projectOrder keeps featured work first, then manual ordering, then
// recency.
const projectOrder = "featured DESC, sort_order ASC, published_at DESC"

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	q := s.db.WithContext(ctx).Order(projectOrder)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q = q.Limit(n)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q = q.Offset(n)
		}
	}

	var projects []models.Project
	if err := q.Find(&projects).Error; err != nil {
		s.log.Error().Err(err).Msg("list projects failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"projects": projectsToAPI(projects)})
}

func (s *Server) handleFeaturedProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Where("featured = ?", true).
		Order("sort_order ASC, published_at DESC").
		Find(&projects).Error; err != nil {
		s.log.Error().Err(err).Msg("featured projects failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"projects": projectsToAPI(projects)})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "id")

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	// lookup by id when the param parses as a uuid, otherwise by slug
	var project models.Project
	var err error
	if id, perr := uuid.Parse(param); perr == nil {
		err = s.db.WithContext(ctx).First(&project, "id = ?", id).Error
	} else {
		err = s.db.WithContext(ctx).Where("slug = ?", param).First(&project).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("project not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("get project failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"project": projectToAPI(project)})
}

type projectInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Content      string   `json:"content"`
	ImageURL     string   `json:"image_url"`
	DemoURL      string   `json:"demo_url"`
	GithubURL    string   `json:"github_url"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
	SortOrder    int      `json:"sort_order"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, errors.New("title is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	slug := models.Slugify(req.Title)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("slug = ?", slug).Count(&count).Error; err != nil {
		s.log.Error().Err(err).Msg("slug check failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if count > 0 {
		respondError(w, http.StatusConflict, errors.New("a project with this title already exists"))
		return
	}

	project := models.Project{
		ID:           uuid.New(),
		Title:        req.Title,
		Slug:         slug,
		Description:  req.Description,
		Content:      req.Content,
		ImageURL:     req.ImageURL,
		DemoURL:      req.DemoURL,
		GithubURL:    req.GithubURL,
		Technologies: models.JSONStrings(req.Technologies),
		Featured:     req.Featured,
		SortOrder:    req.SortOrder,
		PublishedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		s.log.Error().Err(err).Msg("create project failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"project": projectToAPI(project)})
}

type projectUpdate struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Content      *string   `json:"content"`
	ImageURL     *string   `json:"image_url"`
	DemoURL      *string   `json:"demo_url"`
	GithubURL    *string   `json:"github_url"`
	Technologies *[]string `json:"technologies"`
	Featured     *bool     `json:"featured"`
	SortOrder    *int      `json:"sort_order"`
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid project id"))
		return
	}

	var req projectUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var project models.Project
	err = s.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("project not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("load project failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	if req.Title != nil && *req.Title != "" {
		project.Title = *req.Title
		project.Slug = models.Slugify(*req.Title)
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Content != nil {
		project.Content = *req.Content
	}
	if req.ImageURL != nil {
		project.ImageURL = *req.ImageURL
	}
	if req.DemoURL != nil {
		project.DemoURL = *req.DemoURL
	}
	if req.GithubURL != nil {
		project.GithubURL = *req.GithubURL
	}
	if req.Technologies != nil {
		project.Technologies = models.JSONStrings(*req.Technologies)
	}
	if req.Featured != nil {
		project.Featured = *req.Featured
	}
	if req.SortOrder != nil {
		project.SortOrder = *req.SortOrder
	}

	if err := s.db.WithContext(ctx).Save(&project).Error; err != nil {
		s.log.Error().Err(err).Msg("update project failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"project": projectToAPI(project)})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid project id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if res.Error != nil {
		s.log.Error().Err(res.Error).Msg("delete project failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, errors.New("project not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

type reorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// handleReorderProjects rewrites sort_order to the position of each id in
// the submitted list. The whole batch applies or none of it does.
func (s *Server) handleReorderProjects(w http.ResponseWriter, r *http.Request) {
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
			if err := tx.Model(&models.Project{}).
				Where("id = ?", id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("reorder projects failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
