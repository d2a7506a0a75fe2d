package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"portfolio/internal/auth"
	"portfolio/internal/models"
)

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func userToAPI(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		s.log.Error().Err(err).Msg("list users failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToAPI(u))
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("user not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("get user failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": userToAPI(user)})
}

type userInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	if !validEmail(req.Email) {
		respondError(w, http.StatusBadRequest, errors.New("invalid email address"))
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, errors.New("password must be at least 8 characters"))
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		respondError(w, http.StatusBadRequest, errors.New("invalid role"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		s.log.Error().Err(err).Msg("email check failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if count > 0 {
		respondError(w, http.StatusConflict, errors.New("a user with this email already exists"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("hash password failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         req.Name,
		Image:        req.Image,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.log.Error().Err(err).Msg("create user failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"user": userToAPI(user)})
}

type userUpdate struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Image    *string `json:"image"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return
	}

	var req userUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("user not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("load user failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	if req.Email != nil {
		if !validEmail(*req.Email) {
			respondError(w, http.StatusBadRequest, errors.New("invalid email address"))
			return
		}
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.Image != nil {
		user.Image = *req.Image
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			respondError(w, http.StatusBadRequest, errors.New("password must be at least 8 characters"))
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.log.Error().Err(err).Msg("hash password failed")
			respondError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}
		user.PasswordHash = hash
	}
	if req.Role != nil {
		if *req.Role != models.RoleAdmin && *req.Role != models.RoleUser {
			respondError(w, http.StatusBadRequest, errors.New("invalid role"))
			return
		}
		// demoting the last admin would lock everyone out
		if user.Role == models.RoleAdmin && *req.Role != models.RoleAdmin {
			admins, err := s.countAdmins(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("admin count failed")
				respondError(w, http.StatusInternalServerError, errors.New("internal error"))
				return
			}
			if admins <= 1 {
				respondError(w, http.StatusConflict, errors.New("cannot demote the last admin"))
				return
			}
		}
		user.Role = *req.Role
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		s.log.Error().Err(err).Msg("update user failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": userToAPI(user)})
}

// handleDeleteUser refuses to remove the last remaining admin so the
// system can never end up with no one able to sign in. Sessions for the
// deleted user are revoked in the same transaction.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("user not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("load user failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	if user.Role == models.RoleAdmin {
		admins, err := s.countAdmins(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("admin count failed")
			respondError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}
		if admins <= 1 {
			respondError(w, http.StatusConflict, errors.New("cannot delete the last admin"))
			return
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		s.log.Error().Err(err).Msg("delete user failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) countAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).Count(&count).Error
	return count, err
}
