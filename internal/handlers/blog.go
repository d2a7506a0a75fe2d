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

	"portfolio/internal/models"
)

type blogAuthor struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type blogPostResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CoverImage  string     `json:"cover_image"`
	Author      blogAuthor `json:"author"`
	Tags        []string   `json:"tags"`
	PublishedAt time.Time  `json:"published_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func postToAPI(p models.BlogPost) blogPostResponse {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	return blogPostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		CoverImage:  p.CoverImage,
		Author:      blogAuthor{Name: p.AuthorName, Image: p.AuthorImage},
		Tags:        tags,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func postsToAPI(posts []models.BlogPost) []blogPostResponse {
	out := make([]blogPostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, postToAPI(p))
	}
	return out
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var posts []models.BlogPost
	if err := s.db.WithContext(ctx).Preload("Tags").
		Order("published_at DESC").Find(&posts).Error; err != nil {
		s.log.Error().Err(err).Msg("list posts failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": postsToAPI(posts)})
}

func (s *Server) handleGetPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var post models.BlogPost
	err := s.db.WithContext(ctx).Preload("Tags").
		Where("slug = ?", slug).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("post not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("get post failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"post": postToAPI(post)})
}

func (s *Server) handleGetPostByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var post models.BlogPost
	err = s.db.WithContext(ctx).Preload("Tags").First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("post not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("get post failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"post": postToAPI(post)})
}

func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, errors.New("search query is required"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	needle := "%" + strings.ToLower(q) + "%"
	var posts []models.BlogPost
	if err := s.db.WithContext(ctx).Preload("Tags").
		Where("LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ? OR LOWER(content) LIKE ?",
			needle, needle, needle).
		Order("published_at DESC").Find(&posts).Error; err != nil {
		s.log.Error().Err(err).Msg("search posts failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": postsToAPI(posts), "query": q})
}

func (s *Server) handlePostsByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var posts []models.BlogPost
	err := s.db.WithContext(ctx).Preload("Tags").
		Joins("JOIN blog_post_tags bpt ON bpt.blog_post_id = blog_posts.id").
		Joins("JOIN tags ON tags.id = bpt.tag_id").
		Where("tags.slug = ? OR LOWER(tags.name) = LOWER(?)", tag, tag).
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		s.log.Error().Err(err).Msg("posts by tag failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"posts": postsToAPI(posts), "tag": tag})
}

type blogPostInput struct {
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	CoverImage string   `json:"cover_image"`
	Tags       []string `json:"tags"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req blogPostInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	if req.Title == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, errors.New("title and content are required"))
		return
	}

	author, _ := userFrom(r.Context())

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	slug := models.Slugify(req.Title)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("slug = ?", slug).Count(&count).Error; err != nil {
		s.log.Error().Err(err).Msg("slug check failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if count > 0 {
		respondError(w, http.StatusConflict, errors.New("a post with this title already exists"))
		return
	}

	authorID := author.ID
	post := models.BlogPost{
		ID:          uuid.New(),
		Title:       req.Title,
		Slug:        slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		CoverImage:  req.CoverImage,
		AuthorID:    &authorID,
		AuthorName:  author.Name,
		PublishedAt: time.Now().UTC(),
	}

	tags, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		s.log.Error().Err(err).Msg("resolve tags failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	post.Tags = tags

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		s.log.Error().Err(err).Msg("create post failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"post": postToAPI(post)})
}

type blogPostUpdate struct {
	Title      *string   `json:"title"`
	Excerpt    *string   `json:"excerpt"`
	Content    *string   `json:"content"`
	CoverImage *string   `json:"cover_image"`
	Tags       *[]string `json:"tags"`
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}

	var req blogPostUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	var post models.BlogPost
	err = s.db.WithContext(ctx).Preload("Tags").First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, errors.New("post not found"))
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("load post failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	if req.Title != nil && *req.Title != "" {
		post.Title = *req.Title
		post.Slug = models.Slugify(*req.Title)
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.CoverImage != nil {
		post.CoverImage = *req.CoverImage
	}

	if err := s.db.WithContext(ctx).Save(&post).Error; err != nil {
		s.log.Error().Err(err).Msg("update post failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	if req.Tags != nil {
		tags, err := s.resolveTags(ctx, *req.Tags)
		if err != nil {
			s.log.Error().Err(err).Msg("resolve tags failed")
			respondError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}
		if err := s.db.WithContext(ctx).Model(&post).
			Association("Tags").Replace(tags); err != nil {
			s.log.Error().Err(err).Msg("replace tags failed")
			respondError(w, http.StatusInternalServerError, errors.New("internal error"))
			return
		}
		post.Tags = tags
	}

	respondJSON(w, http.StatusOK, map[string]any{"post": postToAPI(post)})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("invalid post id"))
		return
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id)
	if res.Error != nil {
		s.log.Error().Err(res.Error).Msg("delete post failed")
		respondError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if res.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, errors.New("post not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) resolveTags(ctx context.Context, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag := models.Tag{Name: name, Slug: models.Slugify(name)}
		if err := s.db.WithContext(ctx).
			Where("name = ?", name).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
