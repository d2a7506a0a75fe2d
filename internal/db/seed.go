package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio/internal/auth"
	"portfolio/internal/models"
)

// SeedAdmin ensures an admin user with the given email exists. Existing
// users are left untouched, so re-running seed is safe.
func SeedAdmin(ctx context.Context, database *gorm.DB, email, name, password string) error {
	if email == "" || password == "" {
		return errors.New("seed: admin email and password are required")
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: lookup admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := database.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("seed: create admin: %w", err)
	}
	return nil
}

// CreateUser inserts a regular user. Unlike SeedAdmin it fails when the
// email is already taken.
func CreateUser(ctx context.Context, database *gorm.DB, email, name, password string) error {
	if email == "" || password == "" {
		return errors.New("db: email and password are required")
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("db: lookup user: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("db: user %q already exists", email)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("db: hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := database.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("db: create user: %w", err)
	}
	return nil
}

// Fixtures describes the optional YAML seed file consumed by the seed
// command.
type Fixtures struct {
	Posts []struct {
		Title       string    `yaml:"title"`
		Excerpt     string    `yaml:"excerpt"`
		Content     string    `yaml:"content"`
		CoverImage  string    `yaml:"cover_image"`
		Tags        []string  `yaml:"tags"`
		PublishedAt time.Time `yaml:"published_at"`
	} `yaml:"posts"`
	Projects []struct {
		Title        string   `yaml:"title"`
		Description  string   `yaml:"description"`
		Content      string   `yaml:"content"`
		ImageURL     string   `yaml:"image_url"`
		DemoURL      string   `yaml:"demo_url"`
		GithubURL    string   `yaml:"github_url"`
		Technologies []string `yaml:"technologies"`
		Featured     bool     `yaml:"featured"`
		Order        int      `yaml:"order"`
	} `yaml:"projects"`
	Experience []struct {
		Company          string     `yaml:"company"`
		Position         string     `yaml:"position"`
		Location         string     `yaml:"location"`
		StartDate        time.Time  `yaml:"start_date"`
		EndDate          *time.Time `yaml:"end_date"`
		Current          bool       `yaml:"current"`
		Description      string     `yaml:"description"`
		Responsibilities []string   `yaml:"responsibilities"`
		URL              string     `yaml:"url"`
		Technologies     []string   `yaml:"technologies"`
		Order            int        `yaml:"order"`
	} `yaml:"experience"`
}

// SeedFixtures loads content fixtures from a YAML file. Rows that collide
// on their unique slug are skipped, so the command is idempotent.
func SeedFixtures(ctx context.Context, database *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed: read fixtures: %w", err)
	}

	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("seed: parse fixtures: %w", err)
	}

	var author models.User
	hasAuthor := database.WithContext(ctx).
		Where("role = ?", models.RoleAdmin).
		Order("created_at").First(&author).Error == nil

	skipOnSlug := clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}

	for _, p := range fx.Posts {
		post := models.BlogPost{
			ID:          uuid.New(),
			Title:       p.Title,
			Slug:        models.Slugify(p.Title),
			Excerpt:     p.Excerpt,
			Content:     p.Content,
			CoverImage:  p.CoverImage,
			PublishedAt: p.PublishedAt,
		}
		if post.PublishedAt.IsZero() {
			post.PublishedAt = time.Now().UTC()
		}
		if hasAuthor {
			id := author.ID
			post.AuthorID = &id
			post.AuthorName = author.Name
			post.AuthorImage = author.Image
		}
		for _, name := range p.Tags {
			tag := models.Tag{Name: name, Slug: models.Slugify(name)}
			if err := database.WithContext(ctx).
				Where("name = ?", name).FirstOrCreate(&tag).Error; err != nil {
				return fmt.Errorf("seed: tag %q: %w", name, err)
			}
			post.Tags = append(post.Tags, tag)
		}
		if err := database.WithContext(ctx).Clauses(skipOnSlug).Create(&post).Error; err != nil {
			return fmt.Errorf("seed: post %q: %w", p.Title, err)
		}
	}

	for _, p := range fx.Projects {
		project := models.Project{
			ID:           uuid.New(),
			Title:        p.Title,
			Slug:         models.Slugify(p.Title),
			Description:  p.Description,
			Content:      p.Content,
			ImageURL:     p.ImageURL,
			DemoURL:      p.DemoURL,
			GithubURL:    p.GithubURL,
			Technologies: models.JSONStrings(p.Technologies),
			Featured:     p.Featured,
			SortOrder:    p.Order,
			PublishedAt:  time.Now().UTC(),
		}
		if err := database.WithContext(ctx).Clauses(skipOnSlug).Create(&project).Error; err != nil {
			return fmt.Errorf("seed: project %q: %w", p.Title, err)
		}
	}

	for _, e := range fx.Experience {
		var count int64
		if err := database.WithContext(ctx).Model(&models.Experience{}).
			Where("company = ? AND position = ?", e.Company, e.Position).
			Count(&count).Error; err != nil {
			return fmt.Errorf("seed: experience lookup: %w", err)
		}
		if count > 0 {
			continue
		}
		exp := models.Experience{
			ID:               uuid.New(),
			Company:          e.Company,
			Position:         e.Position,
			Location:         e.Location,
			StartDate:        e.StartDate,
			EndDate:          e.EndDate,
			Current:          e.Current,
			Description:      e.Description,
			Responsibilities: models.JSONStrings(e.Responsibilities),
			URL:              e.URL,
			Technologies:     models.JSONStrings(e.Technologies),
			SortOrder:        e.Order,
		}
		if err := database.WithContext(ctx).Create(&exp).Error; err != nil {
			return fmt.Errorf("seed: experience %q: %w", e.Company, err)
		}
	}

	return nil
}
