// Package handlers contains the HTTP surface of the portfolio API.
package handlers

import (
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"portfolio/internal/auth"
	"portfolio/internal/media"
	"portfolio/internal/ratelimit"
)

// Options carry the dependencies the HTTP layer needs.
type Options struct {
	DB             *gorm.DB
	Auth           *auth.Service
	Limiter        *ratelimit.Limiter
	Uploads        *media.Store // nil disables the upload endpoint
	Cookies        auth.CookieOptions
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// Server wires dependencies and configuration for the HTTP handlers.
type Server struct {
	db      *gorm.DB
	auth    *auth.Service
	limiter *ratelimit.Limiter
	uploads *media.Store
	cookies auth.CookieOptions
	origins []string
	log     zerolog.Logger
}

// New initialises the HTTP layer.
func New(opts Options) *Server {
	return &Server{
		db:      opts.DB,
		auth:    opts.Auth,
		limiter: opts.Limiter,
		uploads: opts.Uploads,
		cookies: opts.Cookies,
		origins: opts.AllowedOrigins,
		log:     opts.Logger.With().Str("component", "http").Logger(),
	}
}
