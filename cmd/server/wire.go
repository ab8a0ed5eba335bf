// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"green_planet_backend/internal/app"
	"green_planet_backend/internal/auth"
	"green_planet_backend/internal/blog"
	"green_planet_backend/internal/config"
	"green_planet_backend/internal/donation"
	"green_planet_backend/internal/filestorage"
	"green_planet_backend/internal/jobs"
	"green_planet_backend/internal/platform/database"
	"green_planet_backend/internal/platform/elasticsearch"
	"green_planet_backend/internal/platform/logger"
	"green_planet_backend/internal/product"
	"green_planet_backend/internal/shared"
	"green_planet_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		elasticsearch.NewClient,
		filestorage.NewService,
		provideCleanup,

		// Tokens and OAuth
		auth.NewJWTService,
		wire.Bind(new(shared.TokenService), new(*auth.JWTService)),
		auth.NewGoogleOAuthService,
		wire.Bind(new(auth.OAuthExchanger), new(*auth.GoogleOAuthService)),

		// Users
		user.NewGORMRepository,
		user.NewService,
		user.NewHandler,

		// Auth surface
		auth.NewHandler,

		// Products
		product.NewGORMRepository,
		product.NewService,
		product.NewHandler,

		// Blogs
		blog.NewGORMRepository,
		blog.NewService,
		blog.NewHandler,

		// Donations
		donation.NewGORMRepository,
		donation.NewService,
		donation.NewHandler,

		// Jobs
		jobs.NewClaimExpiryJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
