package router

import (
	"fmt"
	"net/http"
	"time"

	"private-spaces-backend/pkg/config"
	"private-spaces-backend/pkg/database"
	"private-spaces-backend/pkg/handlers"
	customMiddleware "private-spaces-backend/pkg/middleware"
	"private-spaces-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New assembles the full API router
func New(cfg *config.Config, db database.DatabaseInterface, logger *zap.Logger) *chi.Mux {
	router := chi.NewRouter()
	setupMiddleware(router, cfg, logger)
	setupRoutes(router, cfg, db, logger)
	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.Logger(logger))
	router.Use(customMiddleware.Recovery(cfg, logger))

	router.Use(customMiddleware.CORS(cfg))
	router.Use(customMiddleware.ContentTypeJSON)
	router.Use(customMiddleware.MaxBodySize(1 << 20))

	router.Use(middleware.Timeout(25 * time.Second))
	router.Use(middleware.Compress(5))

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

func setupRoutes(router *chi.Mux, cfg *config.Config, db database.DatabaseInterface, logger *zap.Logger) {
	authHandler := handlers.NewAuthHandler(cfg, db, logger)
	spacesHandler := handlers.NewSpacesHandler(cfg, db, logger)
	postsHandler := handlers.NewPostsHandler(cfg, db, logger)

	router.Get("/", authHandler.HealthCheck)

	// Public auth routes
	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/send-otp", authHandler.SendOTP)
		r.Post("/verify-otp", authHandler.VerifyOTP)
		r.Post("/refresh", authHandler.RefreshToken)
	})

	// Authenticated routes, mounted at the root the way the mobile
	// clients call them
	router.Group(func(r chi.Router) {
		r.Use(customMiddleware.AuthMiddleware(cfg, logger))

		r.Patch("/updateUserInfo", authHandler.UpdateUserInfo)

		// Space directory and membership
		r.Post("/createPrivateSpace", spacesHandler.CreateSpace)
		r.Get("/getUserPrivateSpaces", spacesHandler.ListMySpaces)
		r.Get("/getPrivateSpaceDetails/{id}", spacesHandler.SpaceDetails)
		r.Get("/getPrivateSpaceMembers/{id}", spacesHandler.ListMembers)
		r.Delete("/removePrivateSpaceMember/{id}/{email}", spacesHandler.RemoveMember)
		r.Delete("/dissolvePrivateSpace/{id}", spacesHandler.DissolveSpace)

		// Invitations
		r.Post("/inviteToPrivateSpace/{id}", spacesHandler.InviteUser)
		r.Get("/getPendingInvitations", spacesHandler.ListPendingInvitations)
		r.Post("/acceptPrivateSpaceInvitation/{id}", spacesHandler.AcceptInvitation)
		r.Post("/declinePrivateSpaceInvitation/{id}", spacesHandler.DeclineInvitation)
		r.Get("/getInvitableUsers/{id}", spacesHandler.ListInvitableUsers)
		r.Get("/searchInvitableUsers/{id}", spacesHandler.SearchInvitableUsers)

		// Content feed
		r.Post("/createPrivateSpacePost/{id}", postsHandler.CreatePost)
		r.Get("/getPrivateSpacePosts/{id}", postsHandler.ListPosts)
		r.Delete("/deletePrivateSpacePost/{id}", postsHandler.DeletePost)
		r.Post("/addPrivateSpaceComment/{id}", postsHandler.AddComment)
		r.Get("/getPrivateSpaceComments/{id}", postsHandler.ListComments)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})
}
