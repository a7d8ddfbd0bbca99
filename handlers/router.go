// minber/handlers/router.go

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)

	// Static file server for locally stored uploads
	mux.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.UploadDir()))))

	mux.Get("/api/health", MakeHandler(app, HandleHealth))

	mux.Route("/api", func(r chi.Router) {
		// Auth
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(app))
			r.Post("/auth/signup", MakeHandler(app, HandleSignup))
			r.Post("/auth/signin", MakeHandler(app, HandleSignin))
		})

		// Users
		r.Get("/users/{userID}", MakeHandler(app, HandleGetUser))
		r.Patch("/users/{userID}", MakeHandler(app, HandleUpdateUser))
		r.Get("/users/{userID}/bookmarks", MakeHandler(app, HandleGetBookmarks))
		r.Get("/users/{userID}/banned", MakeHandler(app, HandleBanStatus))

		// Posts
		r.Get("/posts", MakeHandler(app, HandleGetPosts))
		r.Get("/posts/{postID}", MakeHandler(app, HandleGetPost))
		r.Get("/posts/{postID}/comments", MakeHandler(app, HandleGetComments))
		r.Get("/posts/{postID}/reactions", MakeHandler(app, HandleReactionStatus))

		// Prayer requests
		r.Get("/requests", MakeHandler(app, HandleGetRequests))
		r.Get("/requests/{requestID}", MakeHandler(app, HandleGetRequest))
		r.Get("/requests/{requestID}/comments", MakeHandler(app, HandleGetComments))
		r.Get("/requests/{requestID}/reactions", MakeHandler(app, HandleReactionStatus))

		// Communities & events
		r.Get("/communities", MakeHandler(app, HandleGetCommunities))
		r.Get("/communities/{communityID}/members", MakeHandler(app, HandleGetCommunityMembers))
		r.Get("/events", MakeHandler(app, HandleGetEvents))
		r.Get("/events/{eventID}/attendees", MakeHandler(app, HandleGetEventAttendees))

		// Rate-limited writes
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(app))

			r.Post("/posts", MakeHandler(app, HandleCreatePost))
			r.Delete("/posts/{postID}", MakeHandler(app, HandleDeletePost))
			r.Post("/posts/{postID}/comments", MakeHandler(app, HandleCreateComment))
			r.Post("/posts/{postID}/like", MakeHandler(app, HandleToggleLike))
			r.Post("/posts/{postID}/bookmark", MakeHandler(app, HandleToggleBookmark))

			r.Post("/requests", MakeHandler(app, HandleCreateRequest))
			r.Delete("/requests/{requestID}", MakeHandler(app, HandleDeleteRequest))
			r.Post("/requests/{requestID}/comments", MakeHandler(app, HandleCreateComment))
			r.Post("/requests/{requestID}/like", MakeHandler(app, HandleToggleLike))
			r.Post("/requests/{requestID}/bookmark", MakeHandler(app, HandleToggleBookmark))

			r.Post("/communities", MakeHandler(app, HandleCreateCommunity))
			r.Post("/communities/{communityID}/join", MakeHandler(app, HandleJoinCommunity))
			r.Post("/events", MakeHandler(app, HandleCreateEvent))
			r.Post("/events/{eventID}/attend", MakeHandler(app, HandleAttendEvent))

			r.Post("/reports", MakeHandler(app, HandleCreateReport))

			r.Post("/upload/image", MakeHandler(app, HandleImageUpload))
			r.Post("/upload/video", MakeHandler(app, HandleVideoUpload))
			r.Post("/validate/video", MakeHandler(app, HandleValidateVideoURL))
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(app))
			r.Get("/reports", MakeHandler(app, HandleGetReports))
			r.Patch("/reports/{reportID}", MakeHandler(app, HandleUpdateReport))
			r.Post("/bans", MakeHandler(app, HandleBanUser))
			r.Get("/users/{userID}/bans", MakeHandler(app, HandleListBans))
		})
	})

	return mux
}
