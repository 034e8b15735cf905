package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"go-directory-app/internal/middleware"
	"go-directory-app/internal/session"
	"go-directory-app/web"
)

// Handlers groups the route handlers served by the router.
type Handlers struct {
	Admin      *AdminHandler
	Reviews    *ReviewHandler
	Businesses *BusinessHandler
	Listings   *ListingHandler
	SEO        *SeoHandler
	Auth       *AuthHandler
}

// NewRouter creates and configures a new chi router. Static assets bypass the
// session and authorization; everything else passes the Authorizer. JSON
// endpoints report errors as JSON, pages as the HTML error page.
func NewRouter(h Handlers, sm session.Manager, authz func(http.Handler) http.Handler, jsonErr, htmlErr func(middleware.AppHandler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(authz)

		// Public pages
		r.Method("GET", "/", htmlErr(h.Listings.homeHandler))
		r.Method("GET", "/category/{slug}", htmlErr(h.Listings.categoryHandler))
		r.Method("GET", "/search", htmlErr(h.Listings.searchHandler))
		r.Method("GET", "/businesses/sitemap.xml", htmlErr(h.SEO.businessSitemapHandler))
		r.Method("GET", "/businesses/{slug}", htmlErr(h.Businesses.pageHandler))
		r.Method("GET", "/businesses/{slug}/{location}", htmlErr(h.Businesses.pageHandler))
		r.Method("GET", "/sitemap.xml", htmlErr(h.SEO.rootSitemapHandler))
		r.Get("/robots.txt", h.SEO.robotsHandler)

		// Listing API
		r.Method("GET", "/api/listings", jsonErr(h.Listings.apiListHandler))
		r.Method("GET", "/api/listings/{slug}", jsonErr(h.Listings.apiGetHandler))
		r.Method("GET", "/api/search", jsonErr(h.Listings.apiSearchHandler))

		// Reviews
		r.Method("GET", "/reviews", jsonErr(h.Reviews.listHandler))
		r.Method("POST", "/reviews", jsonErr(h.Reviews.submitHandler))

		// Authentication
		r.Method("GET", "/auth/login", htmlErr(h.Auth.handleLogin))
		r.Method("GET", "/auth/callback", htmlErr(h.Auth.handleCallback))
		r.Method("GET", "/auth/logout", htmlErr(h.Auth.handleLogout))

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Method("GET", "/business/{slug}", jsonErr(h.Admin.getBusinessHandler))
			r.Method("PUT", "/business/{slug}", jsonErr(h.Admin.putBusinessHandler))
			r.Method("POST", "/create-business", jsonErr(h.Admin.createBusinessHandler))
			r.Method("POST", "/delete-business", jsonErr(h.Admin.deleteBusinessHandler))
			r.Method("POST", "/import-listing", jsonErr(h.Admin.importListingHandler))
		})
	})

	return r
}
