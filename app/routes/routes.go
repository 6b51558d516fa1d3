package routes

import (
	"html/template"
	"net/http"
	"time"

	"yatube/app/api"
	"yatube/app/cache"
	"yatube/app/controllers"
	"yatube/app/middleware"
	"yatube/app/pagination"
	"yatube/app/repositories"
	"yatube/app/services"
	"yatube/app/views"

	"github.com/gorilla/mux"
)

// IndexCachePrefix namespaces the cached main page.
const IndexCachePrefix = "index_page"

// Options configures SetupRoutes.
type Options struct {
	Store        *repositories.Store
	PageCache    cache.Store
	Templates    map[string]*template.Template
	PageCacheTTL time.Duration
	PerPage      int
	SecureCookie bool
}

// Services bundles the business services built on one store.
type Services struct {
	Posts    *services.PostService
	Comments *services.CommentService
	Groups   *services.GroupService
	Users    *services.UserService
	Follows  *services.FollowService
}

func NewServices(store *repositories.Store, perPage int) *Services {
	posts := services.NewPostService(store, perPage)
	return &Services{
		Posts:    posts,
		Comments: services.NewCommentService(store),
		Groups:   services.NewGroupService(store),
		Users:    services.NewUserService(store),
		Follows:  services.NewFollowService(store, posts),
	}
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(opts Options) *mux.Router {
	if opts.PerPage < 1 {
		opts.PerPage = pagination.DefaultPerPage
	}
	svc := NewServices(opts.Store, opts.PerPage)

	router := mux.NewRouter()
	router.NotFoundHandler = controllers.NotFound(opts.Templates)

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Authenticate(svc.Users))
	router.Use(middleware.Logger)

	postController := controllers.NewPostController(svc.Posts, svc.Groups, svc.Users, svc.Follows, opts.Templates)
	commentController := controllers.NewCommentController(svc.Comments, opts.Templates)
	followController := controllers.NewFollowController(svc.Follows, svc.Users, opts.Templates)
	authController := controllers.NewAuthController(svc.Users, opts.SecureCookie, opts.Templates)

	// API routes
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.ContentTypeJSON)
	api.NewHandler(svc.Posts, svc.Comments, svc.Groups, svc.Users, svc.Follows, opts.PerPage).Register(apiRouter)

	// Web routes
	index := http.HandlerFunc(postController.Index)
	if opts.PageCache != nil {
		router.Handle("/", middleware.CachePage(opts.PageCache, IndexCachePrefix, opts.PageCacheTTL)(index)).Methods(http.MethodGet)
	} else {
		router.Handle("/", index).Methods(http.MethodGet)
	}
	router.HandleFunc("/group/{slug:[-a-zA-Z0-9_]+}/", postController.GroupPosts).Methods(http.MethodGet)
	router.HandleFunc(`/profile/{username:[\w.@+-]+}/`, postController.Profile).Methods(http.MethodGet)
	router.HandleFunc("/posts/{id:[0-9]+}/", postController.Detail).Methods(http.MethodGet)

	router.Handle("/create/", loginRequired(postController.Create)).Methods(http.MethodGet, http.MethodPost)
	router.Handle("/posts/{id:[0-9]+}/edit/", loginRequired(postController.Edit)).Methods(http.MethodGet, http.MethodPost)
	router.Handle("/posts/{id:[0-9]+}/comment/", loginRequired(commentController.Create)).Methods(http.MethodPost)
	router.Handle("/follow/", loginRequired(postController.FollowIndex)).Methods(http.MethodGet)
	router.Handle(`/profile/{username:[\w.@+-]+}/follow/`, loginRequired(followController.Follow)).Methods(http.MethodPost)
	router.Handle(`/profile/{username:[\w.@+-]+}/unfollow/`, loginRequired(followController.Unfollow)).Methods(http.MethodPost)

	router.PathPrefix(views.StaticPrefix).Handler(views.Static()).Methods(http.MethodGet, http.MethodHead)

	// Auth routes
	router.HandleFunc("/auth/signup/", authController.Signup).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/auth/login/", authController.Login).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/auth/logout/", authController.Logout).Methods(http.MethodPost)

	return router
}

func loginRequired(fn http.HandlerFunc) http.Handler {
	return middleware.RequireLogin(fn)
}
