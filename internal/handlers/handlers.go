package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"unimart/internal/config"
	"unimart/internal/middleware"
	"unimart/internal/models"
	"unimart/internal/repository"
	"unimart/internal/security"
	"unimart/internal/service"
)

// Services are the collaborators the handlers call into.
type Services struct {
	Tokens   *security.TokenService
	Auth     *service.AuthService
	Listings *service.ListingService
	Photos   *service.PhotoService
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	store    repository.Store
	cache    *redis.Client
	tokens   *security.TokenService
	auth     *service.AuthService
	listings *service.ListingService
	photos   *service.PhotoService
}

// NewHandlerSet wires the handlers. cache may be nil when Redis is not
// configured.
func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, store repository.Store, cache *redis.Client, svc Services) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		store:    store,
		cache:    cache,
		tokens:   svc.Tokens,
		auth:     svc.Auth,
		listings: svc.Listings,
		photos:   svc.Photos,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/", h.Home)
	router.GET("/healthz", h.Health)

	router.POST("/register", h.RegisterUser)
	router.POST("/login", h.Login)
	router.POST("/updatepassword", h.UpdatePassword)
	router.POST("/admin_login", h.AdminLogin)

	user := router.Group("")
	user.Use(middleware.Auth(h.tokens, security.ScopeUser))
	{
		user.GET("/profile", h.Profile)
		user.POST("/sellproduct", h.SellProduct)
		user.GET("/mylistings", h.MyListings)
		user.GET("/mylistings/:id", h.MyListing)
		user.PUT("/mylistings/updateproduct/:id", h.UpdateProduct)
		user.PUT("/mylistings/photo/:id", h.UploadPhoto)
		user.DELETE("/mylistings/deleteproduct", h.DeleteProduct)
		user.DELETE("/mylistings/delete", h.DeleteProduct)
		user.GET("/products", h.Products)
	}

	admin := router.Group("")
	admin.Use(middleware.Auth(h.tokens, security.ScopeAdmin))
	{
		admin.GET("/admin_profile", h.AdminProfile)
		admin.GET("/productstobeapproved", h.PendingProducts)
		admin.PUT("/approveproduct/:id", h.ApproveProduct)
		admin.PUT("/rejectproduct/:id", h.RejectProduct)
	}
}

func (h HandlerSet) Home(c *gin.Context) {
	c.String(http.StatusOK, "Hello world")
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// invalidFieldError names a body field whose value could not be decoded.
type invalidFieldError struct {
	field string
}

func (e *invalidFieldError) Error() string {
	return e.field + " is invalid"
}

// bind decodes the JSON body into req. An empty body is validated as an
// empty object so required fields are still reported by name.
func bind(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return true
	}

	var invalid *invalidFieldError
	if errors.As(err, &invalid) {
		respondMessage(c, http.StatusBadRequest, invalid.Error())
		return false
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		respondMessage(c, http.StatusBadRequest, (&invalidFieldError{field: strings.ToLower(typeErr.Field)}).Error())
		return false
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].Field())
		if verrs[0].Tag() == "required" {
			respondMessage(c, http.StatusBadRequest, (&service.MissingFieldError{Field: field}).Error())
		} else {
			respondMessage(c, http.StatusBadRequest, fmt.Sprintf("%s is invalid", field))
		}
		return false
	}

	respondMessage(c, http.StatusBadRequest, "Invalid request body")
	return false
}

// fail maps service errors onto responses. Unrecognised errors are logged
// and reported as a bare 500.
func (h HandlerSet) fail(c *gin.Context, err error) {
	var missingErr *service.MissingFieldError
	switch {
	case errors.As(err, &missingErr):
		respondMessage(c, http.StatusBadRequest, missingErr.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		respondMessage(c, http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondMessage(c, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, service.ErrUnknownAccount):
		respondMessage(c, http.StatusBadRequest, "User does not exist")
	case errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrUnsupportedPhoto),
		errors.Is(err, service.ErrPhotoTooLarge):
		respondMessage(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		respondMessage(c, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, repository.ErrAccountNotFound):
		respondMessage(c, http.StatusNotFound, "User not found")
	case errors.Is(err, repository.ErrListingNotFound):
		respondMessage(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, service.ErrNoListings):
		respondMessage(c, http.StatusNotFound, "No products found")
	case errors.Is(err, models.ErrInvalidTransition):
		respondMessage(c, http.StatusConflict, "Product has already been reviewed")
	case errors.Is(err, service.ErrPhotosDisabled):
		respondMessage(c, http.StatusServiceUnavailable, "Photo uploads are not available")
	default:
		_ = c.Error(err)
		reqLog := middleware.RequestLogger(c, h.log)
		reqLog.Error().Err(err).
			Str("path", c.FullPath()).
			Str("subject_id", middleware.SubjectID(c)).
			Msg("request failed")
		respondMessage(c, http.StatusInternalServerError, "Server Error")
	}
}
