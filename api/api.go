// Package api serves the panel's application API over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/BenB289/BMGPanel/config"
	"github.com/BenB289/BMGPanel/constants"
	"github.com/BenB289/BMGPanel/models"
	"github.com/BenB289/BMGPanel/store"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// InternalAPI is the HTTP server exposing eggs and their variables.
type InternalAPI struct {
	router *gin.Engine
	config *config.Config
	store  *store.Store
}

// New builds the router and registers every route.
func New(cfg *config.Config, s *store.Store) *InternalAPI {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		models.RegisterValidations(v)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger())

	api := &InternalAPI{
		router: router,
		config: cfg,
		store:  s,
	}
	api.RegisterRoutes()
	return api
}

// Handler returns the http.Handler serving the API.
func (api *InternalAPI) Handler() http.Handler {
	return api.router
}

// Listen serves the API on addr until it fails.
func (api *InternalAPI) Listen(addr string) error {
	log.WithField("address", addr).Info("Application API is now listening.")
	return api.router.Run(addr)
}

// GetIndex returns the panel version.
func GetIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "panel",
		"version": constants.Version,
	})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextVarRequestID, id)
		c.Header("X-Request-Id", id)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"request_id": c.GetString(contextVarRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
		}).Debug("Handled API request.")
	}
}
