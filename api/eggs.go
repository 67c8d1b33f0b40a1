package api

import (
	"net/http"
	"strconv"

	"github.com/BenB289/BMGPanel/models"
	"github.com/BenB289/BMGPanel/store"
	"github.com/BenB289/BMGPanel/transformer"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// variableRequest is a single variable of a create or bulk update request.
type variableRequest struct {
	ID           int    `json:"id"`
	Name         string `json:"name" binding:"variable_field"`
	Description  string `json:"description"`
	EnvVariable  string `json:"env_variable" binding:"variable_field"`
	DefaultValue string `json:"default_value"`
	UserViewable *bool  `json:"user_viewable" binding:"required"`
	UserEditable *bool  `json:"user_editable" binding:"required"`
	Rules        string `json:"rules" binding:"required"`
}

func (r *variableRequest) model() models.EggVariable {
	return models.EggVariable{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		EnvVariable:  r.EnvVariable,
		DefaultValue: r.DefaultValue,
		UserViewable: *r.UserViewable,
		UserEditable: *r.UserEditable,
		Rules:        r.Rules,
	}
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, responseError{"The " + name + " identifier must be a positive integer."})
		return 0, false
	}
	return id, true
}

// handleError writes the response for an error returned by the store or the
// transformer.
func handleError(c *gin.Context, err error) {
	var de *transformer.DecodeError
	var ie *transformer.IncludeError

	switch {
	case errors.As(err, &ie):
		log.WithField("include", ie.Include).WithField("egg", ie.EggID).WithError(err).Error("A relationship of the egg could not be rendered.")
		c.AbortWithStatusJSON(http.StatusInternalServerError, responseError{"The egg could not be rendered."})
	case store.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, responseError{errors.Cause(err).Error()})
	case store.IsConflict(err):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, responseError{errors.Cause(err).Error()})
	case errors.As(err, &de):
		log.WithField("field", de.Field).WithError(err).Error("Stored egg data could not be decoded.")
		c.AbortWithStatusJSON(http.StatusInternalServerError, responseError{"The egg could not be rendered."})
	default:
		log.WithError(err).Error("Unexpected error while handling an API request.")
		c.AbortWithStatusJSON(http.StatusInternalServerError, responseError{"An unexpected error was encountered while processing this request."})
	}
}

// bindError rejects a request body that could not be decoded (400) or did not
// pass validation (422).
func bindError(c *gin.Context, err error) {
	var fields validator.ValidationErrors
	var items binding.SliceValidationError
	if errors.As(err, &fields) || errors.As(err, &items) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, responseError{err.Error()})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, responseError{"The request body could not be decoded."})
}

func (api *InternalAPI) handleGetEgg(c *gin.Context) {
	id, ok := paramID(c, "egg")
	if !ok {
		return
	}

	egg, err := api.store.Egg(id)
	if err != nil {
		handleError(c, err)
		return
	}

	if c.Param("nest") != "" {
		nest, ok := paramID(c, "nest")
		if !ok {
			return
		}
		if egg.NestID != nest {
			c.AbortWithStatusJSON(http.StatusNotFound, responseError{"The requested egg does not belong to this nest."})
			return
		}
	}

	includes := transformer.ParseIncludes(c.Query("include"))
	item, err := transformer.NewEggTransformer(GetContextAuthorizer(c), api.store, includes...).Transform(egg)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (api *InternalAPI) handlePatchEggVariables(c *gin.Context) {
	id, ok := paramID(c, "egg")
	if !ok {
		return
	}

	var reqs []variableRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		bindError(c, err)
		return
	}

	vars := make([]models.EggVariable, 0, len(reqs))
	for i := range reqs {
		vars = append(vars, reqs[i].model())
	}

	updated, err := api.store.UpdateVariables(id, vars)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transformer.TransformVariables(updated))
}

func (api *InternalAPI) handlePostEggVariable(c *gin.Context) {
	id, ok := paramID(c, "egg")
	if !ok {
		return
	}

	var req variableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	v, err := api.store.CreateVariable(id, req.model())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transformer.TransformVariable(&v))
}

func (api *InternalAPI) handleDeleteEggVariable(c *gin.Context) {
	id, ok := paramID(c, "egg")
	if !ok {
		return
	}
	variable, ok := paramID(c, "variable")
	if !ok {
		return
	}

	if err := api.store.DeleteVariable(id, variable); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
