package api

import (
	"net/http"
	"strings"

	"github.com/BenB289/BMGPanel/acl"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	contextVarAuth      = "auth"
	contextVarRequestID = "request_id"
)

type responseError struct {
	Error string `json:"error"`
}

// AuthHandler returns a HandlerFunc that checks request authentication.
// capability is the capability the API key needs to access the route; an
// empty capability lets every request through.
func (api *InternalAPI) AuthHandler(capability acl.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		split := strings.Split(c.Request.Header.Get("Authorization"), " ")

		var authorizationToken string
		if len(split) == 2 && strings.EqualFold(split[0], "Bearer") {
			authorizationToken = split[1]
		}

		if authorizationToken == "" && capability != "" {
			log.Debug("Token missing in request.")
			c.AbortWithStatusJSON(http.StatusBadRequest, responseError{"Missing required Authorization header."})
			return
		}

		key, ok := api.config.FindKey(authorizationToken)
		if !ok {
			if capability == "" {
				c.Set(contextVarAuth, acl.DenyAll)
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, responseError{"You do not have permission to perform this action."})
			return
		}

		// Permissions were checked when the configuration was loaded.
		caps, _ := key.Capabilities()
		auth := acl.NewKeyAuthorizer(authorizationToken, caps)

		if capability == "" || auth.Authorize(capability) {
			c.Set(contextVarAuth, auth)
			return
		}

		log.WithField("capability", capability).Debug("Auth: API key is missing the capability for this route.")
		c.AbortWithStatusJSON(http.StatusForbidden, responseError{"You do not have permission to perform this action."})
	}
}

// GetContextAuthorizer returns the acl.Authorizer stored in a gin.Context by
// AuthHandler. It denies everything when none is present.
func GetContextAuthorizer(c *gin.Context) acl.Authorizer {
	auth, exists := c.Get(contextVarAuth)
	if !exists {
		return acl.DenyAll
	}
	if auth, ok := auth.(acl.Authorizer); ok {
		return auth
	}
	return acl.DenyAll
}
