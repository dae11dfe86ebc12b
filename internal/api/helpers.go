package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediadrop/gateway/internal/domain"
)

// abortWithError returns a JSON error body and stops the handler chain.
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// writeError maps an internal error kind to the externally visible status and
// message. This is the single place that mapping happens.
func writeError(c *gin.Context, err error) {
	var (
		configErr     *domain.ConfigError
		authErr       *domain.AuthError
		validationErr *domain.ValidationError
		storageErr    *domain.StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		abortWithError(c, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &authErr):
		abortWithError(c, http.StatusUnauthorized, authErr.Message)
	case errors.As(err, &configErr):
		abortWithError(c, http.StatusInternalServerError, configErr.Message)
	case errors.As(err, &storageErr):
		abortWithError(c, http.StatusInternalServerError, storageErr.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}
