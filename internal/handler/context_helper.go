package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk-api/internal/middleware"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
)

func identityFromContext(c *gin.Context) *models.Identity {
	return middleware.IdentityFrom(c)
}

// pageFromQuery reads ?page=, falling back to the first page on junk input.
func pageFromQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func complaintIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
	}
	return id, nil
}
