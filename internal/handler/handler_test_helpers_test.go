package handler

import (
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk-api/internal/middleware"
	"github.com/noah-isme/complaint-desk-api/internal/models"
)

type responseEnvelope struct {
	Data       interface{}            `json:"data"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
	Error      map[string]interface{} `json:"error"`
}

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	return c, rec
}

func authenticate(c *gin.Context, userID string, staff bool) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Username: userID, IsStaff: staff})
}
