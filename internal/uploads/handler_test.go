package uploads

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// Upload and delete calls that reach S3 need a live bucket; these tests pin
// the request validation and the unconfigured-storage path.
type HandlerSuite struct {
	suite.Suite
	router *gin.Engine
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(nil, nil)
	s.router = gin.New()
	s.router.POST("/upload/photo", handler.UploadPhoto)
	s.router.DELETE("/upload/photo", handler.DeletePhoto)
	s.router.GET("/upload/document-url", handler.GetDocumentURL)
}

func (s *HandlerSuite) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) TestUploadPhotoWithoutStorageConfigured() {
	w := s.do(http.MethodPost, "/upload/photo")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Contains(w.Body.String(), "S3 not configured")
}

func (s *HandlerSuite) TestDeletePhotoRequiresKey() {
	w := s.do(http.MethodDelete, "/upload/photo")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "missing key")
}

func (s *HandlerSuite) TestDeletePhotoWithoutStorageConfigured() {
	w := s.do(http.MethodDelete, "/upload/photo?key=players/123_ab.jpg")
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Contains(w.Body.String(), "S3 not configured")
}

func (s *HandlerSuite) TestDocumentURLRequiresStorage() {
	w := s.do(http.MethodGet, "/upload/document-url?key=birth_certificates/p1/cert.pdf")
	s.Equal(http.StatusInternalServerError, w.Code)
}
