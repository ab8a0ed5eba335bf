// File: internal/filestorage/service_test.go
package filestorage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"green_planet_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(&config.Config{
		UploadDir:       t.TempDir(),
		MaxUploadSizeMB: 1,
		PublicBaseURL:   "http://localhost:8080",
	}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func multipartFileHeader(t *testing.T, fieldName, fileName string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	fh, err := c.FormFile(fieldName)
	require.NoError(t, err)
	return fh
}

func TestService_SaveImage(t *testing.T) {
	svc := newTestService(t)

	fh := multipartFileHeader(t, "image", "plant.png", []byte("fake png bytes"))
	url, err := svc.SaveImage(fh)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
	// The stored name is randomized, never the client-supplied one.
	assert.NotContains(t, url, "plant")

	name := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	data, err := os.ReadFile(filepath.Join(svc.uploadDir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake png bytes"), data)
}

func TestService_SaveImage_RejectsUnknownExtension(t *testing.T) {
	svc := newTestService(t)

	fh := multipartFileHeader(t, "image", "malware.exe", []byte("nope"))
	_, err := svc.SaveImage(fh)
	assert.Error(t, err)
}

func TestService_SaveImage_RejectsOversizedFile(t *testing.T) {
	svc := newTestService(t)

	fh := multipartFileHeader(t, "image", "big.png", bytes.Repeat([]byte("x"), 2*1024*1024))
	_, err := svc.SaveImage(fh)
	assert.Error(t, err)
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(t)

	fh := multipartFileHeader(t, "image", "gone.png", []byte("bytes"))
	url, err := svc.SaveImage(fh)
	require.NoError(t, err)

	name := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	path := filepath.Join(svc.uploadDir, name)
	_, err = os.Stat(path)
	require.NoError(t, err)

	svc.Delete(url)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestService_Delete_IgnoresTraversal(t *testing.T) {
	svc := newTestService(t)
	// Must not panic or touch anything outside the upload dir.
	svc.Delete("http://localhost:8080/uploads/../secret")
	svc.Delete("not-a-url")
}
