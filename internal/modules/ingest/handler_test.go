package ingest

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artwall/core/internal/config"
	"github.com/artwall/core/internal/middleware"
	"github.com/artwall/core/internal/modules/post"
	"github.com/artwall/core/internal/pkg/jwt"
	"github.com/artwall/core/internal/store"
)

func newUploadRouter(t *testing.T) (*gin.Engine, *post.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	posts := post.NewService(st, config.StoreViewFlat, zap.NewNop())
	imp := NewImporter(posts, zap.NewNop())

	r := gin.New()
	NewHandler(imp, zap.NewNop()).RegisterRoutes(r.Group("/api"), middleware.Auth())
	return r, posts
}

func uploadFile(t *testing.T, r *gin.Engine, filename, content string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if authed {
		token, err := jwt.Sign("user-1", "", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadImportsNotes(t *testing.T) {
	r, posts := newUploadRouter(t)

	doc := enexDoc(`<note><title>Uploaded</title><content><![CDATA[<en-note><p>x</p></en-note>]]></content></note>`)
	w := uploadFile(t, r, "notes.enex", doc, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notes_imported":1`)

	page, _, err := posts.Paginate(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "user-1", page[0].AuthorID)
}

func TestUploadRequiresAuth(t *testing.T) {
	r, _ := newUploadRouter(t)

	w := uploadFile(t, r, "notes.enex", enexDoc(), false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	r, _ := newUploadRouter(t)

	w := uploadFile(t, r, "", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	r, _ := newUploadRouter(t)

	w := uploadFile(t, r, "notes.pdf", "whatever", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestUploadMalformedDocument(t *testing.T) {
	r, _ := newUploadRouter(t)

	w := uploadFile(t, r, "broken.enex", "<en-export><note><title>x", true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
