package ingest

import (
	"errors"

	"github.com/artwall/core/internal/middleware"
	"github.com/artwall/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles ENEX upload requests.
type Handler struct {
	importer *Importer
	log      *zap.Logger
}

func NewHandler(importer *Importer, log *zap.Logger) *Handler {
	return &Handler{importer: importer, log: log}
}

// RegisterRoutes mounts the import endpoint onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/import", authMW, h.upload)
}

// upload POST /import — multipart ENEX upload, streamed into the importer.
func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "no file part in the request")
		return
	}
	if fileHeader.Filename == "" {
		response.BadRequest(c, "no file selected")
		return
	}
	if !AllowedFile(fileHeader.Filename) {
		response.BadRequest(c, ErrUnsupportedFile.Error())
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer f.Close()

	ident := middleware.CurrentIdentity(c)
	result, err := h.importer.ImportStream(c.Request.Context(), f, ident.SubjectID)
	if err != nil {
		var fatal *FatalImportError
		if errors.As(err, &fatal) {
			response.UnprocessableEntity(c, fatal.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	h.log.Info("enex import finished",
		zap.String("author", ident.SubjectID),
		zap.Int("imported", result.NotesImported),
		zap.Int("errors", len(result.Errors)),
	)
	response.OK(c, result)
}
