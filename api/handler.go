package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/server"
)

// Routes served by the API.
const (
	PathUpload    = "/api/upload-video/"
	PathWebSocket = "/ws/progress/"
	PathEvents    = "/api/events"

	// FieldVideo is the multipart field carrying the upload.
	FieldVideo = "video"
)

// SuccessMessage is the message of a successful upload response.
const SuccessMessage = "Video processed successfully"

// Submitter runs an upload and waits for its outcome. It owns up.Body.
type Submitter interface {
	Submit(ctx context.Context, up pipeline.Upload) (*pipeline.Result, error)
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Message          string `json:"message"`
	OriginalFilename string `json:"original_filename"`
	Transcript       string `json:"transcript"`
	RunID            string `json:"run_id"`
}

// Handler serves the upload endpoint.
type Handler struct {
	runs Submitter
	log  *logger.Logger
}

// NewHandler creates a Handler submitting runs to runs.
func NewHandler(runs Submitter) *Handler {
	return &Handler{
		runs: runs,
		log:  logger.WithComponent("api"),
	}
}

// UploadVideo validates the multipart upload, runs the pipeline on it and
// answers once the run has ended.
func (h *Handler) UploadVideo(c *gin.Context) {
	fh, err := c.FormFile(FieldVideo)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			server.RespondWithError(c, apperrors.PayloadTooLarge(maxErr.Limit))
			return
		}
		server.RespondWithError(c, apperrors.New(apperrors.ErrCodeMissingField, "No video file provided", http.StatusBadRequest).
			WithDetail("field", FieldVideo))
		return
	}
	if fh.Size == 0 {
		server.RespondWithError(c, apperrors.InvalidInput(FieldVideo, "uploaded file is empty"))
		return
	}

	// The run closes f, possibly after this request has ended.
	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	log := h.log.WithContext(c.Request.Context()).WithFields(logger.Fields(logger.FieldFilename, fh.Filename))

	res, err := h.runs.Submit(c.Request.Context(), pipeline.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		h.respondFailure(c, log, fh.Filename, err)
		return
	}

	server.RespondOK(c, UploadResponse{
		Message:          SuccessMessage,
		OriginalFilename: res.Filename,
		Transcript:       res.Transcript,
		RunID:            res.RunID,
	})
}

func (h *Handler) respondFailure(c *gin.Context, log *logger.Logger, filename string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info("Client gone before run finished")
		c.Abort()
		return
	}

	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeStageFailed {
		server.RespondWithError(c, err)
		return
	}

	resp := appErr.ToResponse()
	resp.Error = pipeline.FailureMessage(filename, appErr)
	resp.Details = nil
	c.JSON(appErr.HTTPStatus, resp)
}
