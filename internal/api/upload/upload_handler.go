package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/shophub-api/app/observability/metrics"
	"github.com/FACorreiaa/shophub-api/app/storage"
	"github.com/FACorreiaa/shophub-api/internal/api"
)

const (
	MaxImageBytes = 5 << 20
	formField     = "image"
)

type Response struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

type Handler struct {
	uploader storage.Uploader
	logger   *slog.Logger
}

// NewHandler returns the image upload handler. A nil uploader makes every
// upload answer 503.
func NewHandler(uploader storage.Uploader, logger *slog.Logger) *Handler {
	return &Handler{
		uploader: uploader,
		logger:   logger,
	}
}

// UploadImage godoc
// @Summary      Upload a product image
// @Tags         Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        image formData file true "Image file, at most 5 MiB"
// @Success      200 {object} Response
// @Failure      400 {object} api.MessageResponse
// @Failure      401 {object} api.MessageResponse
// @Failure      500 {object} api.MessageResponse
// @Failure      503 {object} api.MessageResponse
// @Security     BearerAuth
// @Router       /upload [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UploadHandler").Start(r.Context(), "UploadImage")
	defer span.End()
	r = r.WithContext(ctx)
	l := h.logger.With(slog.String("handler", "UploadImage"))

	if h.uploader == nil {
		span.SetStatus(codes.Error, "storage not configured")
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Image upload is not available")
		return
	}

	// leave room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+(1<<20))
	file, header, err := h.formFile(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr), errors.Is(err, errFileTooLarge):
			span.SetStatus(codes.Error, "file too large")
			api.ErrorResponse(w, r, http.StatusBadRequest, "File too large, the limit is 5MB")
		default:
			l.DebugContext(ctx, "No file in upload request", slog.Any("error", err))
			span.SetStatus(codes.Error, "no file")
			api.ErrorResponse(w, r, http.StatusBadRequest, "No file uploaded")
		}
		return
	}
	defer file.Close()

	contentType, err := imageContentType(file, header)
	if err != nil {
		span.SetStatus(codes.Error, "not an image")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	obj, err := h.uploader.Upload(ctx, storage.UploadInput{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		l.ErrorContext(ctx, "Upload failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Error uploading image")
		return
	}

	metrics.Get().RecordUpload(ctx, header.Size)
	span.SetAttributes(attribute.String("object.key", obj.Key))
	span.SetStatus(codes.Ok, "uploaded")
	api.WriteJSONResponse(w, r, http.StatusOK, Response{
		Success:  true,
		URL:      obj.URL,
		PublicID: obj.Key,
	})
}

var errFileTooLarge = errors.New("file too large")

func (h *Handler) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		return nil, nil, err
	}
	file, header, err := r.FormFile(formField)
	if err != nil {
		return nil, nil, err
	}
	if header.Size > MaxImageBytes {
		file.Close()
		return nil, nil, errFileTooLarge
	}
	return file, header, nil
}

// imageContentType trusts the declared part type only when the content sniffs
// as an image too. The file is rewound afterwards.
func imageContentType(file multipart.File, header *multipart.FileHeader) (string, error) {
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	sniffed := http.DetectContentType(head[:n])
	if !strings.HasPrefix(sniffed, "image/") {
		return "", fmt.Errorf("unsupported content type %q", sniffed)
	}
	if declared := header.Header.Get("Content-Type"); strings.HasPrefix(declared, "image/") {
		return declared, nil
	}
	return sniffed, nil
}
