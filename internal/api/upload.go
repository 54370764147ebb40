package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/scribed/internal/backend"
	"github.com/snarg/scribed/internal/metrics"
	"github.com/snarg/scribed/internal/transcribe"
)

// Transcriber forwards one media file to the external transcription service.
type Transcriber interface {
	Transcribe(ctx context.Context, f transcribe.File) (*transcribe.Result, error)
}

// HistoryRecorder appends a row to the user's upload history.
type HistoryRecorder interface {
	InsertUpload(ctx context.Context, up backend.Upload) error
}

// UploadHandler relays a single uploaded media file to the transcription
// service endpoint selected by the file's kind.
type UploadHandler struct {
	transcriber Transcriber
	history     HistoryRecorder
	maxBytes    int64
	log         zerolog.Logger
}

// NewUploadHandler creates the upload relay handler. history may be nil when
// no backend is configured; successful relays are then not recorded.
func NewUploadHandler(transcriber Transcriber, history HistoryRecorder, maxBytes int64, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		transcriber: transcriber,
		history:     history,
		maxBytes:    maxBytes,
		log:         log.With().Str("handler", "upload").Logger(),
	}
}

// Upload handles POST /api/upload.
// Accepts a multipart form with exactly one "file" field, validates its type
// against the allow-list, and forwards it. The upstream data payload is
// relayed verbatim; the buffer lives only in memory for this request.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, err := readFilePart(r)
	if err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	if file == nil {
		WriteMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	mimeType := file.MIME
	if !transcribe.AllowedType(mimeType) {
		metrics.RelayUploadsTotal.WithLabelValues("unknown", "rejected").Inc()
		WriteMessage(w, http.StatusBadRequest, "Invalid file type. Only MP3, WAV, M4A, MP4, MOV, and AVI files are allowed.")
		return
	}
	kind := string(transcribe.Classify(mimeType))

	start := time.Now()
	result, err := h.transcriber.Transcribe(r.Context(), *file)
	metrics.UpstreamRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RelayUploadsTotal.WithLabelValues(kind, "error").Inc()

		var ue *transcribe.UpstreamError
		if errors.As(err, &ue) && ue.StatusCode == http.StatusPaymentRequired {
			// Insufficient credits: relay the upstream verdict as-is.
			WriteMessage(w, http.StatusPaymentRequired, ue.Message)
			return
		}
		h.log.Error().Err(err).Str("kind", kind).Str("file", file.Name).Msg("relay failed")
		WriteFailure(w, http.StatusInternalServerError, "Error processing file", err)
		return
	}

	metrics.RelayUploadsTotal.WithLabelValues(kind, "ok").Inc()
	h.recordUpload(r, file.Name, result)

	WriteJSON(w, http.StatusOK, UploadResponse{
		Message: "File processed successfully",
		Data:    result.Data,
	})
}

// readFilePart scans the multipart stream for the "file" field and buffers
// it in memory, returning nil when the form carries no file. The request is
// read as a stream on purpose: ParseMultipartForm spills parts beyond its
// memory budget to disk temp files, and the upload buffer must never leave
// process memory.
func readFilePart(r *http.Request) (*transcribe.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, err
		}
		return &transcribe.File{
			Name: part.FileName(),
			MIME: part.Header.Get("Content-Type"),
			Data: data,
		}, nil
	}
}

// recordUpload appends the relay to the user's history. Best effort: a
// backend failure here must not fail an upload that already succeeded.
func (h *UploadHandler) recordUpload(r *http.Request, filename string, result *transcribe.Result) {
	if h.history == nil {
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok {
		return
	}
	err := h.history.InsertUpload(r.Context(), backend.Upload{
		UserID:   user.ID,
		FileName: filename,
		Duration: result.Duration,
		Language: result.Language,
		SRTURL:   result.SRTURL,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("user", user.ID).Msg("failed to record upload history")
	}
}
