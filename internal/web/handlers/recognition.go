package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/dataset"
	"github.com/kozaktomas/face-attendance/internal/session"
	"github.com/kozaktomas/face-attendance/internal/vision"
)

// Recognizer is the running session served over HTTP.
type Recognizer interface {
	ID() string
	State() session.State
	Stats() session.Stats
	Records() []attendance.Record
	Recognize(ctx context.Context, vectors []dataset.FeatureVector) ([]session.Outcome, error)
	ProcessFrame(ctx context.Context, frame session.Frame) ([]session.Outcome, error)
}

// RecognitionHandler handles the recognition and attendance endpoints.
type RecognitionHandler struct {
	session Recognizer
	seq     atomic.Int64
}

// NewRecognitionHandler creates a new recognition handler.
func NewRecognitionHandler(s Recognizer) *RecognitionHandler {
	return &RecognitionHandler{session: s}
}

// Recognize classifies already normalized feature vectors.
func (h *RecognitionHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRecognizeBodySize)

	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Vectors) == 0 {
		respondError(w, http.StatusBadRequest, "vectors are required")
		return
	}
	if len(req.Vectors) > constants.MaxRecognizeVectors {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d vectors per request", constants.MaxRecognizeVectors))
		return
	}

	vectors := make([]dataset.FeatureVector, len(req.Vectors))
	for i, v := range req.Vectors {
		vectors[i] = v
	}

	outcomes, err := h.session.Recognize(r.Context(), vectors)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	resp := RecognizeResponse{SessionID: h.session.ID(), Results: make([]OutcomeResponse, len(outcomes))}
	for i, o := range outcomes {
		resp.Results[i] = toOutcomeResponse(o, false)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Frames accepts one image (raw body or multipart field "image"), detects faces and marks them.
func (h *RecognitionHandler) Frames(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxFrameUploadSize)

	data, err := readFrameBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	img, err := vision.DecodeImageBytes(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to decode image")
		return
	}

	frame := session.Frame{
		Seq:        int(h.seq.Add(1)),
		Image:      img,
		CapturedAt: time.Now(),
	}
	outcomes, err := h.session.ProcessFrame(r.Context(), frame)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	resp := RecognizeResponse{SessionID: h.session.ID(), Results: make([]OutcomeResponse, len(outcomes))}
	for i, o := range outcomes {
		resp.Results[i] = toOutcomeResponse(o, true)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Attendance lists the records marked by the running session.
func (h *RecognitionHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, AttendanceResponse{
		SessionID: h.session.ID(),
		State:     h.session.State().String(),
		Records:   toRecordResponses(h.session.Records()),
		Stats:     toStatsResponse(h.session.Stats()),
	})
}

func (h *RecognitionHandler) respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotRunning) {
		respondError(w, http.StatusServiceUnavailable, "recognition session is not running")
		return
	}
	log.WithError(err).WithField("session_id", h.session.ID()).Warn("Recognition request failed")
	respondError(w, http.StatusUnprocessableEntity, sanitizeForLog(err.Error()))
}

func readFrameBody(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.New("image field is required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.New("failed to read image")
		}
		return data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("failed to read image")
	}
	if len(data) == 0 {
		return nil, errors.New("image body is required")
	}
	return data, nil
}
