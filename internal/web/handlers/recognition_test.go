package handlers

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, value uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 6, 6))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRecognitionHandler_Recognize(t *testing.T) {
	s, store := newTestSession(t)
	h := NewRecognitionHandler(s)

	body := `{"vectors": [[10, 10, 10, 10], [250, 250, 250, 250], [5, 5, 5, 5], [1, 2]]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", strings.NewReader(body))
	recorder := httptest.NewRecorder()

	h.Recognize(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)

	if resp.SessionID != s.ID() {
		t.Errorf("session_id = %q, want %q", resp.SessionID, s.ID())
	}
	want := []struct{ label, status string }{
		{"alice", "marked"},
		{"bob", "marked"},
		{"alice", "already_marked"},
		{"", "skipped"},
	}
	if len(resp.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(resp.Results), len(want))
	}
	for i, w := range want {
		if resp.Results[i].Label != w.label || resp.Results[i].Status != w.status {
			t.Errorf("result %d = %+v, want %s/%s", i, resp.Results[i], w.label, w.status)
		}
	}
	if resp.Results[3].Error == "" {
		t.Error("skipped result must carry the error")
	}
	if len(store.records) != 2 {
		t.Errorf("store has %d records, want 2", len(store.records))
	}
}

func TestRecognitionHandler_RecognizeBadRequests(t *testing.T) {
	s, _ := newTestSession(t)
	h := NewRecognitionHandler(s)

	var many strings.Builder
	many.WriteString(`{"vectors": [`)
	for i := range 65 {
		if i > 0 {
			many.WriteString(",")
		}
		many.WriteString("[0,0,0,0]")
	}
	many.WriteString("]}")

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"no vectors", `{"vectors": []}`},
		{"too many vectors", many.String()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", strings.NewReader(tc.body))
			recorder := httptest.NewRecorder()
			h.Recognize(recorder, req)
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}

func TestRecognitionHandler_StoppedSession(t *testing.T) {
	s, _ := newTestSession(t)
	s.Stop()
	h := NewRecognitionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", strings.NewReader(`{"vectors": [[0,0,0,0]]}`))
	recorder := httptest.NewRecorder()
	h.Recognize(recorder, req)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}

func TestRecognitionHandler_FramesRawBody(t *testing.T) {
	s, _ := newTestSession(t)
	h := NewRecognitionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/frames", bytes.NewReader(pngBytes(t, 240)))
	req.Header.Set("Content-Type", "image/png")
	recorder := httptest.NewRecorder()

	h.Frames(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	got := resp.Results[0]
	if got.Label != "bob" || got.Status != "marked" {
		t.Errorf("result = %+v, want bob marked", got)
	}
	if got.Region == nil || got.Region.Width != 6 || got.Region.Height != 6 {
		t.Errorf("region = %+v, want whole 6x6 frame", got.Region)
	}
}

func TestRecognitionHandler_FramesMultipart(t *testing.T) {
	s, _ := newTestSession(t)
	h := NewRecognitionHandler(s)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "frame.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pngBytes(t, 3))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/frames", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	recorder := httptest.NewRecorder()

	h.Frames(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)
	if len(resp.Results) != 1 || resp.Results[0].Label != "alice" {
		t.Errorf("results = %+v, want alice", resp.Results)
	}
}

func TestRecognitionHandler_FramesBadImage(t *testing.T) {
	s, _ := newTestSession(t)
	h := NewRecognitionHandler(s)

	for _, body := range []string{"", "definitely not an image"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/frames", strings.NewReader(body))
		recorder := httptest.NewRecorder()
		h.Frames(recorder, req)
		assertStatusCode(t, recorder, http.StatusBadRequest)
	}
}

func TestRecognitionHandler_Attendance(t *testing.T) {
	s, _ := newTestSession(t)
	h := NewRecognitionHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize", strings.NewReader(`{"vectors": [[0,0,0,0]]}`))
	h.Recognize(httptest.NewRecorder(), req)

	recorder := httptest.NewRecorder()
	h.Attendance(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp AttendanceResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.State != "running" {
		t.Errorf("state = %q, want running", resp.State)
	}
	if len(resp.Records) != 1 || resp.Records[0].Label != "alice" || resp.Records[0].ObservedAt != "2024-04-02 10:00:00" {
		t.Errorf("records = %+v", resp.Records)
	}
	if resp.Stats.Marked != 1 || resp.Stats.Regions != 1 {
		t.Errorf("stats = %+v", resp.Stats)
	}
}
