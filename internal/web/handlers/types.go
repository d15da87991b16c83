package handlers

import (
	"image"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/session"
)

// RecognizeRequest is the body of POST /recognize.
type RecognizeRequest struct {
	Vectors [][]float64 `json:"vectors"`
}

// Region is a face rectangle in frame pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OutcomeResponse is the result for one vector or face region.
type OutcomeResponse struct {
	Label    string  `json:"label,omitempty"`
	Status   string  `json:"status"`
	Distance float64 `json:"distance,omitempty"`
	Region   *Region `json:"region,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RecognizeResponse is returned by POST /recognize and POST /frames.
type RecognizeResponse struct {
	SessionID string            `json:"session_id"`
	Results   []OutcomeResponse `json:"results"`
}

// RecordResponse is one attendance record.
type RecordResponse struct {
	Label      string `json:"label"`
	ObservedAt string `json:"observed_at"`
}

// StatsResponse mirrors session.Stats.
type StatsResponse struct {
	Frames        int `json:"frames"`
	Regions       int `json:"regions"`
	Marked        int `json:"marked"`
	AlreadyMarked int `json:"already_marked"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
}

// AttendanceResponse is returned by GET /attendance.
type AttendanceResponse struct {
	SessionID string           `json:"session_id"`
	State     string           `json:"state"`
	Records   []RecordResponse `json:"records"`
	Stats     StatsResponse    `json:"stats"`
}

func toOutcomeResponse(o session.Outcome, withRegion bool) OutcomeResponse {
	resp := OutcomeResponse{
		Label:    o.Label,
		Status:   string(o.Status),
		Distance: o.Distance,
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	if withRegion {
		resp.Region = toRegion(o.Region)
	}
	return resp
}

func toRegion(r image.Rectangle) *Region {
	return &Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

func toRecordResponses(records []attendance.Record) []RecordResponse {
	out := make([]RecordResponse, len(records))
	for i, r := range records {
		out[i] = RecordResponse{Label: r.Label, ObservedAt: r.ObservedAt.Format(constants.TimestampLayout)}
	}
	return out
}

func toStatsResponse(s session.Stats) StatsResponse {
	return StatsResponse{
		Frames:        s.Frames,
		Regions:       s.Regions,
		Marked:        s.Marked,
		AlreadyMarked: s.AlreadyMarked,
		Skipped:       s.Skipped,
		Failed:        s.Failed,
	}
}
