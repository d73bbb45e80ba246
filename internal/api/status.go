package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"adforge/internal/jobs"
	"adforge/internal/services"
)

type statusPayload struct {
	Status             string         `json:"status"`
	ProgressPercentage float64        `json:"progress_percentage"`
	CurrentStep        string         `json:"current_step"`
	ResultData         *resultPayload `json:"result_data"`
	ErrorMessage       string         `json:"error_message"`
}

type resultPayload struct {
	VideoURL        string `json:"video_url"`
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds"`
	AspectRatio     string `json:"aspect_ratio"`
	Provider        string `json:"provider"`
}

// JobStatus fetches one snapshot of a backend job. An unknown job surfaces
// as services.ErrNotFound so the poller can apply its not-found tolerance.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*jobs.Snapshot, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, services.Wrap(services.ErrValidation, "poll", "status", "job id required", nil)
	}

	var payload statusPayload
	ctx = services.WithJobID(services.WithFlow(ctx, "poll"), jobID)
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+jobID, nil, &payload); err != nil {
		return nil, err
	}

	status, ok := jobs.ParseStatus(payload.Status)
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "poll", "status", fmt.Sprintf("unknown job status %q", payload.Status), nil)
	}

	snapshot := &jobs.Snapshot{
		JobID:           jobID,
		Status:          status,
		ProgressPercent: payload.ProgressPercentage,
		CurrentStep:     payload.CurrentStep,
		ErrorMessage:    payload.ErrorMessage,
	}
	if payload.ResultData != nil {
		url := strings.TrimSpace(payload.ResultData.VideoURL)
		if url == "" {
			url = strings.TrimSpace(payload.ResultData.URL)
		}
		snapshot.Result = &jobs.Result{
			URL:             url,
			DurationSeconds: payload.ResultData.DurationSeconds,
			AspectRatio:     payload.ResultData.AspectRatio,
			Provider:        payload.ResultData.Provider,
		}
	}
	return snapshot, nil
}
