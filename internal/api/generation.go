package api

import (
	"context"
	"net/http"

	"adforge/internal/generate"
	"adforge/internal/services"
)

// Submission is the backend's acknowledgement of a generation request.
// EnhancedPrompt is an immediately available derived artifact; the job
// itself completes asynchronously.
type Submission struct {
	JobID            string `json:"job_id"`
	EnhancedPrompt   string `json:"enhanced_prompt"`
	CreditsRemaining int    `json:"credits_remaining"`
}

type generationPayload struct {
	Prompt          string `json:"prompt"`
	SourceImageURL  string `json:"source_image_url,omitempty"`
	AspectRatio     string `json:"aspect_ratio"`
	Platform        string `json:"platform"`
	DurationSeconds int    `json:"duration_seconds"`
	Provider        string `json:"provider"`
}

// SubmitGeneration validates the request locally, then submits it.
// Validation failures never reach the network.
func (c *Client) SubmitGeneration(ctx context.Context, req generate.Request) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := generationPayload{
		Prompt:          req.Prompt,
		SourceImageURL:  req.SourceImageURL,
		AspectRatio:     string(req.AspectRatio),
		Platform:        string(req.Platform),
		DurationSeconds: req.DurationSeconds,
		Provider:        string(req.Provider),
	}

	var submission Submission
	ctx = services.WithFlow(ctx, "generate")
	if err := c.do(ctx, http.MethodPost, "/api/v1/ads/generate", payload, &submission); err != nil {
		return nil, err
	}
	if submission.JobID == "" {
		return nil, services.Wrap(services.ErrTransient, "generate", "submit", "backend returned no job id", nil)
	}
	return &submission, nil
}
