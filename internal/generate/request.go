package generate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"adforge/internal/services"
)

const (
	// PromptMinLen and PromptMaxLen bound the free-text prompt.
	PromptMinLen = 10
	PromptMaxLen = 2000
)

// AspectRatio enumerates the supported output aspect ratios.
type AspectRatio string

const (
	AspectSquare   AspectRatio = "1:1"
	AspectVertical AspectRatio = "9:16"
	AspectWide     AspectRatio = "16:9"
	AspectPortrait AspectRatio = "4:5"
)

// Platform enumerates the ad platforms a creative targets.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformTikTok Platform = "tiktok"
)

// Provider enumerates the generation backends the service can route to.
type Provider string

const (
	ProviderRunway Provider = "runway"
	ProviderKling  Provider = "kling"
	ProviderVeo    Provider = "veo"
)

var (
	aspectRatios = map[AspectRatio]struct{}{
		AspectSquare: {}, AspectVertical: {}, AspectWide: {}, AspectPortrait: {},
	}
	platforms = map[Platform]struct{}{
		PlatformMeta: {}, PlatformTikTok: {},
	}
	providers = map[Provider]struct{}{
		ProviderRunway: {}, ProviderKling: {}, ProviderVeo: {},
	}
	durations = map[int]struct{}{15: {}, 30: {}, 60: {}}
)

// AspectRatios returns the supported aspect ratio values.
func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectSquare, AspectVertical, AspectWide, AspectPortrait}
}

// Platforms returns the supported platform values.
func Platforms() []Platform {
	return []Platform{PlatformMeta, PlatformTikTok}
}

// Providers returns the supported provider values.
func Providers() []Provider {
	return []Provider{ProviderRunway, ProviderKling, ProviderVeo}
}

// Durations returns the supported clip durations in seconds.
func Durations() []int {
	return []int{15, 30, 60}
}

// Request carries the parameters of one generation submission.
type Request struct {
	Prompt          string
	SourceImageURL  string
	AspectRatio     AspectRatio
	Platform        Platform
	DurationSeconds int
	Provider        Provider
	// RemixOfTaskID links the request to the local task it remixes, if any.
	RemixOfTaskID int64
}

// FieldError names the offending field alongside the reason.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func fieldErr(field, reason string) error {
	return services.Wrap(services.ErrValidation, "generate", "validate", "", &FieldError{Field: field, Reason: reason})
}

// Validate checks the request locally. It returns a validation-tagged error
// naming the first offending field.
func (r *Request) Validate() error {
	prompt := strings.TrimSpace(r.Prompt)
	// Bounds are in characters, not bytes, so multibyte prompts count fairly.
	if utf8.RuneCountInString(prompt) < PromptMinLen {
		return fieldErr("prompt", fmt.Sprintf("must be at least %d characters", PromptMinLen))
	}
	if utf8.RuneCountInString(prompt) > PromptMaxLen {
		return fieldErr("prompt", fmt.Sprintf("must be at most %d characters", PromptMaxLen))
	}
	if _, ok := aspectRatios[r.AspectRatio]; !ok {
		return fieldErr("aspect_ratio", fmt.Sprintf("must be one of %v", AspectRatios()))
	}
	if _, ok := platforms[r.Platform]; !ok {
		return fieldErr("platform", fmt.Sprintf("must be one of %v", Platforms()))
	}
	if _, ok := durations[r.DurationSeconds]; !ok {
		return fieldErr("duration", fmt.Sprintf("must be one of %v seconds", Durations()))
	}
	if _, ok := providers[r.Provider]; !ok {
		return fieldErr("provider", fmt.Sprintf("must be one of %v", Providers()))
	}
	return nil
}

// ParseAspectRatio converts user input into a known AspectRatio.
func ParseAspectRatio(value string) (AspectRatio, bool) {
	candidate := AspectRatio(strings.TrimSpace(value))
	_, ok := aspectRatios[candidate]
	return candidate, ok
}

// ParsePlatform converts user input into a known Platform.
func ParsePlatform(value string) (Platform, bool) {
	candidate := Platform(strings.ToLower(strings.TrimSpace(value)))
	_, ok := platforms[candidate]
	return candidate, ok
}

// ParseProvider converts user input into a known Provider.
func ParseProvider(value string) (Provider, bool) {
	candidate := Provider(strings.ToLower(strings.TrimSpace(value)))
	_, ok := providers[candidate]
	return candidate, ok
}
