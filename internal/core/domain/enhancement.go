package domain

import (
	"slices"
	"strings"
)

// EnhancementPrompt is sent verbatim with every enhancement request.
const EnhancementPrompt = "Enhance this image without changing any elements or composition. " +
	"Increase contrast and colour saturation to create a clean HDR look while keeping blacks deep and rich. " +
	"Remove all noise and grain, apply smooth professional denoising while preserving sharp logo edges and fabric detail. " +
	"Add a subtle but noticeable outer vignette to darken the corners and draw focus toward the centre. " +
	"Keep the image crisp, high-definition, vibrant, and cinematic. " +
	"Do not alter positioning, lighting direction, or design elements - only enhance clarity, depth, and colour intensity."

// Enhancement strategy selectors.
const (
	EndpointResponses = "responses"
	EndpointGenerate  = "generate"
)

// Defaults applied when a setting is empty.
const (
	DefaultImageEndpoint  = EndpointResponses
	DefaultImageModel     = "gpt-image-1.5"
	DefaultResponsesModel = "gpt-5-mini"
	DefaultImageQuality   = "medium"
	DefaultOutputFormat   = "png"
	DefaultGenerateSize   = "1024x1024"
)

// Configuration keys as named in the environment.
const (
	KeyImageEndpoint  = "OPENAI_IMAGE_ENDPOINT"
	KeyImageModel     = "OPENAI_IMAGE_MODEL"
	KeyResponsesModel = "OPENAI_RESPONSES_MODEL"
	KeyImageQuality   = "OPENAI_IMAGE_QUALITY"
	KeyOutputFormat   = "OUTPUT_FORMAT"
)

// Allow-lists, in the order they are reported.
var (
	SupportedEndpoints    = []string{EndpointResponses, EndpointGenerate}
	SupportedImageModels  = []string{"gpt-image-1.5", "chatgpt-image-latest", "gpt-image-1", "gpt-image-1-mini"}
	SupportedQualities    = []string{"auto", "low", "medium", "high"}
	SupportedOutputFormat = []string{"png", "jpeg", "webp"}
)

// EnhancementSettings holds raw, unvalidated enhancement configuration.
type EnhancementSettings struct {
	Endpoint       string
	Model          string
	ResponsesModel string
	Quality        string
	OutputFormat   string
}

// EnhancementOptions are validated, normalised enhancement parameters.
type EnhancementOptions struct {
	Endpoint       string
	Model          string
	ResponsesModel string
	Quality        string
	OutputFormat   string
}

// ResolveEnhancementOptions normalises and validates raw settings against the
// allow-lists. The first violation is returned as a *ConfigurationError.
func ResolveEnhancementOptions(raw EnhancementSettings) (EnhancementOptions, error) {
	var opts EnhancementOptions
	var err error

	if opts.Endpoint, err = resolveAllowed(KeyImageEndpoint, raw.Endpoint, DefaultImageEndpoint, SupportedEndpoints); err != nil {
		return EnhancementOptions{}, err
	}
	if opts.Model, err = resolveAllowed(KeyImageModel, raw.Model, DefaultImageModel, SupportedImageModels); err != nil {
		return EnhancementOptions{}, err
	}
	if opts.Quality, err = resolveAllowed(KeyImageQuality, raw.Quality, DefaultImageQuality, SupportedQualities); err != nil {
		return EnhancementOptions{}, err
	}
	if opts.OutputFormat, err = ResolveOutputFormat(raw.OutputFormat); err != nil {
		return EnhancementOptions{}, err
	}

	opts.ResponsesModel = strings.TrimSpace(raw.ResponsesModel)
	if opts.ResponsesModel == "" {
		opts.ResponsesModel = DefaultResponsesModel
	}

	return opts, nil
}

// ResolveOutputFormat normalises an output format. jpg is an alias of jpeg.
func ResolveOutputFormat(raw string) (string, error) {
	normalized := normalize(raw, DefaultOutputFormat)
	alias := normalized
	if alias == "jpg" {
		alias = "jpeg"
	}
	if !slices.Contains(SupportedOutputFormat, alias) {
		return "", &ConfigurationError{Key: KeyOutputFormat, Value: normalized, Supported: SupportedOutputFormat}
	}
	return alias, nil
}

// MIMETypeForFilename infers an image MIME type from the filename extension.
func MIMETypeForFilename(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/png"
	}
}

// MIMETypeForFormat maps a resolved output format to its MIME type.
func MIMETypeForFormat(format string) string {
	return MIMETypeForFilename("x." + format)
}

func resolveAllowed(key, raw, def string, allowed []string) (string, error) {
	normalized := normalize(raw, def)
	if !slices.Contains(allowed, normalized) {
		return "", &ConfigurationError{Key: key, Value: normalized, Supported: allowed}
	}
	return normalized, nil
}

func normalize(raw, def string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return def
	}
	return v
}
