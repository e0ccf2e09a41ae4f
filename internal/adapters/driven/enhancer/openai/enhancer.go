// Package openai provides the image enhancement adapter backed by the
// OpenAI Responses and Images APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
	"github.com/custodia-labs/glowbox/internal/logger"
	"github.com/custodia-labs/glowbox/internal/ratelimit"
)

// Ensure Enhancer implements the interface.
var _ driven.ImageEnhancer = (*Enhancer)(nil)

// Default configuration values.
const (
	DefaultBaseURL           = "https://api.openai.com/v1"
	DefaultTimeout           = 5 * time.Minute
	DefaultMaxInputDimension = 4096
)

// Config holds configuration for the OpenAI enhancer.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Timeout bounds a single HTTP request (default: 5m).
	Timeout time.Duration

	// Settings are the raw enhancement settings, validated on construction.
	Settings domain.EnhancementSettings

	// MaxInputDimension bounds the longest side of images sent inline.
	// Zero uses DefaultMaxInputDimension; negative disables resizing.
	MaxInputDimension int

	// RateLimit overrides ratelimit.OpenAI when non-zero.
	RateLimit ratelimit.Config
}

// Enhancer transforms images through OpenAI.
type Enhancer struct {
	client  *http.Client
	baseURL string
	apiKey  string
	opts    domain.EnhancementOptions
	maxDim  int
	limiter *ratelimit.Limiter
}

// responsesRequest is the /responses request format.
type responsesRequest struct {
	Model string           `json:"model"`
	Input []responsesInput `json:"input"`
	Tools []imageTool      `json:"tools"`
}

type responsesInput struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type imageTool struct {
	Type         string `json:"type"`
	Model        string `json:"model"`
	OutputFormat string `json:"output_format"`
	Quality      string `json:"quality"`
}

// responsesResponse is the subset of the /responses body we read.
type responsesResponse struct {
	Output []struct {
		Type   string `json:"type"`
		Result string `json:"result"`
	} `json:"output"`
}

// generateRequest is the /images/generations request format.
type generateRequest struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	Size         string `json:"size"`
	OutputFormat string `json:"output_format"`
}

type generateResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// NewEnhancer validates configuration and creates an enhancer.
// Configuration problems are returned as *domain.ConfigurationError.
func NewEnhancer(cfg Config) (*Enhancer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.NewMissingConfigError("OPENAI_API_KEY", "Missing OPENAI_API_KEY")
	}
	opts, err := domain.ResolveEnhancementOptions(cfg.Settings)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxInputDimension == 0 {
		cfg.MaxInputDimension = DefaultMaxInputDimension
	}
	if cfg.RateLimit == (ratelimit.Config{}) {
		cfg.RateLimit = ratelimit.OpenAI
	}

	return &Enhancer{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		opts:    opts,
		maxDim:  cfg.MaxInputDimension,
		limiter: ratelimit.New(cfg.RateLimit),
	}, nil
}

// Options returns the resolved enhancement options.
func (e *Enhancer) Options() domain.EnhancementOptions {
	return e.opts
}

// Enhance sends the image through the configured strategy and returns the
// decoded result. filename only selects the input MIME type.
func (e *Enhancer) Enhance(ctx context.Context, data []byte, filename string) (*domain.EnhancementResult, error) {
	var (
		result *domain.EnhancementResult
		err    error
	)
	if e.opts.Endpoint == domain.EndpointGenerate {
		result, err = e.generate(ctx)
	} else {
		result, err = e.respond(ctx, data, filename)
	}
	if err != nil {
		return nil, &domain.TransportError{
			Op:         "enhance",
			Path:       filename,
			Diagnostic: domain.ExtractDiagnostic(err, ExtractDiagnostic),
			Err:        err,
		}
	}
	return result, nil
}

func (e *Enhancer) respond(ctx context.Context, data []byte, filename string) (*domain.EnhancementResult, error) {
	payload, mimeType := boundImage(data, filename, e.maxDim)

	req := responsesRequest{
		Model: e.opts.ResponsesModel,
		Input: []responsesInput{{
			Role: "user",
			Content: []inputContent{
				{Type: "input_text", Text: domain.EnhancementPrompt},
				{Type: "input_image", ImageURL: dataURL(payload, mimeType)},
			},
		}},
		Tools: []imageTool{{
			Type:         "image_generation",
			Model:        e.opts.Model,
			OutputFormat: e.opts.OutputFormat,
			Quality:      e.opts.Quality,
		}},
	}

	var resp responsesResponse
	if err := e.post(ctx, "/responses", req, &resp); err != nil {
		return nil, err
	}

	var b64 string
	for _, item := range resp.Output {
		if item.Type == "image_generation_call" {
			b64 = item.Result
			break
		}
	}
	if b64 == "" {
		return nil, fmt.Errorf("no image returned from Responses API: %w", domain.ErrNoImageData)
	}

	img, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &domain.EnhancementResult{
		Data:           img,
		Model:          e.opts.Model,
		Strategy:       domain.StrategyResponses,
		ResponsesModel: e.opts.ResponsesModel,
		MIMEType:       domain.MIMETypeForFormat(e.opts.OutputFormat),
	}, nil
}

// generate calls the Images API. The source image is not sent.
func (e *Enhancer) generate(ctx context.Context) (*domain.EnhancementResult, error) {
	req := generateRequest{
		Model:        e.opts.Model,
		Prompt:       domain.EnhancementPrompt,
		Size:         domain.DefaultGenerateSize,
		OutputFormat: e.opts.OutputFormat,
	}

	var resp generateResponse
	if err := e.post(ctx, "/images/generations", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("no image returned from Images API: %w", domain.ErrNoImageData)
	}

	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &domain.EnhancementResult{
		Data:     img,
		Model:    e.opts.Model,
		Strategy: domain.StrategyImagesGenerate,
		MIMEType: domain.MIMETypeForFormat(e.opts.OutputFormat),
	}, nil
}

// post sends a JSON request and decodes a 2xx response into out.
func (e *Enhancer) post(ctx context.Context, path string, body, out any) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	logger.Debug("openai: POST %s -> %d in %s", path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		if resp.StatusCode == http.StatusTooManyRequests {
			e.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func dataURL(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
