package dropbox

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/auth"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// ExtractEndpointError recognises route errors returned with HTTP 409.
// The tag is the error_summary up to its trailing "/..." marker.
func ExtractEndpointError(err error) (domain.Diagnostic, bool) {
	summary, ok := endpointSummary(err)
	if !ok {
		return domain.Diagnostic{}, false
	}
	return domain.Diagnostic{
		Status:  http.StatusConflict,
		Tag:     summaryTag(summary),
		Summary: summary,
	}, true
}

// ExtractAuthError recognises 401 and 429 responses decoded by the SDK.
func ExtractAuthError(err error) (domain.Diagnostic, bool) {
	var authErr auth.AuthAPIError
	if errors.As(err, &authErr) {
		d := domain.Diagnostic{Status: http.StatusUnauthorized, Summary: authErr.ErrorSummary}
		if authErr.AuthError != nil {
			d.Tag = authErr.AuthError.Tag
		}
		return d, true
	}

	var rlErr auth.RateLimitAPIError
	if errors.As(err, &rlErr) {
		d := domain.Diagnostic{Status: http.StatusTooManyRequests, Tag: "too_many_requests", Summary: rlErr.ErrorSummary}
		if rlErr.RateLimitError != nil && rlErr.RateLimitError.Reason != nil {
			d.Tag = rlErr.RateLimitError.Reason.Tag
		}
		return d, true
	}

	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		d := domain.Diagnostic{Tag: tokenErr.ErrorCode, Summary: tokenErr.ErrorDescription}
		if tokenErr.Response != nil {
			d.Status = tokenErr.Response.StatusCode
		}
		return d, true
	}

	return domain.Diagnostic{}, false
}

// ExtractInternalError recognises responses the SDK could not decode.
func ExtractInternalError(err error) (domain.Diagnostic, bool) {
	var sdkErr dropbox.SDKInternalError
	if !errors.As(err, &sdkErr) {
		return domain.Diagnostic{}, false
	}
	return domain.Diagnostic{
		Status:  sdkErr.StatusCode,
		Summary: sdkErr.Content,
	}, true
}

// Extractors lists the Dropbox extractors in precedence order.
var Extractors = []domain.DiagnosticExtractor{
	ExtractEndpointError,
	ExtractAuthError,
	ExtractInternalError,
}

// retryAfter returns the backoff Dropbox requested on a 429, if any.
func retryAfter(err error) (uint64, bool) {
	var rlErr auth.RateLimitAPIError
	if !errors.As(err, &rlErr) {
		return 0, false
	}
	if rlErr.RateLimitError == nil {
		return 0, true
	}
	return rlErr.RateLimitError.RetryAfter, true
}

func endpointSummary(err error) (string, bool) {
	var (
		listErr     files.ListFolderAPIError
		continueErr files.ListFolderContinueAPIError
		downloadErr files.DownloadAPIError
		uploadErr   files.UploadAPIError
	)
	switch {
	case errors.As(err, &listErr):
		return listErr.ErrorSummary, true
	case errors.As(err, &continueErr):
		return continueErr.ErrorSummary, true
	case errors.As(err, &downloadErr):
		return downloadErr.ErrorSummary, true
	case errors.As(err, &uploadErr):
		return uploadErr.ErrorSummary, true
	default:
		return "", false
	}
}

// summaryTag trims Dropbox's "/.." continuation marker:
// "path/not_found/.." becomes "path/not_found".
func summaryTag(summary string) string {
	tag := strings.TrimSpace(summary)
	if i := strings.Index(tag, "/.."); i >= 0 {
		tag = tag[:i]
	}
	return strings.TrimRight(tag, "/.")
}
