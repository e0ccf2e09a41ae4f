// Package dropbox provides the RemoteStorage backed by the Dropbox files API.
//
// # Listing
//
// The change feed is files/list_folder with recursive=true, continued with
// files/list_folder/continue. Deleted entries and non-downloadable files are
// excluded by the request; the paths reported are Dropbox's path_lower.
//
// # Authentication
//
// Two modes are supported:
//
//   - Refresh token: DROPBOX_REFRESH_TOKEN with DROPBOX_APP_KEY and
//     DROPBOX_APP_SECRET. Access tokens are minted and rotated through
//     golang.org/x/oauth2.
//   - Access token: a long-lived DROPBOX_ACCESS_TOKEN.
//
// # Rate Limiting
//
// Every call waits on a token bucket. A 429 response sets a backoff window
// from the Retry-After value Dropbox returns.
package dropbox
