// Package connectors holds the RemoteStorage providers a delta run can scan:
//
//   - dropbox: the Dropbox list_folder change feed and file transfer
//   - filesystem: a local directory served as a cursor-paginated feed
//
// Each provider also implements driven.AccountVerifier so the process can
// check credentials at startup.
package connectors
