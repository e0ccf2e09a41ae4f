// Package filesystem provides a RemoteStorage backed by a local directory.
//
// The base directory stands in for the remote namespace root: the remote
// path "/INPUT/a.png" maps to <base>/INPUT/a.png. Listings are ordered by
// modification time and resumed through an opaque cursor that records each
// path already reported together with its revision, so files moved in with
// an older modification time are still picked up. A file is reported again
// when its revision changes. Deletions are not reported.
package filesystem
