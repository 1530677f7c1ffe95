// Package utils holds small URI/path helpers shared by the bridge and tools.
package utils

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizeURI accepts a file path or a file:// URI and always returns a
// file:// URI. Tool callers pass whichever form their editor hands them.
func NormalizeURI(pathOrURI string) string {
	if strings.HasPrefix(pathOrURI, "file://") {
		return pathOrURI
	}
	return PathToFileURI(pathOrURI)
}

// PathToFileURI converts an absolute filesystem path into a file:// URI.
func PathToFileURI(path string) string {
	path = filepath.ToSlash(path)
	if runtime.GOOS == "windows" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// FileURIToPath converts a file:// URI back into a filesystem path.
// Non-URI input is returned unchanged so callers can pass either form.
func FileURIToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	path := u.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
		path = filepath.FromSlash(path)
	}
	return path
}

// URIToFilePath is an alias kept for readability at call sites that think
// in LSP terms.
func URIToFilePath(uri string) string {
	return FileURIToPath(uri)
}
