package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/wfunc/sweeper/logger"
)

var mimeTypes = map[string]string{
	".html": "text/html",
	".js":   "text/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".woff": "application/font-woff",
	".ttf":  "application/font-ttf",
	".eot":  "application/vnd.ms-fontobject",
	".otf":  "application/font-otf",
	".wasm": "application/wasm",
}

func contentType(name string) string {
	if ct, ok := mimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// staticHandler serves the browser client from dir. Missing files get the
// not-found page with a 404; other read errors a plain 500.
type staticHandler struct {
	dir          string
	notFoundPage string
}

func (h staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	urlPath := path.Clean("/" + r.URL.Path)
	if urlPath == "/" {
		urlPath = "/index.html"
	}
	name := filepath.Join(h.dir, filepath.FromSlash(urlPath))

	content, err := os.ReadFile(name)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", contentType(name))
		w.WriteHeader(http.StatusOK)
		w.Write(content)

	case errors.Is(err, fs.ErrNotExist):
		page, pageErr := os.ReadFile(h.notFoundPage)
		if pageErr != nil {
			logger.Log.Warnf("not-found page %s unreadable: %v", h.notFoundPage, pageErr)
		}
		w.Header().Set("Content-Type", contentType(h.notFoundPage))
		w.WriteHeader(http.StatusNotFound)
		w.Write(page)

	default:
		logger.Log.Errorf("read %s: %v", name, err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Sorry, check with the site admin for error: %v ..\n", errorCode(err))
	}
}

// errorCode prefers the bare errno over the path-qualified message.
func errorCode(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
