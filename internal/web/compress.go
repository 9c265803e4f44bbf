package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

type brotliWriter struct {
	http.ResponseWriter
	bw io.Writer
}

func (w *brotliWriter) Write(b []byte) (int, error) {
	return w.bw.Write(b)
}

// withCompression serves brotli-encoded bodies to clients that ask for
// them. JSON door listings compress to a fraction of their size.
func withCompression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
			next.ServeHTTP(w, r)
			return
		}

		bw := brotli.NewWriter(w)
		defer bw.Close()

		w.Header().Set("Content-Encoding", "br")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(&brotliWriter{ResponseWriter: w, bw: bw}, r)
	})
}
