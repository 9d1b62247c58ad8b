package serialmux

import (
	"fmt"
	"net/http"

	"tailscale.com/tsweb"
)

// AttachAdminRoutes attaches debugging endpoints served under /debug/. They
// are only reachable from localhost or over Tailscale.
func (l *Link[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("serial-stats", "frame counters for the companion link", func(w http.ResponseWriter, r *http.Request) {
		s := l.Stats()
		fmt.Fprintf(w, "sent %d\ndropped %d\nfailed %d\n", s.Sent, s.Dropped, s.Failed)
	})

	// Server-Sent Events stream of frames as they leave the port.
	debug.HandleSilentFunc("serial-tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		tailFrames(l, w, r)
	})
}

// tailFrames streams frames from src to w until the request ends or src is
// closed.
func tailFrames(src LinkInterface, w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

	id, c := src.Subscribe()
	defer src.Unsubscribe(id)

	// initial ping establishes the stream before the first frame
	_, _ = w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case frame, ok := <-c:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
