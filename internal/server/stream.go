package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/tandava/internal/capture"
)

// DefaultStreamFPS is the MJPEG preview frame rate. The preview exists so
// players can frame themselves, so it runs below the game pipeline rate.
const DefaultStreamFPS = 10

// StreamHandler serves an MJPEG preview of the camera.
type StreamHandler struct {
	camera capture.Camera
	fps    int
}

// NewStreamHandler creates a new StreamHandler with the given camera.
func NewStreamHandler(camera capture.Camera) *StreamHandler {
	return &StreamHandler{camera: camera, fps: DefaultStreamFPS}
}

// SetFPS overrides the preview frame rate. Values below 1 are ignored.
func (h *StreamHandler) SetFPS(fps int) {
	if fps >= 1 {
		h.fps = fps
	}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)

	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			continue
		}

		buf, err := gocv.IMEncode(".jpg", *frame)
		frame.Close()
		if err != nil {
			continue
		}

		if err := writeMJPEGPart(w, buf.GetBytes()); err != nil {
			buf.Close()
			return
		}
		buf.Close()

		if flusher != nil {
			flusher.Flush()
		}
	}
}

// writeMJPEGPart writes one JPEG frame as a multipart segment.
func writeMJPEGPart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\r\n")
	return err
}
