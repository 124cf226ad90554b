package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"offlinetube-relay/internal/model"
	"offlinetube-relay/internal/relay"
)

// Fixed response messages. The streaming endpoint deliberately collapses every
// backend failure into a 404 "Video not found"; only the info endpoint
// preserves the backend's status code.
const (
	notFoundMessage     = "Video not found"
	unknownErrorMessage = "Unknown error"

	// Media type used when the backend omits Content-Type on a stream.
	defaultVideoContentType = "video/mp4"
)

// translateMode selects how a backend response becomes an outbound response.
type translateMode int

const (
	// translateJSON validates the backend body as JSON and re-emits it
	// verbatim with status 200.
	translateJSON translateMode = iota
	// translateStream pipes the backend body through untransformed; any
	// non-2xx backend status becomes a fixed 404.
	translateStream
	// translatePreserveStatus re-emits JSON on 2xx and otherwise answers
	// with the backend's own status code and its extracted detail message.
	translatePreserveStatus
)

// endpoint describes one relay instantiation: where to call the backend and
// how to translate the outcome.
type endpoint struct {
	name    string        // label used in logs
	method  string        // backend HTTP method
	path    string        // backend path, unescaped
	query   url.Values    // query parameters forwarded to the backend
	mode    translateMode // translation strategy
	failMsg string        // generic message for the catch-all 500 envelope
}

// errorEnvelope is the uniform JSON error body for every failure response.
type errorEnvelope struct {
	Error string `json:"error"`
}

// RelayHandler exposes the OfflineTube API surface, forwarding each inbound
// request to exactly one backend call.
type RelayHandler struct {
	relay  *relay.Service
	logger *slog.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *relay.Service, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		relay:  svc,
		logger: logger.With("component", "relay_handler"),
	}
}

// Search relays GET /api/search?q=...&max_results=...
func (h *RelayHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return badRequest(c, "q is required")
	}

	query := url.Values{"q": {q}}
	if mr := c.QueryParam("max_results"); mr != "" {
		query.Set("max_results", mr)
	}

	return h.forward(c, endpoint{
		name:    "search",
		method:  http.MethodGet,
		path:    "/api/search",
		query:   query,
		mode:    translateJSON,
		failMsg: "Search failed",
	})
}

// Trending relays GET /api/trending.
func (h *RelayHandler) Trending(c echo.Context) error {
	return h.forward(c, endpoint{
		name:    "trending",
		method:  http.MethodGet,
		path:    "/api/trending",
		mode:    translateJSON,
		failMsg: "Failed to fetch trending videos",
	})
}

// VideoInfo relays GET /api/video/info?url=... This is the one endpoint that
// preserves the backend's status code on failure.
func (h *RelayHandler) VideoInfo(c echo.Context) error {
	videoURL := c.QueryParam("url")
	if videoURL == "" {
		return badRequest(c, "url is required")
	}

	return h.forward(c, endpoint{
		name:    "video_info",
		method:  http.MethodGet,
		path:    "/api/video/info",
		query:   url.Values{"url": {videoURL}},
		mode:    translatePreserveStatus,
		failMsg: "Failed to fetch video info",
	})
}

// Download relays GET /api/video/download?url=...&format_id=...&resolution=...
func (h *RelayHandler) Download(c echo.Context) error {
	videoURL := c.QueryParam("url")
	if videoURL == "" {
		return badRequest(c, "url is required")
	}

	query := url.Values{"url": {videoURL}}
	if fid := c.QueryParam("format_id"); fid != "" {
		query.Set("format_id", fid)
	}
	if res := c.QueryParam("resolution"); res != "" {
		query.Set("resolution", res)
	}

	return h.forward(c, endpoint{
		name:    "download",
		method:  http.MethodGet,
		path:    "/api/video/download",
		query:   query,
		mode:    translateJSON,
		failMsg: "Download failed",
	})
}

// Stream relays GET /api/stream/:filename, piping the video bytes through.
func (h *RelayHandler) Stream(c echo.Context) error {
	filename, err := pathFilename(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return h.forward(c, endpoint{
		name:    "stream",
		method:  http.MethodGet,
		path:    "/api/stream/" + filename,
		mode:    translateStream,
		failMsg: "Streaming failed",
	})
}

// Library relays GET /api/library.
func (h *RelayHandler) Library(c echo.Context) error {
	return h.forward(c, endpoint{
		name:    "library",
		method:  http.MethodGet,
		path:    "/api/library",
		mode:    translateJSON,
		failMsg: "Failed to fetch library",
	})
}

// Delete relays DELETE /api/library/:filename.
func (h *RelayHandler) Delete(c echo.Context) error {
	filename, err := pathFilename(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return h.forward(c, endpoint{
		name:    "delete",
		method:  http.MethodDelete,
		path:    "/api/library/" + filename,
		mode:    translateJSON,
		failMsg: "Failed to delete video",
	})
}

// forward runs the shared relay sequence: one backend call, then translation
// per the endpoint's mode, with a single catch-all failure branch.
func (h *RelayHandler) forward(c echo.Context, ep endpoint) error {
	resp, err := h.relay.Call(c.Request().Context(), ep.method, ep.path, ep.query)
	if err != nil {
		return h.fail(c, ep, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch ep.mode {
	case translateStream:
		return h.translateStream(c, ep, resp)
	case translatePreserveStatus:
		return h.translatePreserveStatus(c, ep, resp)
	default:
		return h.translateJSON(c, ep, resp)
	}
}

// translateJSON validates the backend body as JSON and re-emits the bytes
// verbatim with status 200.
func (h *RelayHandler) translateJSON(c echo.Context, ep endpoint, resp *model.RelayResponse) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return h.fail(c, ep, fmt.Errorf("read backend body: %w", err))
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return h.fail(c, ep, fmt.Errorf("decode backend body: %w", err))
	}

	return c.JSONBlob(http.StatusOK, raw)
}

// translatePreserveStatus re-emits JSON on backend success. On a non-2xx
// response it extracts the backend's detail message best-effort and answers
// with the backend's original status code.
func (h *RelayHandler) translatePreserveStatus(c echo.Context, ep endpoint, resp *model.RelayResponse) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return h.fail(c, ep, fmt.Errorf("read backend body: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var raw json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return h.fail(c, ep, fmt.Errorf("decode backend body: %w", err))
		}
		return c.JSONBlob(http.StatusOK, raw)
	}

	msg := unknownErrorMessage
	var be model.BackendError
	if err := json.Unmarshal(body, &be); err == nil {
		msg = be.Message(unknownErrorMessage)
	}

	return c.JSON(resp.StatusCode, errorEnvelope{Error: msg})
}

// translateStream pipes a successful backend stream through, forwarding
// content metadata and advertising range support. Any non-2xx backend status
// becomes a fixed 404; the backend's real status is not preserved.
func (h *RelayHandler) translateStream(c echo.Context, ep endpoint, resp *model.RelayResponse) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.JSON(http.StatusNotFound, errorEnvelope{Error: notFoundMessage})
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = defaultVideoContentType
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, contentType)
	if cl := resp.Header.Get(echo.HeaderContentLength); cl != "" {
		header.Set(echo.HeaderContentLength, cl)
	}
	header.Set("Accept-Ranges", "bytes")

	c.Response().WriteHeader(http.StatusOK)

	// Stream the backend body directly to the client. If io.Copy fails
	// mid-stream (e.g. client disconnect, network error), the HTTP status
	// code has already been sent, so the client receives a truncated
	// response with the original status. We log the error for observability.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"endpoint", ep.name,
			"err", err,
			"path", c.Request().URL.Path,
		)
	}

	return nil
}

// fail handles the catch-all branch: log with the endpoint's label, answer a
// fixed 500 with the endpoint's generic message.
func (h *RelayHandler) fail(c echo.Context, ep endpoint, err error) error {
	h.logger.Error("relay error",
		"endpoint", ep.name,
		"err", err,
		"path", c.Request().URL.Path,
	)
	return c.JSON(http.StatusInternalServerError, errorEnvelope{Error: ep.failMsg})
}

// badRequest answers a validation failure; no backend call has happened.
func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorEnvelope{Error: msg})
}

// pathFilename extracts and validates the :filename path parameter. A
// filename must be a single path segment; separators smuggled in via
// percent-encoding are rejected.
func pathFilename(c echo.Context) (string, error) {
	raw := c.Param("filename")
	if raw == "" {
		return "", fmt.Errorf("filename is required")
	}
	filename, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid filename")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return "", fmt.Errorf("invalid filename")
	}
	return filename, nil
}
