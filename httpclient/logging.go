package httpclient

import (
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tavara-labs/go-httpkit/logger"
)

const (
	msgRequest  = "REST client request"
	msgResponse = "REST client response"
)

// logRequest logs the outgoing request at info level, plus a debug-level
// payload entry when payload logging is enabled.
func (c *client) logRequest(req *nethttp.Request, body []byte, traceID string) {
	requestURL := redactURL(req.URL)

	event := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", requestURL).
		Str("request_id", traceID)

	if len(req.Header) > 0 {
		event.Int("header_count", len(req.Header))
	}
	if len(body) > 0 {
		event.Int("body_size", len(body))
	}
	event.Msg(msgRequest)

	if !c.config.LogPayloads {
		return
	}

	debugEvent := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", requestURL).
		Str("request_id", traceID).
		Interface("headers", req.Header)
	attachPayload(debugEvent, body, c.maxPayloadLogBytes())
	debugEvent.Msg(msgRequest)
}

// logResponse logs the received response at info level, plus a debug-level
// payload entry when payload logging is enabled.
func (c *client) logResponse(resp *Response, traceID string) {
	event := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Str("request_id", traceID)

	if len(resp.Body) > 0 {
		event.Int("body_size", len(resp.Body))
	}
	event.Msg(msgResponse)

	if !c.config.LogPayloads {
		return
	}

	debugEvent := c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", traceID).
		Interface("headers", resp.Headers)
	attachPayload(debugEvent, resp.Body, c.maxPayloadLogBytes())
	debugEvent.Msg(msgResponse)
}

// attachPayload adds body size, truncation marker, and a capped preview to the event.
func attachPayload(event logger.LogEvent, body []byte, maxBytes int) {
	if len(body) == 0 {
		return
	}
	preview, truncated := payloadPreview(body, maxBytes)
	event.Int("body_size", len(body))
	event.Str("body_truncated", strconv.FormatBool(truncated))
	event.Bytes("body_preview", preview)
}

// maxPayloadLogBytes returns the configured payload cap, falling back to the default.
func (c *client) maxPayloadLogBytes() int {
	if c.config.MaxPayloadLogBytes > 0 {
		return c.config.MaxPayloadLogBytes
	}
	return DefaultMaxPayloadLogBytes
}

// payloadPreview caps the body to maxBytes for logging and reports truncation.
func payloadPreview(body []byte, maxBytes int) ([]byte, bool) {
	if len(body) <= maxBytes {
		return body, false
	}
	return body[:maxBytes], true
}

// redactURL renders the request URL with any userinfo credentials masked,
// preserving scheme, host, path, and query for debugging.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.User == nil {
		return u.String()
	}

	var masked strings.Builder
	masked.WriteString(u.Scheme)
	masked.WriteString("://")
	if username := u.User.Username(); username != "" {
		masked.WriteString(username)
	} else {
		masked.WriteString("****")
	}
	masked.WriteString(":****@")
	masked.WriteString(u.Host)

	if u.RawPath != "" {
		masked.WriteString(u.RawPath)
	} else if u.Path != "" {
		masked.WriteString(u.Path)
	}
	if u.RawQuery != "" {
		masked.WriteString("?")
		masked.WriteString(u.RawQuery)
	}
	return masked.String()
}
