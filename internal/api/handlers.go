package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/library-lending/gateway/internal/rpc"
)

var (
	emptyCollection = []byte("[]")
	emptyRecord     = []byte("{}")
)

// bodyJSON keeps numbers as json.Number so ids and years reach the
// backend decoder unchanged.
var bodyJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// errBodyTooLarge is reported when the body exceeds the configured limit.
var errBodyTooLarge = errors.New("request entity too large")

// handle returns the handler for one endpoint. It performs exactly one
// backend call per request, or none when the body cannot be read.
func (s *Server) handle(ep Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if ep.ReadsBody {
			decoded, err := s.decodeBody(w, r)
			if errors.Is(err, errBodyTooLarge) {
				s.writeFailure(w, r, ep, http.StatusRequestEntityTooLarge, &rpc.Error{Message: err.Error()})
				return
			}
			if err != nil {
				s.writeFailure(w, r, ep, ep.FailureStatus, &rpc.Error{Message: err.Error()})
				return
			}
			body = decoded
		}

		resp, err := s.backend.Call(r.Context(), ep.RPC, ep.Shape(r, body))
		if err != nil {
			s.writeFailure(w, r, ep, ep.FailureStatus, err)
			return
		}

		raw, ok := resp[ep.ResultField]
		switch {
		case ok:
		case ep.Collection:
			raw = emptyCollection
		default:
			raw = emptyRecord
		}
		writeRaw(w, ep.SuccessStatus, raw)
	}
}

// decodeBody reads a JSON object body. An empty body, or one sent with a
// non-JSON content type, reads as an empty object.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	if !isJSONContent(r.Header.Get("Content-Type")) {
		return map[string]any{}, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var decoded any
	if err := bodyJSON.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	return obj, nil
}

// isJSONContent reports whether a request body should be parsed. A missing
// content type is treated as JSON.
func isJSONContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, ep Endpoint, status int, err error) {
	rpcErr := rpc.Normalize(err)

	attrs := []any{
		"endpoint", ep.Name,
		"rpc", ep.RPC,
		"status", status,
		"message", rpcErr.Message,
		"request_id", rpc.CallerFrom(r.Context()).RequestID,
	}
	if rpcErr.Code != nil {
		attrs = append(attrs, "code", rpcErr.Code.String())
	}
	s.logger.Warn("request failed", attrs...)

	WriteJSON(w, status, rpcErr)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, ErrorBody{Message: fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, ErrorBody{Message: fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path)})
}
