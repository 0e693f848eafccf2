// Package router maps requests from UI collaborators onto the history engine
// and shapes every outcome into a uniform response.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/yiblet/clipq/internal/config"
	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/store"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeUnknownOperation = "UNKNOWN_OPERATION"
	CodeInvalidParams    = "INVALID_PARAMS"
	CodeQueueFull        = "QUEUE_FULL"
	CodeInternal         = "INTERNAL"
)

// Response is the single reply to a request.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CountData is the payload of getCount.
type CountData struct {
	Count    int `json:"count"`
	Capacity int `json:"capacity"`
}

// Settings is the user settings surface the router exposes.
type Settings interface {
	Snapshot() (config.UserSettings, error)
	Set(key, value string) error
}

// Router dispatches requests to an engine.
type Router struct {
	engine   *queue.Engine
	settings Settings
	logger   *slog.Logger
}

// New creates a router. settings may be nil, in which case the settings
// operations fail with INTERNAL.
func New(engine *queue.Engine, settings Settings, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{engine: engine, settings: settings, logger: logger}
}

// Dispatch runs req and returns exactly one response.
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	if req == nil {
		return failure(CodeInvalidParams, "missing request")
	}
	if err := req.validate(); err != nil {
		return r.fail(req.Operation(), err)
	}

	var (
		data any
		err  error
	)
	switch q := req.(type) {
	case RecordTextCopy:
		err = r.engine.RecordTextCopy(ctx, q.Content)
	case AddText:
		err = r.engine.RecordManualText(ctx, q.Content)
	case GetQueue:
		data = r.engine.Queue()
	case GetCount:
		data = CountData{Count: r.engine.Len(), Capacity: r.engine.Capacity()}
	case RegisterInternalCopy:
		r.engine.RegisterInternalCopy(q.Hash)
	case PinItem:
		err = r.engine.Pin(ctx, q.ID)
	case UnpinItem:
		err = r.engine.Unpin(ctx, q.ID)
	case DeleteItem:
		err = r.engine.Delete(ctx, q.ID)
	case AddImage:
		err = r.engine.RecordImage(ctx, queue.ImageInput{
			Thumbnail:   q.Thumbnail,
			OriginalURL: q.OriginalURL,
			Kind:        q.Kind,
			Origin:      q.Source,
		})
	case CaptureImage:
		err = r.engine.RecordImage(ctx, queue.ImageInput{
			Thumbnail:   q.Thumbnail,
			OriginalURL: q.OriginalURL,
			Kind:        q.Kind,
			Origin:      store.OriginManual,
		})
	case ClearAll:
		err = r.engine.ClearAll(ctx)
	case GetSettings:
		data, err = r.snapshotSettings()
	case SetSetting:
		err = r.setSetting(q.Key, q.Value)
	default:
		return r.fail(req.Operation(), ErrUnknownOperation)
	}

	if err != nil {
		return r.fail(req.Operation(), err)
	}
	r.logger.Debug("request handled", "operation", req.Operation())
	return Response{Success: true, Data: data}
}

// HandleJSON decodes an envelope, dispatches it and encodes the response.
func (r *Router) HandleJSON(ctx context.Context, data []byte) []byte {
	var resp Response
	req, err := Decode(data)
	if err != nil {
		resp = r.fail("", err)
	} else {
		resp = r.Dispatch(ctx, req)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("failed to encode response", "error", err)
		out, _ = json.Marshal(failure(CodeInternal, "failed to encode response"))
	}
	return out
}

func (r *Router) snapshotSettings() (any, error) {
	if r.settings == nil {
		return nil, errors.New("settings are not available")
	}
	return r.settings.Snapshot()
}

func (r *Router) setSetting(key, value string) error {
	if r.settings == nil {
		return errors.New("settings are not available")
	}
	return r.settings.Set(key, value)
}

// fail maps an error onto a failure response.
func (r *Router) fail(op string, err error) Response {
	switch {
	case errors.Is(err, ErrUnknownOperation):
		r.logger.Warn("unknown operation", "error", err)
		return failure(CodeUnknownOperation, err.Error())
	case errors.Is(err, ErrInvalidParams),
		errors.Is(err, queue.ErrInvalidKind),
		errors.Is(err, config.ErrInvalidSetting):
		r.logger.Debug("invalid request", "operation", op, "error", err)
		return failure(CodeInvalidParams, err.Error())
	case errors.Is(err, queue.ErrQueueFull):
		return failure(CodeQueueFull, err.Error())
	default:
		r.logger.Error("request failed", "operation", op, "error", err)
		return failure(CodeInternal, err.Error())
	}
}

func failure(code, message string) Response {
	return Response{Success: false, Error: &ErrorBody{Code: code, Message: message}}
}
