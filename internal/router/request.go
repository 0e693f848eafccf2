package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yiblet/clipq/internal/digest"
	"github.com/yiblet/clipq/internal/store"
)

// Operation names accepted on the wire.
const (
	OpRecordTextCopy       = "recordTextCopy"
	OpAddText              = "addText"
	OpGetQueue             = "getQueue"
	OpGetCount             = "getCount"
	OpRegisterInternalCopy = "registerInternalCopy"
	OpPinItem              = "pinItem"
	OpUnpinItem            = "unpinItem"
	OpDeleteItem           = "deleteItem"
	OpAddImage             = "addImage"
	OpCaptureImage         = "captureImage"
	OpClearAll             = "clearAll"
	OpGetSettings          = "getSettings"
	OpSetSetting           = "setSetting"
)

var (
	// ErrUnknownOperation is returned by Decode for an unrecognized name.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidParams marks a request whose params are malformed.
	ErrInvalidParams = errors.New("invalid params")
)

// Request is one of the request variants below. The set is closed.
type Request interface {
	Operation() string
	validate() error
}

// RecordTextCopy records text from a detected copy event.
type RecordTextCopy struct {
	Content string `json:"content"`
}

// AddText records text entered by the user.
type AddText struct {
	Content string `json:"content"`
}

// GetQueue returns the queue, most recent first.
type GetQueue struct{}

// GetCount returns the queue length and capacity.
type GetCount struct{}

// RegisterInternalCopy announces a copy made by clipq itself.
type RegisterInternalCopy struct {
	Hash string `json:"hash"`
}

// PinItem pins an entry.
type PinItem struct {
	ID string `json:"id"`
}

// UnpinItem unpins an entry.
type UnpinItem struct {
	ID string `json:"id"`
}

// DeleteItem deletes an entry.
type DeleteItem struct {
	ID string `json:"id"`
}

// AddImage records a pasted, dropped or detected image.
type AddImage struct {
	Thumbnail   string       `json:"thumbnail"`
	OriginalURL string       `json:"originalUrl,omitempty"`
	Kind        store.Kind   `json:"kind,omitempty"`
	Source      store.Origin `json:"source,omitempty"`
}

// CaptureImage records an image captured from a page by URL.
type CaptureImage struct {
	Thumbnail   string     `json:"thumbnail"`
	OriginalURL string     `json:"originalUrl"`
	Kind        store.Kind `json:"kind,omitempty"`
}

// ClearAll removes every entry.
type ClearAll struct{}

// GetSettings returns the user settings.
type GetSettings struct{}

// SetSetting changes one user setting.
type SetSetting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (RecordTextCopy) Operation() string       { return OpRecordTextCopy }
func (AddText) Operation() string              { return OpAddText }
func (GetQueue) Operation() string             { return OpGetQueue }
func (GetCount) Operation() string             { return OpGetCount }
func (RegisterInternalCopy) Operation() string { return OpRegisterInternalCopy }
func (PinItem) Operation() string              { return OpPinItem }
func (UnpinItem) Operation() string            { return OpUnpinItem }
func (DeleteItem) Operation() string           { return OpDeleteItem }
func (AddImage) Operation() string             { return OpAddImage }
func (CaptureImage) Operation() string         { return OpCaptureImage }
func (ClearAll) Operation() string             { return OpClearAll }
func (GetSettings) Operation() string          { return OpGetSettings }
func (SetSetting) Operation() string           { return OpSetSetting }

// Blank content is valid here; the engine drops it silently.
func (RecordTextCopy) validate() error { return nil }
func (AddText) validate() error        { return nil }
func (GetQueue) validate() error       { return nil }
func (GetCount) validate() error       { return nil }
func (ClearAll) validate() error       { return nil }
func (GetSettings) validate() error    { return nil }

func (r RegisterInternalCopy) validate() error {
	if !digest.Valid(r.Hash) {
		return fmt.Errorf("%w: hash must be %d lowercase hex characters", ErrInvalidParams, digest.Size)
	}
	return nil
}

func (r PinItem) validate() error    { return requireID(r.ID) }
func (r UnpinItem) validate() error  { return requireID(r.ID) }
func (r DeleteItem) validate() error { return requireID(r.ID) }

func (r AddImage) validate() error {
	if err := imageKind(r.Kind); err != nil {
		return err
	}
	if r.Source != "" && r.Source != store.OriginAuto && r.Source != store.OriginManual {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidParams, r.Source)
	}
	return nil
}

func (r CaptureImage) validate() error {
	if r.OriginalURL == "" {
		return fmt.Errorf("%w: originalUrl is required", ErrInvalidParams)
	}
	return imageKind(r.Kind)
}

func (r SetSetting) validate() error {
	if r.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidParams)
	}
	return nil
}

func requireID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidParams)
	}
	return nil
}

func imageKind(k store.Kind) error {
	if k != "" && !k.IsImage() {
		return fmt.Errorf("%w: kind must be %q or %q", ErrInvalidParams, store.KindImage, store.KindGIF)
	}
	return nil
}

// envelope is the wire form of a request.
type envelope struct {
	Operation string          `json:"operation"`
	Params    json.RawMessage `json:"params,omitempty"`
}

var constructors = map[string]func() Request{
	OpRecordTextCopy:       func() Request { return &RecordTextCopy{} },
	OpAddText:              func() Request { return &AddText{} },
	OpGetQueue:             func() Request { return &GetQueue{} },
	OpGetCount:             func() Request { return &GetCount{} },
	OpRegisterInternalCopy: func() Request { return &RegisterInternalCopy{} },
	OpPinItem:              func() Request { return &PinItem{} },
	OpUnpinItem:            func() Request { return &UnpinItem{} },
	OpDeleteItem:           func() Request { return &DeleteItem{} },
	OpAddImage:             func() Request { return &AddImage{} },
	OpCaptureImage:         func() Request { return &CaptureImage{} },
	OpClearAll:             func() Request { return &ClearAll{} },
	OpGetSettings:          func() Request { return &GetSettings{} },
	OpSetSetting:           func() Request { return &SetSetting{} },
}

// Decode parses a {"operation", "params"} envelope into a request variant.
// Errors wrap ErrUnknownOperation or ErrInvalidParams.
func Decode(data []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed request: %v", ErrInvalidParams, err)
	}

	newRequest, ok := constructors[env.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, env.Operation)
	}

	req := newRequest()
	params := bytes.TrimSpace(env.Params)
	if len(params) > 0 && !bytes.Equal(params, []byte("null")) {
		if err := json.Unmarshal(params, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	return deref(req), nil
}

// Encode builds the wire envelope for req.
func Encode(req Request) ([]byte, error) {
	params, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s params: %w", req.Operation(), err)
	}
	return json.Marshal(envelope{Operation: req.Operation(), Params: params})
}

// deref turns the pointer used for unmarshalling back into the value variant
// so Dispatch only has to match values.
func deref(req Request) Request {
	switch r := req.(type) {
	case *RecordTextCopy:
		return *r
	case *AddText:
		return *r
	case *GetQueue:
		return *r
	case *GetCount:
		return *r
	case *RegisterInternalCopy:
		return *r
	case *PinItem:
		return *r
	case *UnpinItem:
		return *r
	case *DeleteItem:
		return *r
	case *AddImage:
		return *r
	case *CaptureImage:
		return *r
	case *ClearAll:
		return *r
	case *GetSettings:
		return *r
	case *SetSetting:
		return *r
	}
	return req
}
