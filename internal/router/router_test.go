package router

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yiblet/clipq/internal/config"
	"github.com/yiblet/clipq/internal/digest"
	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/store"
	"github.com/yiblet/clipq/internal/store/memstore"
)

type fixture struct {
	router   *Router
	engine   *queue.Engine
	settings *config.Settings
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	ms := memstore.NewMemoryStore()
	settings := config.NewSettings(ms.Settings(), nil)

	next := 0
	engine := queue.New(ms.History(), queue.Options{
		Capacity: capacity,
		Policy:   settings,
		Now:      func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		NewID: func() string {
			next++
			return fmt.Sprintf("id-%d", next)
		},
	})
	return &fixture{router: New(engine, settings, nil), engine: engine, settings: settings}
}

func (f *fixture) call(t *testing.T, body string) []byte {
	t.Helper()
	return f.router.HandleJSON(context.Background(), []byte(body))
}

func assertGolden(t *testing.T, name string, actual []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, actual)
}

func TestGolden_GetQueue(t *testing.T) {
	f := newFixture(t, 0)
	f.call(t, `{"operation":"recordTextCopy","params":{"content":"hello"}}`)

	assertGolden(t, "get_queue", f.call(t, `{"operation":"getQueue"}`))
}

func TestGolden_EmptyQueue(t *testing.T) {
	f := newFixture(t, 0)
	assertGolden(t, "get_queue_empty", f.call(t, `{"operation":"getQueue","params":{}}`))
}

func TestGolden_Ack(t *testing.T) {
	f := newFixture(t, 0)
	assertGolden(t, "ack", f.call(t, `{"operation":"clearAll"}`))
}

func TestGolden_UnknownOperation(t *testing.T) {
	f := newFixture(t, 0)
	assertGolden(t, "unknown_operation", f.call(t, `{"operation":"frobnicate","params":{}}`))
}

func TestGolden_InvalidParams(t *testing.T) {
	f := newFixture(t, 0)
	assertGolden(t, "invalid_params", f.call(t, `{"operation":"pinItem","params":{}}`))
}

func TestGolden_QueueFull(t *testing.T) {
	f := newFixture(t, 1)
	f.call(t, `{"operation":"recordTextCopy","params":{"content":"A"}}`)
	f.call(t, `{"operation":"pinItem","params":{"id":"id-1"}}`)

	assertGolden(t, "queue_full", f.call(t, `{"operation":"recordTextCopy","params":{"content":"B"}}`))
}

func TestGolden_GetCount(t *testing.T) {
	f := newFixture(t, 0)
	f.call(t, `{"operation":"addText","params":{"content":"note"}}`)

	assertGolden(t, "get_count", f.call(t, `{"operation":"getCount"}`))
}

func TestGolden_GetSettings(t *testing.T) {
	f := newFixture(t, 0)
	assertGolden(t, "get_settings", f.call(t, `{"operation":"getSettings"}`))
}

func TestDispatch_EveryOperationResponds(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	requests := []Request{
		RecordTextCopy{Content: "hello"},
		AddText{Content: "manual"},
		GetQueue{},
		GetCount{},
		RegisterInternalCopy{Hash: digest.String("x")},
		PinItem{ID: "id-1"},
		UnpinItem{ID: "id-1"},
		DeleteItem{ID: "id-2"},
		AddImage{Thumbnail: "data:image/jpeg;base64,AA"},
		CaptureImage{Thumbnail: "data:image/jpeg;base64,BB", OriginalURL: "https://example.com/a.png"},
		GetSettings{},
		SetSetting{Key: store.SettingTheme, Value: config.ThemeDark},
		ClearAll{},
	}
	for _, req := range requests {
		t.Run(req.Operation(), func(t *testing.T) {
			resp := f.router.Dispatch(ctx, req)
			assert.True(t, resp.Success, "%s: %+v", req.Operation(), resp.Error)
			assert.Nil(t, resp.Error)
		})
	}
	assert.Equal(t, 0, f.engine.Len())
}

func TestDispatch_SilentRejectionsSucceed(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	for _, req := range []Request{
		RecordTextCopy{Content: "   "},
		AddImage{},
		RecordTextCopy{Content: "dup"},
		RecordTextCopy{Content: "dup"},
	} {
		resp := f.router.Dispatch(ctx, req)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Data)
	}
	assert.Equal(t, 1, f.engine.Len())
}

func TestDispatch_SelfCopyRoundTrip(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	resp := f.router.Dispatch(ctx, RegisterInternalCopy{Hash: digest.String("secret")})
	require.True(t, resp.Success)

	resp = f.router.Dispatch(ctx, RecordTextCopy{Content: "secret"})
	require.True(t, resp.Success)
	assert.Equal(t, 0, f.engine.Len())
}

func TestDispatch_InvalidParams(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	for _, req := range []Request{
		RegisterInternalCopy{Hash: "abc"},
		PinItem{},
		UnpinItem{},
		DeleteItem{},
		AddImage{Thumbnail: "data:,x", Kind: store.KindText},
		AddImage{Thumbnail: "data:,x", Source: "robot"},
		CaptureImage{Thumbnail: "data:,x"},
		SetSetting{},
		SetSetting{Key: store.SettingTheme, Value: "neon"},
		SetSetting{Key: "font", Value: "mono"},
	} {
		resp := f.router.Dispatch(ctx, req)
		assert.False(t, resp.Success, "%#v", req)
		require.NotNil(t, resp.Error)
		assert.Equal(t, CodeInvalidParams, resp.Error.Code, "%#v", req)
	}
}

func TestDispatch_SetSettingAffectsPolicy(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	resp := f.router.Dispatch(ctx, SetSetting{Key: store.SettingAllowDuplicates, Value: "true"})
	require.True(t, resp.Success)

	f.router.Dispatch(ctx, RecordTextCopy{Content: "again"})
	f.router.Dispatch(ctx, RecordTextCopy{Content: "again"})
	assert.Equal(t, 2, f.engine.Len())

	resp = f.router.Dispatch(ctx, GetSettings{})
	require.True(t, resp.Success)
	assert.Equal(t, config.UserSettings{AllowDuplicates: true, Theme: config.ThemeLight}, resp.Data)
}

func TestDispatch_AddImageSource(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	resp := f.router.Dispatch(ctx, AddImage{Thumbnail: "data:image/jpeg;base64,AA", Source: store.OriginAuto})
	require.True(t, resp.Success)
	resp = f.router.Dispatch(ctx, CaptureImage{
		Thumbnail:   "data:image/gif;base64,R0",
		OriginalURL: "https://example.com/a.gif",
		Kind:        store.KindGIF,
	})
	require.True(t, resp.Success)

	q := f.engine.Queue()
	require.Len(t, q, 2)
	assert.Equal(t, store.KindGIF, q[0].Kind)
	assert.Equal(t, store.OriginManual, q[0].Origin)
	assert.Equal(t, store.OriginAuto, q[1].Origin)
}

func TestDispatch_NoSettings(t *testing.T) {
	engine := queue.New(memstore.NewMemoryHistoryStore(), queue.Options{})
	r := New(engine, nil, nil)

	resp := r.Dispatch(context.Background(), GetSettings{})
	assert.False(t, resp.Success)
	assert.Equal(t, CodeInternal, resp.Error.Code)
}

func TestDispatch_NilRequest(t *testing.T) {
	f := newFixture(t, 0)
	resp := f.router.Dispatch(context.Background(), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestDecode(t *testing.T) {
	req, err := Decode([]byte(`{"operation":"pinItem","params":{"id":"abc"}}`))
	require.NoError(t, err)
	assert.Equal(t, PinItem{ID: "abc"}, req)

	req, err = Decode([]byte(`{"operation":"getQueue","params":null}`))
	require.NoError(t, err)
	assert.Equal(t, GetQueue{}, req)

	_, err = Decode([]byte(`{"operation":"nope"}`))
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Decode([]byte(`{"operation":"pinItem","params":{"id":7}}`))
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestEncodeDecodeEveryOperation(t *testing.T) {
	for name := range constructors {
		t.Run(name, func(t *testing.T) {
			req := deref(constructors[name]())
			data, err := Encode(req)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, name, decoded.Operation())
		})
	}
}

func TestHandleJSON_MalformedEnvelope(t *testing.T) {
	f := newFixture(t, 0)

	var resp Response
	require.NoError(t, json.Unmarshal(f.call(t, `{"operation":`), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}
