package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc2db/internal/document"
	"doc2db/internal/errs"
	"doc2db/internal/model"
)

type fakeAPI struct {
	calls   atomic.Int32
	status  []int // per call; last entry repeats
	content string
	lastReq atomic.Value
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(f.calls.Add(1)) - 1
	body, _ := io.ReadAll(r.Body)
	f.lastReq.Store(string(body))

	status := http.StatusOK
	if len(f.status) > 0 {
		status = f.status[min(n, len(f.status)-1)]
	}
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"test_error"}}`)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": f.content},
		}},
	})
}

func newTestOracle(t *testing.T, api *fakeAPI, retries int) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewOpenAI(Config{
		APIKey:         "sk-test",
		BaseURL:        srv.URL + "/v1",
		MaxRetries:     retries,
		Timeout:        5 * time.Second,
		InitialBackoff: time.Millisecond,
	}, nil)
}

func TestExtract_DecodesFencedAnswer(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{content: "```json\n{\"entities\":[{\"name\":\"Book\",\"attributes\":[{\"name\":\"title\",\"type\":\"TEXT\"}]}]}\n```"}
	o := newTestOracle(t, api, 0)

	x, raw, err := o.Extract(context.Background(), document.Document{Kind: document.KindText, Text: "Dune, 1965"})
	require.NoError(t, err)
	assert.Contains(t, raw, "Book")
	require.Len(t, x.Entities, 1)
	assert.Equal(t, "Book", x.Entities[0].Name)

	req := api.lastReq.Load().(string)
	assert.Contains(t, req, `Document content:\nDune, 1965`)
	assert.Contains(t, req, `"max_tokens":4000`)
}

func TestExtract_ImageIsSentAsDataURL(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{content: `{"entities":[]}`}
	o := newTestOracle(t, api, 0)

	_, _, err := o.Extract(context.Background(), document.Document{Kind: document.KindImage, MIME: "image/png", Image: []byte("png")})
	require.NoError(t, err)
	assert.Contains(t, api.lastReq.Load().(string), "data:image/png;base64,cG5n")
}

func TestExtract_EmptyAnswerIsUpstream(t *testing.T) {
	t.Parallel()

	o := newTestOracle(t, &fakeAPI{content: ""}, 0)
	_, _, err := o.Extract(context.Background(), document.Document{Kind: document.KindText})
	assert.Equal(t, errs.ErrKindUpstream, errs.KindOf(err))
}

func TestExtract_GarbageIsEmptyNotError(t *testing.T) {
	t.Parallel()

	o := newTestOracle(t, &fakeAPI{content: "I cannot help with that."}, 0)
	x, raw, err := o.Extract(context.Background(), document.Document{Kind: document.KindText})
	require.NoError(t, err)
	assert.Equal(t, model.Extraction{}, x)
	assert.Equal(t, "I cannot help with that.", raw)
}

func TestExtract_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		kind   errs.ErrKind
		calls  int32
	}{
		{"unauthorized is permanent", http.StatusUnauthorized, errs.ErrKindPermissionDenied, 1},
		{"bad request is permanent", http.StatusBadRequest, errs.ErrKindUpstream, 1},
		{"rate limit retried", http.StatusTooManyRequests, errs.ErrKindRateLimited, 3},
		{"server error retried", http.StatusBadGateway, errs.ErrKindUpstream, 3},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			api := &fakeAPI{status: []int{tc.status}}
			o := newTestOracle(t, api, 2)

			_, _, err := o.Extract(context.Background(), document.Document{Kind: document.KindText})
			require.Error(t, err)
			assert.Equal(t, tc.kind, errs.KindOf(err))
			assert.Equal(t, tc.calls, api.calls.Load())
		})
	}
}

func TestExtract_RecoversAfterRetry(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{status: []int{http.StatusServiceUnavailable, http.StatusOK}, content: `{"entities":[{"name":"T"}]}`}
	o := newTestOracle(t, api, 3)

	x, _, err := o.Extract(context.Background(), document.Document{Kind: document.KindText})
	require.NoError(t, err)
	assert.Len(t, x.Entities, 1)
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestMissingKeyFailsBeforeCall(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "  ", "sk-placeholder-123"} {
		api := &fakeAPI{}
		o := newTestOracle(t, api, 0)
		o.cfg.APIKey = key

		_, _, err := o.Extract(context.Background(), document.Document{})
		assert.True(t, errs.IsInvalidInput(err), "key %q", key)
		assert.Zero(t, api.calls.Load())
	}
}

func TestExtractRows(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{content: `{"table_data":[{"table":"Book","rows":[{"Title":"Dune"}]}]}`}
	o := newTestOracle(t, api, 0)

	got, err := o.ExtractRows(context.Background(), document.Document{Kind: document.KindText, Text: "x"}, "Book", []string{"Title", "Year"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dune", got[0].Rows[0]["Title"])
	assert.Contains(t, api.lastReq.Load().(string), `[\"Title\",\"Year\"]`)

	none, err := o.ExtractRows(context.Background(), document.Document{}, "Book", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestStatic(t *testing.T) {
	t.Parallel()

	s := Static{Raw: `{"entities":[{"name":"A"}]}`, Rows: `[{"table":"A","rows":[{"x":1}]}]`}
	x, raw, err := s.Extract(context.Background(), document.Document{})
	require.NoError(t, err)
	assert.Equal(t, s.Raw, raw)
	assert.Equal(t, "A", x.Entities[0].Name)

	rows, _ := s.ExtractRows(context.Background(), document.Document{}, "A", []string{"x"})
	assert.Equal(t, int64(1), rows[0].Rows[0]["x"])

	empty, _ := Static{}.ExtractRows(context.Background(), document.Document{}, "A", []string{"x"})
	assert.Nil(t, empty)
}

func TestRowsPrompt(t *testing.T) {
	t.Parallel()

	p := rowsPromptFor("Order_Item", []string{"qty"})
	assert.True(t, strings.Contains(p, `Use the exact column names: ["qty"]. Table name: Order_Item.`))
}
