package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"

	"github.com/opencordis/cordis/types"
)

func TestHTTPCallerPostsAction(t *testing.T) {
	var gotPath string
	var gotBody callRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		dat, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(dat, &gotBody))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewHTTPCaller(5, cmtlog.NewNopLogger())
	res, err := c.Call(context.Background(), srv.URL, types.CallAction{
		Method:  "transfer",
		Args:    []byte(`{"to":"AA"}`),
		Deposit: 7,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(res))
	require.Equal(t, "/transfer", gotPath)
	require.Equal(t, "transfer", gotBody.Method)
	require.Equal(t, uint64(7), gotBody.Deposit)
	require.JSONEq(t, `{"to":"AA"}`, string(gotBody.Args))
}

func TestHTTPCallerNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such method", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPCaller(5, cmtlog.NewNopLogger())
	_, err := c.Call(context.Background(), srv.URL, types.CallAction{Method: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestMockCallerRecordsCalls(t *testing.T) {
	c := &MockCaller{Results: map[string][]byte{"ping": []byte(`"pong"`)}}

	res, err := c.Call(context.Background(), "anywhere", types.CallAction{Method: "ping"})
	require.NoError(t, err)
	require.Equal(t, `"pong"`, string(res))

	res, err = c.Call(context.Background(), "anywhere", types.CallAction{Method: "other"})
	require.NoError(t, err)
	require.Equal(t, `{}`, string(res))
	require.Len(t, c.Calls, 2)

	c.Fail = true
	_, err = c.Call(context.Background(), "anywhere", types.CallAction{Method: "ping"})
	require.Error(t, err)
}
