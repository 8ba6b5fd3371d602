package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/opencordis/cordis/types"
)

// Caller performs the outbound leg of a FunctionCall instruction. The
// indexer invokes it once per suspended call and reports the outcome back
// on chain in a callback transaction.
type Caller interface {
	Call(ctx context.Context, receiver string, call types.CallAction) ([]byte, error)
}

var _ Caller = &HTTPCaller{}
var _ Caller = &MockCaller{}

// HTTPCaller posts each action to <receiver>/<method> as JSON.
type HTTPCaller struct {
	timeout time.Duration
	logger  cmtlog.Logger
}

func NewHTTPCaller(timeoutSecs uint64, logger cmtlog.Logger) *HTTPCaller {
	return &HTTPCaller{
		timeout: time.Duration(timeoutSecs) * time.Second,
		logger:  logger.With("module", "caller"),
	}
}

type callRequest struct {
	Method  string          `json:"method"`
	Args    json.RawMessage `json:"args,omitempty"`
	Deposit uint64          `json:"deposit"`
}

func (c *HTTPCaller) Call(ctx context.Context, receiver string, call types.CallAction) ([]byte, error) {
	callUrl, err := url.JoinPath(receiver, call.Method)
	if err != nil {
		c.logger.Error("join url fail", "receiver", receiver, "err", err)
		return nil, err
	}
	body, err := json.Marshal(callRequest{
		Method:  call.Method,
		Args:    call.Args,
		Deposit: call.Deposit,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callUrl, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		c.logger.Error("post call fail", "url", callUrl, "err", err)
		return nil, err
	}
	defer res.Body.Close()
	buf, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call %s status %v: %s", call.Method, res.StatusCode, string(buf))
	}
	return buf, nil
}

// MockCaller serves tests and single-node setups without a live receiver.
type MockCaller struct {
	Fail    bool
	Results map[string][]byte
	Calls   []types.CallAction
}

func (c *MockCaller) Call(ctx context.Context, receiver string, call types.CallAction) ([]byte, error) {
	c.Calls = append(c.Calls, call)
	if c.Fail {
		return nil, errors.New("mock call failed")
	}
	if c.Results != nil {
		if res, ok := c.Results[call.Method]; ok {
			return res, nil
		}
	}
	return []byte(`{}`), nil
}
