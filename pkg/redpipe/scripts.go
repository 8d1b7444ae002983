package redpipe

import (
	"context"
)

// SmartScript is a lua script loaded into redis that EvalSmart runs with
// EVALSHA or EVAL.
type SmartScript struct {
	Code string
	SHA  string

	useEvalSHA func() bool
}

// NewSmartScript wraps an already loaded script. A nil useEvalSHA always
// picks EVALSHA.
func NewSmartScript(code, sha string, useEvalSHA func() bool) *SmartScript {
	return &SmartScript{Code: code, SHA: sha, useEvalSHA: useEvalSHA}
}

// UseEvalSHA reports whether the next call should use EVALSHA. It runs before
// every EvalSmart, so the callback must be cheap.
func (s *SmartScript) UseEvalSHA() bool {
	if s.useEvalSHA == nil {
		return true
	}
	return s.useEvalSHA()
}

// RegisterSmartScript loads code on the named connection and returns a
// script that EvalSmart can run. On a cluster client the script is loaded on
// every primary.
//
// useEvalSHA lets callers fall back to EVAL, for example after a SCRIPT FLUSH,
// until the script is loaded again.
func (r *Registry) RegisterSmartScript(ctx context.Context, conn, code string, useEvalSHA func() bool) (*SmartScript, error) {
	client, err := r.Client(conn)
	if err != nil {
		return nil, err
	}
	sha, err := client.ScriptLoad(ctx, code).Result()
	if err != nil {
		return nil, err
	}
	return NewSmartScript(code, sha, useEvalSHA), nil
}

// RegisterSmartScript loads code through the default registry.
func RegisterSmartScript(ctx context.Context, conn, code string, useEvalSHA func() bool) (*SmartScript, error) {
	return defaultRegistry.RegisterSmartScript(ctx, conn, code, useEvalSHA)
}
