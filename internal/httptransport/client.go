package httptransport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net/http"
	"time"

	"github.com/dreamware/estransport/internal/core"
)

// DefaultTimeout bounds a call whose RequestData.RequestTimeout is
// unset.
const DefaultTimeout = 5 * time.Second

// Client is the default core.HTTPTransport, wrapping a plain
// *http.Client with one method-agnostic Call for any method/path/body.
type Client struct {
	httpClient *http.Client
}

// New builds a Client. A nil http.Client falls back to a plain one with
// no client-wide timeout; each call is bounded by its own
// RequestTimeout, or DefaultTimeout when that is unset.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient}
}

// Call implements core.HTTPTransport.
func (c *Client) Call(ctx context.Context, req *core.RequestData) (*core.CallResult, error) {
	callerCtx := ctx
	timeout := req.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body *bytes.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	var httpReq *http.Request
	var err error
	if body != nil {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method, req.Node+req.Path, body)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method, req.Node+req.Path, nil)
	}
	if err != nil {
		return nil, core.NewNonRecoverablePipelineError(core.Unexpected, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if callerCtx.Err() != nil {
			return nil, callerCtx.Err()
		}
		if ctx.Err() != nil {
			// Our own RequestTimeout deadline expired, not the caller's
			// ctx — a slow node, not a caller cancellation. Classify it
			// like any other recoverable transport failure (connect
			// refused, socket reset) so the pipeline marks this node
			// dead and fails over instead of aborting the request. The
			// cause is not ctx.Err(), so errors.Is(err,
			// context.DeadlineExceeded) stays reserved for the caller's
			// own deadline.
			return nil, core.NewPipelineError(core.BadResponse, errors.New("httptransport: request timeout exceeded"))
		}
		if isNonRecoverable(err) {
			return nil, core.NewNonRecoverablePipelineError(core.BadAuthentication, err)
		}
		return nil, core.NewPipelineError(core.BadResponse, err)
	}

	status := resp.StatusCode
	return &core.CallResult{
		StatusCode: &status,
		Headers:    resp.Header,
		Body:       resp.Body,
	}, nil
}

// isNonRecoverable classifies transport failures that no amount of
// failover will fix — certificate verification, unknown authority,
// hostname mismatch, or an invalid certificate — versus ordinary connect/reset/timeout failures that another node
// might not share.
func isNonRecoverable(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		return true
	}
	return false
}
