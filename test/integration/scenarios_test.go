// Package integration exercises the documented request/failover
// scenarios end to end through the public Transport/Perform API,
// against real httptest servers rather than fakes.
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/estransport"
	"github.com/dreamware/estransport/internal/core"
	"github.com/dreamware/estransport/internal/poolstate"
	"github.com/dreamware/estransport/internal/response"
)

func okServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

// TestSingleNodeHappyPath covers a single-node pool answering
// successfully on the first attempt.
func TestSingleNodeHappyPath(t *testing.T) {
	srv := okServer(t, `{"status":"green"}`, http.StatusOK)
	defer srv.Close()

	transport, err := estransport.New(estransport.Config{
		Seeds:    []string{srv.URL},
		PoolKind: poolstate.SingleNode,
	})
	require.NoError(t, err)

	resp, err := estransport.Perform[string](context.Background(), transport, response.KindString, "GET", "/_cluster/health")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"green"}`, resp.Body)
	assert.True(t, resp.ApiCall.Success)

	var kinds []core.AuditKind
	for _, e := range resp.ApiCall.AuditTrail {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, core.HealthyResponse)
	assert.Contains(t, kinds, core.MarkAlive)
}

// TestFailoverThenSuccess covers the case where node A is
// unreachable, node B answers, the request still succeeds and A is
// marked dead with a ~60s revival window.
func TestFailoverThenSuccess(t *testing.T) {
	deadSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := deadSrv.URL
	deadSrv.Close() // connection refused from here on

	goodSrv := okServer(t, "ok", http.StatusOK)
	defer goodSrv.Close()

	transport, err := estransport.New(estransport.Config{
		Seeds:    []string{deadURL, goodSrv.URL},
		PoolKind: poolstate.Static,
	})
	require.NoError(t, err)

	resp, err := estransport.Perform[string](context.Background(), transport, response.KindString, "GET", "/")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Body)

	var markedDeadA, markedAliveB bool
	for _, e := range resp.ApiCall.AuditTrail {
		if e.Kind == core.MarkDead && e.NodeURI == deadURL {
			markedDeadA = true
		}
		if e.Kind == core.MarkAlive && e.NodeURI == goodSrv.URL {
			markedAliveB = true
		}
	}
	assert.True(t, markedDeadA)
	assert.True(t, markedAliveB)
}

// TestAllNodesDead covers the case where both nodes refuse the
// connection, maxRetries=1 bounds the budget to exactly two attempts,
// and the terminal error is MaxRetriesReached with both failures
// chained onto it.
func TestAllNodesDead(t *testing.T) {
	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	urlA := srvA.URL
	srvA.Close()
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	urlB := srvB.URL
	srvB.Close()

	transport, err := estransport.New(estransport.Config{
		Seeds:      []string{urlA, urlB},
		PoolKind:   poolstate.Static,
		MaxRetries: 1,
	})
	require.NoError(t, err)

	resp, err := estransport.Perform[string](context.Background(), transport, response.KindString, "GET", "/")
	require.Error(t, err)
	assert.Nil(t, resp)

	var perr *core.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.MaxRetriesReachedError, perr.Kind)
	require.NotNil(t, perr.Details)

	deadCount := 0
	for _, e := range perr.Details.AuditTrail {
		if e.Kind == core.MarkDead {
			deadCount++
		}
	}
	assert.Equal(t, 2, deadCount)
}

// TestBadAuthenticationAbortsWithoutFailover covers the case where
// node A answers with 401, which is classified non-recoverable even
// though the pool also has a perfectly healthy node B — every node was
// handed the same (bad) credentials, so trying B would never help.
func TestBadAuthenticationAbortsWithoutFailover(t *testing.T) {
	var bCalls int32

	srvA := okServer(t, "", http.StatusUnauthorized)
	defer srvA.Close()

	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&bCalls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srvB.Close()

	transport, err := estransport.New(estransport.Config{
		Seeds:    []string{srvA.URL, srvB.URL},
		PoolKind: poolstate.Static,
	})
	require.NoError(t, err)

	resp, err := estransport.Perform[string](context.Background(), transport, response.KindString, "GET", "/")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Zero(t, atomic.LoadInt32(&bCalls), "a bad-authentication failure must not fail over to node B")

	var perr *core.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, core.BadAuthentication, perr.Kind)
	assert.False(t, perr.Recoverable)
}

// TestHeadNotFoundIsSuccess covers the HEAD-404-means-success special
// case.
func TestHeadNotFoundIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	transport, err := estransport.New(estransport.Config{
		Seeds:    []string{srv.URL},
		PoolKind: poolstate.SingleNode,
	})
	require.NoError(t, err)

	resp, err := estransport.Perform[struct{}](context.Background(), transport, response.KindVoid, "HEAD", "/my-index")
	require.NoError(t, err)
	assert.True(t, resp.ApiCall.Success)
	require.NotNil(t, resp.ApiCall.HTTPStatusCode)
	assert.Equal(t, http.StatusNotFound, *resp.ApiCall.HTTPStatusCode)
}

// TestCancellationMidFlight covers the context being cancelled while
// node A's ping is in flight; the request never reaches node A's main
// call or node B at all.
func TestCancellationMidFlight(t *testing.T) {
	var mainCalls int32

	ctx, cancel := context.WithCancel(context.Background())

	srvA := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			cancel()
			time.Sleep(10 * time.Millisecond) // give the cancel time to propagate
			w.WriteHeader(http.StatusOK)
			return
		}
		atomic.AddInt32(&mainCalls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srvA.Close()

	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mainCalls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srvB.Close()

	transport, err := estransport.New(estransport.Config{
		Seeds:    []string{srvA.URL, srvB.URL},
		PoolKind: poolstate.Static,
	})
	require.NoError(t, err)

	_, err = estransport.Perform[string](ctx, transport, response.KindString, "GET", "/")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&mainCalls))
}

// TestStringResponseRoundTrip exercises the round-trip property for
// arbitrary UTF-8 response bodies.
func TestStringResponseRoundTrip(t *testing.T) {
	const body = `{"hits":{"total":{"value":42}}}`
	srv := okServer(t, body, http.StatusOK)
	defer srv.Close()

	transport, err := estransport.New(estransport.Config{
		Seeds:    []string{srv.URL},
		PoolKind: poolstate.SingleNode,
	})
	require.NoError(t, err)

	resp, err := estransport.Perform[string](context.Background(), transport, response.KindString, "GET", "/_search")
	require.NoError(t, err)
	assert.Equal(t, body, resp.Body)
}
