package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		statusCode int
		allowed    map[int]bool
		want       bool
	}{
		{name: "200 is success", method: "GET", statusCode: 200, want: true},
		{name: "299 is success", method: "GET", statusCode: 299, want: true},
		{name: "404 GET is not success", method: "GET", statusCode: 404, want: false},
		{name: "404 HEAD is success", method: "HEAD", statusCode: 404, want: true},
		{name: "explicit allow-list", method: "GET", statusCode: 409, allowed: map[int]bool{409: true}, want: true},
		{name: "allow-list -1 means any", method: "GET", statusCode: 500, allowed: map[int]bool{-1: true}, want: true},
		{name: "500 without allow-list is not success", method: "GET", statusCode: 500, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccess(tt.method, tt.statusCode, tt.allowed))
		})
	}
}

func TestSuccessOrKnownError(t *testing.T) {
	assert.True(t, SuccessOrKnownError(true, 200))
	assert.True(t, SuccessOrKnownError(false, 404))
	assert.True(t, SuccessOrKnownError(false, 599))
	assert.False(t, SuccessOrKnownError(false, 399))
	assert.False(t, SuccessOrKnownError(false, 600))
}

func TestSuccessOrKnownErrorTreatsGatewayStatusesAsConnectionLevel(t *testing.T) {
	assert.False(t, SuccessOrKnownError(false, 502))
	assert.False(t, SuccessOrKnownError(false, 503))
	assert.False(t, SuccessOrKnownError(false, 504))
	assert.True(t, SuccessOrKnownError(false, 500))
	assert.True(t, SuccessOrKnownError(false, 501))
}

func TestHttpDetailsAppendKeepsNonNilTrail(t *testing.T) {
	h := NewHttpDetails("GET", "http://a/_cluster/health")
	assert.NotNil(t, h.AuditTrail)
	assert.Empty(t, h.AuditTrail)

	h.Append(HealthyResponse, "http://a", nil)
	assert.Len(t, h.AuditTrail, 1)
	assert.Equal(t, HealthyResponse, h.AuditTrail[0].Kind)
}

func TestPipelineErrorRecoverability(t *testing.T) {
	err := NewPipelineError(BadResponse, errors.New("boom"))
	assert.True(t, err.Recoverable)

	nonRecoverable := NewNonRecoverablePipelineError(BadAuthentication, errors.New("401"))
	assert.False(t, nonRecoverable.Recoverable)
	assert.ErrorIs(t, nonRecoverable, nonRecoverable.Cause)
}

func TestPipelineErrorWithPriorAccumulates(t *testing.T) {
	first := NewPipelineError(BadResponse, errors.New("first"))
	second := NewPipelineError(MaxRetriesReachedError, errors.New("second")).WithPrior(first)

	assert.Len(t, second.Prior, 1)
	assert.Same(t, first, second.Prior[0])
}
