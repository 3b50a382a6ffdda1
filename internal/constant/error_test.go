package constant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, CodeSuccess},
		{"plain", errors.New("boom"), CodeSystemError},
		{"network", &NetworkError{URL: "u", Attempts: 5, StatusCode: 503}, CodeUpstreamNetworkError},
		{"network timeout", &NetworkError{URL: "u", Attempts: 1, Err: context.DeadlineExceeded}, CodeUpstreamTimeout},
		{"codec wrapped", fmt.Errorf("fetch bill: %w", &CodecError{Op: "decrypt", Err: errors.New("bad pad")}), CodeUpstreamDataFormatError},
		{"duration", &UnsupportedDurationFormatError{Value: "10x"}, CodeUpstreamTokenFormat},
		{"business", &GatewayBusinessError{Op: "pay", StatusCode: 200, Status: "FAILED"}, CodeUpstreamError},
		{"unauthorized", &GatewayBusinessError{Op: "pay", StatusCode: 401}, CodeUpstreamRejected},
		{"custom", NewError(CodeInvalidParams), CodeInvalidParams},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CodeOf(tc.err))
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("send: %w", &NetworkError{URL: "http://gw", Attempts: 5, Err: cause})
	assert.ErrorIs(t, err, cause)

	var ne *NetworkError
	assert.True(t, errors.As(err, &ne))
	assert.Equal(t, 5, ne.Attempts)
}
