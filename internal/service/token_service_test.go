package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-gateway-api/internal/constant"
)

func TestConvertDurationToSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"90s", 90},
		{"5m", 300},
		{"2h", 7200},
		{"3600s", 3600},
		{"0s", 0},
	}
	for _, tc := range cases {
		got, err := ConvertDurationToSeconds(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"10x", "", "s", "5", "abcs", "-5m", "1.5h", "5M"} {
		_, err := ConvertDurationToSeconds(bad)
		var de *constant.UnsupportedDurationFormatError
		assert.True(t, errors.As(err, &de), "expected UnsupportedDurationFormatError for %q", bad)
	}
}

func TestTokenService_CachesUntilExpiry(t *testing.T) {
	h := newHarness(t)
	h.gw.tokenExp = "60s"
	ctx := context.Background()

	tok, err := h.tokens.GetOrRefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, h.gw.hitCount("/token"))
	assert.Equal(t, "application/json", h.gw.header("/token").Get("Content-Type"))

	h.now = h.now.Add(59 * time.Second)
	tok, err = h.tokens.GetOrRefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, h.gw.hitCount("/token"))

	h.gw.mu.Lock()
	h.gw.tokenValue = "tok-2"
	h.gw.mu.Unlock()
	h.now = h.now.Add(time.Second)
	tok, err = h.tokens.GetOrRefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, 2, h.gw.hitCount("/token"))
}

func TestTokenService_UnsupportedDuration(t *testing.T) {
	h := newHarness(t)
	h.gw.tokenExp = "10x"

	_, err := h.tokens.GetOrRefreshToken(context.Background())
	var de *constant.UnsupportedDurationFormatError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "10x", de.Value)

	_, ok, _ := h.store.Get(context.Background(), "test:gateway:token")
	assert.False(t, ok)
}

func TestTokenService_BadCredentials(t *testing.T) {
	h := newHarness(t)
	h.tokens.cfg.PassKey = "wrong"

	_, err := h.tokens.GetOrRefreshToken(context.Background())
	var be *constant.GatewayBusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 401, be.StatusCode)
}

func TestTokenService_InvalidateForcesRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.tokens.GetOrRefreshToken(ctx)
	require.NoError(t, err)
	require.NoError(t, h.tokens.InvalidateToken(ctx))
	_, err = h.tokens.GetOrRefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.gw.hitCount("/token"))
}

func TestTokenService_ConcurrentRefreshIsCollapsed(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.gw.mu.Lock()
	h.gw.tokenBlock = release
	h.gw.mu.Unlock()

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = h.tokens.GetOrRefreshToken(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return h.gw.hitCount("/token") == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
	assert.Equal(t, 1, h.gw.hitCount("/token"))
}

func TestTokenService_CancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.gw.mu.Lock()
	h.gw.tokenBlock = release
	h.gw.mu.Unlock()

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := h.tokens.GetOrRefreshToken(firstCtx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return h.gw.hitCount("/token") == 1 }, 2*time.Second, 5*time.Millisecond)

	type result struct {
		tok string
		err error
	}
	second := make(chan result, 1)
	go func() {
		tok, err := h.tokens.GetOrRefreshToken(context.Background())
		second <- result{tok, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller still waiting")
	}

	close(release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, "tok-1", r.tok)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got a token")
	}
	assert.Equal(t, 1, h.gw.hitCount("/token"))

	tok, ok, err := h.store.Get(context.Background(), "test:gateway:token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", tok)
}
