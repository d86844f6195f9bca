package address

import (
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/leapstack-labs/leapforge/internal/testutil"
	"github.com/leapstack-labs/leapforge/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeListener satisfies net.Listener without binding anything.
type fakeListener struct{}

func (fakeListener) Accept() (net.Conn, error) { return nil, errors.New("not implemented") }
func (fakeListener) Close() error              { return nil }
func (fakeListener) Addr() net.Addr            { return &net.TCPAddr{} }

// fakeNet simulates bind outcomes per address and records probe order.
type fakeNet struct {
	taken    map[string]bool
	hostDown bool
	probes   []string
}

func (f *fakeNet) listen(_, addr string) (net.Listener, error) {
	f.probes = append(f.probes, addr)
	if f.hostDown {
		return nil, errors.New("cannot assign requested address")
	}
	if f.taken[addr] {
		return nil, errors.New("address already in use")
	}
	return fakeListener{}, nil
}

func newTestResolver(t *testing.T, fn *fakeNet) *Resolver {
	t.Helper()
	r := NewResolver(testutil.NewTestLogger(t))
	r.listen = fn.listen
	r.externalIP = func() (string, error) { return "192.168.1.20", nil }
	return r
}

func webContext() *core.Context {
	return &core.Context{Platform: core.PlatformWeb}
}

func TestNegotiateRequestedPortOpen(t *testing.T) {
	fn := &fakeNet{}
	r := newTestResolver(t, fn)

	b, err := r.Negotiate(webContext(), Request{Host: "localhost", Port: 3000})
	require.NoError(t, err)
	assert.Equal(t, "localhost", b.Host)
	assert.Equal(t, 3000, b.Port)
	assert.Equal(t, Request{Host: "localhost", Port: 3000}, b.Requested)
}

func TestNegotiateUpwardSearch(t *testing.T) {
	fn := &fakeNet{taken: map[string]bool{
		"localhost:3000": true,
		"localhost:3001": true,
	}}
	r := newTestResolver(t, fn)

	b, err := r.Negotiate(webContext(), Request{Host: "localhost", Port: 3000})
	require.NoError(t, err)
	assert.Equal(t, 3002, b.Port)
}

func TestNegotiateCacheStability(t *testing.T) {
	fn := &fakeNet{taken: map[string]bool{"localhost:3000": true}}
	r := newTestResolver(t, fn)

	first, err := r.Negotiate(webContext(), Request{Host: "localhost", Port: 3000})
	require.NoError(t, err)
	require.Equal(t, 3001, first.Port)

	probed := len(fn.probes)
	second, err := r.Negotiate(webContext(), Request{Host: "localhost", Port: 3000})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, probed, len(fn.probes), "cached request must not re-probe")
}

func TestNegotiatePortExhausted(t *testing.T) {
	taken := make(map[string]bool)
	for port := 3000; port < 3000+maxProbes; port++ {
		taken[net.JoinHostPort("localhost", strconv.Itoa(port))] = true
	}
	fn := &fakeNet{taken: taken}
	r := newTestResolver(t, fn)

	_, err := r.Negotiate(webContext(), Request{Host: "localhost", Port: 3000})
	var nerr *core.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, core.NetworkPortExhausted, nerr.Reason)
	assert.Equal(t, 3000, nerr.Port)
}

func TestNegotiateHostUnbindable(t *testing.T) {
	t.Run("fatal without a previous binding", func(t *testing.T) {
		fn := &fakeNet{hostDown: true}
		r := newTestResolver(t, fn)

		_, err := r.Negotiate(webContext(), Request{Host: "10.9.8.7", Port: 3000})
		var nerr *core.NetworkError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, core.NetworkHostUnbindable, nerr.Reason)
		assert.Equal(t, "10.9.8.7", nerr.Host)
	})

	t.Run("previous binding retained after a success", func(t *testing.T) {
		fn := &fakeNet{}
		r := newTestResolver(t, fn)

		first, err := r.Negotiate(webContext(), Request{Host: "localhost", Port: 3000})
		require.NoError(t, err)

		// Even a different requested pair falls back to the stale binding.
		fn.hostDown = true
		b, err := r.Negotiate(webContext(), Request{Host: "10.9.8.7", Port: 4000})
		require.NoError(t, err)
		assert.Equal(t, first, b)
	})
}

func TestNegotiateDeviceHostRewrite(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		host     string
		want     string
	}{
		{name: "ios loopback rewritten", platform: core.PlatformIOS, host: "localhost", want: "192.168.1.20"},
		{name: "android any-interface rewritten", platform: core.PlatformAndroid, host: "0.0.0.0", want: "192.168.1.20"},
		{name: "device explicit host kept", platform: core.PlatformIOS, host: "10.0.0.5", want: "10.0.0.5"},
		{name: "web loopback kept", platform: core.PlatformWeb, host: "localhost", want: "localhost"},
		{name: "desktop loopback kept", platform: core.PlatformDesktop, host: "127.0.0.1", want: "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := &fakeNet{}
			r := newTestResolver(t, fn)

			b, err := r.Negotiate(&core.Context{Platform: tt.platform}, Request{Host: tt.host, Port: 3000})
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Host)
		})
	}
}

func TestNegotiateExternalLookupFailureKeepsHost(t *testing.T) {
	fn := &fakeNet{}
	r := newTestResolver(t, fn)
	r.externalIP = func() (string, error) { return "", errors.New("no interface") }

	b, err := r.Negotiate(&core.Context{Platform: core.PlatformIOS}, Request{Host: "localhost", Port: 3000})
	require.NoError(t, err)
	assert.Equal(t, "localhost", b.Host)
}

func TestNegotiateConcurrent(t *testing.T) {
	fn := &fakeNet{}
	r := newTestResolver(t, fn)

	done := make(chan Binding, 8)
	for i := 0; i < 8; i++ {
		go func() {
			b, err := r.Negotiate(webContext(), Request{Host: "localhost", Port: 3000})
			assert.NoError(t, err)
			done <- b
		}()
	}

	var first Binding
	for i := 0; i < 8; i++ {
		select {
		case b := <-done:
			if i == 0 {
				first = b
			} else {
				assert.Equal(t, first, b)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for concurrent negotiations")
		}
	}
}

func TestIsLoopbackOrAny(t *testing.T) {
	assert.True(t, isLoopbackOrAny(""))
	assert.True(t, isLoopbackOrAny("localhost"))
	assert.True(t, isLoopbackOrAny("0.0.0.0"))
	assert.True(t, isLoopbackOrAny("127.0.0.1"))
	assert.True(t, isLoopbackOrAny("::1"))
	assert.False(t, isLoopbackOrAny("192.168.1.20"))
	assert.False(t, isLoopbackOrAny("example.com"))
}
