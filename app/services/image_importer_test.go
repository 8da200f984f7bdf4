package services

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/storage"
)

func countingServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// loopbackImporter lets the importer reach httptest servers.
func loopbackImporter(t *testing.T, maxBytes int64) (*ImageImporter, *storage.LocalDisk) {
	t.Helper()
	disk := storage.NewLocal(t.TempDir(), "http://cdn.test")
	im := NewImageImporter(disk, maxBytes)
	im.allowIP = func(net.IP) bool { return true }
	return im, disk
}

func TestIsPublicIP(t *testing.T) {
	blocked := []string{
		"127.0.0.1", "10.1.2.3", "172.16.0.1", "192.168.1.1", "169.254.169.254",
		"100.64.0.1", "0.0.0.0", "224.0.0.1", "255.255.255.255", "::1", "fc00::1", "fe80::1",
	}
	for _, s := range blocked {
		assert.False(t, IsPublicIP(net.ParseIP(s)), s)
	}
	for _, s := range []string{"93.184.216.34", "2606:4700::1111"} {
		assert.True(t, IsPublicIP(net.ParseIP(s)), s)
	}
}

func TestValidateImageURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com/a.png", "file:///etc/passwd", "https://user:pw@example.com/a.png", "http:///a.png"} {
		_, err := ValidateImageURL(raw)
		assert.ErrorIs(t, err, ErrImageURLRejected, raw)
	}
	_, err := ValidateImageURL("https://example.com/a.png")
	assert.NoError(t, err)
}

func TestImageImporter_PrivateHostRejectedBeforeRequest(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("never"))
	})
	im := NewImageImporter(storage.NewLocal(t.TempDir(), ""), 0)

	_, err := im.Fetch(context.Background(), srv.URL+"/a.png")
	assert.ErrorIs(t, err, ErrImageHostBlocked)
	assert.Zero(t, atomic.LoadInt32(hits))
}

type fixedResolver []string

func (f fixedResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	var out []net.IPAddr
	for _, s := range f {
		out = append(out, net.IPAddr{IP: net.ParseIP(s)})
	}
	return out, nil
}

func TestImageImporter_AnyPrivateAddressBlocksHost(t *testing.T) {
	im := NewImageImporter(storage.NewLocal(t.TempDir(), ""), 0)
	im.resolver = fixedResolver{"93.184.216.34", "10.0.0.5"}

	_, err := im.Fetch(context.Background(), "https://images.example.com/a.png")
	assert.ErrorIs(t, err, ErrImageHostBlocked)
}

func TestImageImporter_StoresImage(t *testing.T) {
	body := pngBytes(t)
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	})
	im, disk := loopbackImporter(t, 0)

	p, err := im.Fetch(context.Background(), srv.URL+"/photo")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^products/[0-9a-f]{24}\.png$`), p)

	stored, err := storage.Get(context.Background(), disk, p)
	require.NoError(t, err)
	assert.Equal(t, body, stored)
}

func TestImageImporter_FollowsRedirect(t *testing.T) {
	body := pngBytes(t)
	var srv *httptest.Server
	srv, _ = countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, srv.URL+"/new.png", http.StatusFound)
			return
		}
		_, _ = w.Write(body)
	})
	im, _ := loopbackImporter(t, 0)

	_, err := im.Fetch(context.Background(), srv.URL+"/old")
	assert.NoError(t, err)
}

// hostResolver answers per host name.
type hostResolver map[string][]string

func (h hostResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return fixedResolver(h[host]).LookupIPAddr(ctx, host)
}

func TestImageImporter_RedirectToPrivateHostRejected(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://internal.test/secret.png", http.StatusFound)
	})
	im := NewImageImporter(storage.NewLocal(t.TempDir(), ""), 0)
	// The test server itself listens on loopback; everything else keeps the
	// public-address rule.
	im.allowIP = func(ip net.IP) bool { return ip.IsLoopback() || IsPublicIP(ip) }
	im.resolver = hostResolver{"internal.test": {"10.0.0.5"}}

	_, err := im.Fetch(context.Background(), srv.URL+"/a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageHostBlocked)
	assert.Contains(t, err.Error(), "10.0.0.5")
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

// rebindingResolver returns a public address on the first query and a
// private one afterwards.
type rebindingResolver struct {
	calls int32
}

func (r *rebindingResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	if atomic.AddInt32(&r.calls, 1) == 1 {
		return fixedResolver{"93.184.216.34"}.LookupIPAddr(ctx, host)
	}
	return fixedResolver{"10.0.0.5"}.LookupIPAddr(ctx, host)
}

func TestImageImporter_DialRecheckBlocksRebinding(t *testing.T) {
	im := NewImageImporter(storage.NewLocal(t.TempDir(), ""), 0)
	res := &rebindingResolver{}
	im.resolver = res

	_, err := im.Fetch(context.Background(), "http://rebind.test/a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageHostBlocked)
	assert.Contains(t, err.Error(), "10.0.0.5")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&res.calls), int32(2), "the dial resolves the host again")
}

func TestImageImporter_SizeCap(t *testing.T) {
	big := strings.Repeat("x", 4096)
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chunked" {
			// No Content-Length: the streamed counter has to stop it.
			for i := 0; i < 4; i++ {
				_, _ = w.Write([]byte(big[:1024]))
				w.(http.Flusher).Flush()
			}
			return
		}
		_, _ = w.Write([]byte(big))
	})
	im, _ := loopbackImporter(t, 1000)

	_, err := im.Fetch(context.Background(), srv.URL+"/whole")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = im.Fetch(context.Background(), srv.URL+"/chunked")
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestImageImporter_RejectsSpoofedImage(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("<html>definitely not a png</html>"))
	})
	im, _ := loopbackImporter(t, 0)

	_, err := im.Fetch(context.Background(), srv.URL+"/fake.png")
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestImageImporter_ImportSkipsFailuresAndDedupes(t *testing.T) {
	body := pngBytes(t)
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	})
	im, _ := loopbackImporter(t, 0)

	images := im.Import(context.Background(), 7, []string{
		srv.URL + "/a.png",
		srv.URL + "/a.png",
		srv.URL + "/missing.png",
		"ftp://nope/x.png",
		srv.URL + "/b.png",
	}, 2, MaxImportedImages)

	require.Len(t, images, 2)
	assert.Equal(t, uint(7), images[0].ProductID)
	assert.Equal(t, 2, images[0].Position)
	assert.Equal(t, 3, images[1].Position)
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}
