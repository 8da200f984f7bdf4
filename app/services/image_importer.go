package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

const (
	MaxImportedImages  = 5
	imageReadTimeout   = 8 * time.Second
	imageTotalTimeout  = 12 * time.Second
	imageMaxRedirects  = 3
	imageDirectory     = "products"
	imageFallbackExt   = "jpg"
	imageNameRandBytes = 12 // 24 hex chars
)

var (
	ErrImageURLRejected = errors.New("image: url rejected")
	ErrImageHostBlocked = errors.New("image: host resolves to a non-public address")
	ErrImageTooLarge    = errors.New("image: payload exceeds size limit")
	ErrNotAnImage       = errors.New("image: payload is not a decodable image")
)

// IPResolver resolves host names. *net.Resolver satisfies it.
type IPResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

var cgnat = mustCIDR("100.64.0.0/10")

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}

// IsPublicIP rejects loopback, private, link-local, multicast, unspecified
// and carrier-grade NAT addresses.
func IsPublicIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	case cgnat.Contains(ip):
		return false
	case ip.Equal(net.IPv4bcast):
		return false
	}
	return true
}

// ValidateImageURL checks scheme and userinfo. Host checks happen later.
func ValidateImageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageURLRejected, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrImageURLRejected, u.Scheme)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: embedded credentials", ErrImageURLRejected)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrImageURLRejected)
	}
	return u, nil
}

// ImageImporter downloads remote product images onto a storage disk,
// refusing anything that could reach an internal address.
type ImageImporter struct {
	disk     storage.Disk
	resolver IPResolver
	allowIP  func(net.IP) bool
	maxBytes int64
	client   *http.Client
}

func NewImageImporter(disk storage.Disk, maxBytes int64) *ImageImporter {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	im := &ImageImporter{
		disk:     disk,
		resolver: net.DefaultResolver,
		allowIP:  IsPublicIP,
		maxBytes: maxBytes,
	}
	im.client = im.newClient()
	return im
}

func (im *ImageImporter) newClient() *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{
		Proxy:                 nil, // a proxy would dial on our behalf and skip the IP check
		ResponseHeaderTimeout: imageReadTimeout,
		TLSHandshakeTimeout:   5 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			// Re-resolve at dial time so a rebinding DNS answer is caught.
			ips, err := im.resolveAllowed(ctx, host)
			if err != nil {
				return nil, err
			}
			return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].String(), port))
		},
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > imageMaxRedirects {
				return fmt.Errorf("%w: too many redirects", ErrImageURLRejected)
			}
			if _, err := ValidateImageURL(req.URL.String()); err != nil {
				return err
			}
			_, err := im.resolveAllowed(req.Context(), req.URL.Hostname())
			return err
		},
	}
}

// resolveAllowed returns the host's addresses when every one of them is
// allowed.
func (im *ImageImporter) resolveAllowed(ctx context.Context, host string) ([]net.IP, error) {
	var ips []net.IP
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		ips = []net.IP{ip}
	} else {
		addrs, err := im.resolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve %s: %v", ErrImageHostBlocked, host, err)
		}
		for _, a := range addrs {
			ips = append(ips, a.IP)
		}
	}

	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: %s has no addresses", ErrImageHostBlocked, host)
	}
	for _, ip := range ips {
		if !im.allowIP(ip) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrImageHostBlocked, host, ip)
		}
	}
	return ips, nil
}

// Import fetches up to limit images and returns the stored ones, positioned
// after offset. Failures are logged and skipped.
func (im *ImageImporter) Import(ctx context.Context, productID uint, urls []string, offset, limit int) []models.ProductImage {
	log := logger.WithCtx(ctx)

	var out []models.ProductImage
	seen := map[string]struct{}{}
	for _, raw := range urls {
		if len(out) >= limit {
			break
		}
		raw = strings.TrimSpace(raw)
		if _, dup := seen[raw]; dup || raw == "" {
			continue
		}
		seen[raw] = struct{}{}

		p, err := im.Fetch(ctx, raw)
		if err != nil {
			metrics.ImageImports.WithLabelValues("rejected").Inc()
			log.Warn("image import skipped", "url", raw, "error", err)
			continue
		}
		metrics.ImageImports.WithLabelValues("stored").Inc()
		out = append(out, models.ProductImage{
			ProductID: productID,
			Path:      p,
			Position:  offset + len(out),
		})
	}
	return out
}

// Fetch downloads one image and stores it, returning its disk path.
func (im *ImageImporter) Fetch(ctx context.Context, raw string) (string, error) {
	u, err := ValidateImageURL(raw)
	if err != nil {
		return "", err
	}
	if _, err := im.resolveAllowed(ctx, u.Hostname()); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, imageTotalTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageURLRejected, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := im.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("image: fetch: status %d", resp.StatusCode)
	}
	if resp.ContentLength > im.maxBytes {
		return "", fmt.Errorf("%w: content-length %d", ErrImageTooLarge, resp.ContentLength)
	}

	data, err := im.readCapped(resp.Body, cancel)
	if err != nil {
		return "", err
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return "", ErrNotAnImage
	}

	ext, contentType := imageExtension(data, resp.Header.Get("Content-Type"), u.Path)
	name, err := randomName()
	if err != nil {
		return "", err
	}
	p := path.Join(imageDirectory, name+"."+ext)

	if err := im.disk.Put(ctx, p, data, contentType); err != nil {
		return "", fmt.Errorf("image: store: %w", err)
	}
	return p, nil
}

// readCapped reads at most maxBytes and aborts a stalled body after the
// read timeout.
func (im *ImageImporter) readCapped(body io.Reader, cancel context.CancelFunc) ([]byte, error) {
	idle := time.AfterFunc(imageReadTimeout, cancel)
	defer idle.Stop()

	var buf bytes.Buffer
	chunk := make([]byte, 32<<10)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			idle.Reset(imageReadTimeout)
			if int64(buf.Len()+n) > im.maxBytes {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, im.maxBytes)
			}
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("image: read: %w", err)
		}
	}
}

var imageExts = map[string]string{
	"image/jpeg":  "jpg",
	"image/pjpeg": "jpg",
	"image/png":   "png",
	"image/gif":   "gif",
	"image/webp":  "webp",
}

// imageExtension picks the stored extension from the sniffed content, the
// Content-Type header or the URL suffix, in that order.
func imageExtension(data []byte, header, urlPath string) (ext, contentType string) {
	if m := mimetype.Detect(data); m != nil {
		if e, ok := imageExts[m.String()]; ok {
			return e, m.String()
		}
	}
	if mt, _, err := mime.ParseMediaType(header); err == nil {
		if e, ok := imageExts[mt]; ok {
			return e, mt
		}
	}
	switch e := strings.ToLower(strings.TrimPrefix(path.Ext(urlPath), ".")); e {
	case "jpeg", "jpg":
		return "jpg", "image/jpeg"
	case "png", "gif", "webp":
		return e, "image/" + e
	}
	return imageFallbackExt, "image/jpeg"
}

func randomName() (string, error) {
	b := make([]byte, imageNameRandBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("image: random name: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Discard deletes images stored by Import. It runs when the surrounding
// transaction fails so no orphaned files stay on the disk.
func (im *ImageImporter) Discard(ctx context.Context, images []models.ProductImage) {
	for _, img := range images {
		if err := im.disk.Delete(ctx, img.Path); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.WithCtx(ctx).Warn("image discard failed", "path", img.Path, "error", err)
		}
	}
}
