package feedback

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/capture"
)

// Payload is the body of POST /api/feedback. Pointer fields encode as null
// when unset.
type Payload struct {
	SiteKey             string       `json:"site_key"`
	Title               string       `json:"title"`
	Category            string       `json:"category"`
	Priority            string       `json:"priority"`
	Message             string       `json:"message"`
	Email               *string      `json:"email"`
	URL                 string       `json:"url"`
	PageTitle           string       `json:"page_title"`
	ViewportWidth       int          `json:"viewport_width"`
	ViewportHeight      int          `json:"viewport_height"`
	UserAgent           string       `json:"user_agent"`
	BrowserInfo         *BrowserInfo `json:"browser_info"`
	Timestamp           string       `json:"timestamp"`
	ScreenshotRequested bool         `json:"screenshot_requested"`
	ScreenshotBase64    *string      `json:"screenshot_base64"`
	UploadedFileBase64  *string      `json:"uploaded_file_base64"`
	UploadedFileName    *string      `json:"uploaded_file_name"`
	UploadedFileType    *string      `json:"uploaded_file_type"`
}

// PageContext is captured when the form opens.
type PageContext struct {
	URL         string
	Title       string
	Viewport    image.Point
	UserAgent   string
	BrowserInfo *BrowserInfo
	Timestamp   time.Time
}

type NameVersion struct {
	Name    *string `json:"name"`
	Version *string `json:"version"`
}

type BrowserDetail struct {
	Name    *string `json:"name"`
	Version *string `json:"version"`
	Major   *string `json:"major"`
}

type DeviceDetail struct {
	Model  *string `json:"model"`
	Type   *string `json:"type"`
	Vendor *string `json:"vendor"`
}

type CPUDetail struct {
	Architecture *string `json:"architecture"`
}

// BrowserInfo describes the client environment.
type BrowserInfo struct {
	Browser BrowserDetail `json:"browser"`
	Device  DeviceDetail  `json:"device"`
	OS      NameVersion   `json:"os"`
	Engine  NameVersion   `json:"engine"`
	CPU     CPUDetail     `json:"cpu"`
}

var (
	browserPatterns = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"Edge", regexp.MustCompile(`Edg(?:e|A|iOS)?/([\d.]+)`)},
		{"Opera", regexp.MustCompile(`OPR/([\d.]+)`)},
		{"Firefox", regexp.MustCompile(`Firefox/([\d.]+)`)},
		{"Chrome", regexp.MustCompile(`Chrome/([\d.]+)`)},
		{"Safari", regexp.MustCompile(`Version/([\d.]+).*Safari/`)},
		{"notedis", regexp.MustCompile(`notedis/([\w.\-]+)`)},
	}
	enginePatterns = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"Gecko", regexp.MustCompile(`rv:([\d.]+)\) Gecko/`)},
		{"Blink", regexp.MustCompile(`Chrome/([\d.]+)`)},
		{"WebKit", regexp.MustCompile(`AppleWebKit/([\d.]+)`)},
	}
	osTokens = []struct{ token, name string }{
		{"Windows", "Windows"},
		{"Android", "Android"},
		{"iPhone", "iOS"},
		{"iPad", "iOS"},
		{"Mac OS X", "macOS"},
		{"CrOS", "Chromium OS"},
		{"Linux", "Linux"},
	}
	goosNames = map[string]string{
		"linux":   "Linux",
		"darwin":  "macOS",
		"windows": "Windows",
		"freebsd": "FreeBSD",
		"openbsd": "OpenBSD",
	}
	archNames = map[string]string{
		"amd64": "amd64",
		"386":   "ia32",
		"arm64": "arm64",
		"arm":   "arm",
	}
)

func strp(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DetectBrowserInfo parses a user agent string. Fields that cannot be
// derived stay null; an empty agent describes the local process.
func DetectBrowserInfo(userAgent string) *BrowserInfo {
	info := &BrowserInfo{}
	for _, p := range browserPatterns {
		if m := p.re.FindStringSubmatch(userAgent); m != nil {
			info.Browser.Name = strp(p.name)
			info.Browser.Version = strp(m[1])
			info.Browser.Major = strp(strings.SplitN(m[1], ".", 2)[0])
			break
		}
	}
	for _, p := range enginePatterns {
		if m := p.re.FindStringSubmatch(userAgent); m != nil {
			info.Engine.Name = strp(p.name)
			info.Engine.Version = strp(m[1])
			break
		}
	}
	for _, t := range osTokens {
		if strings.Contains(userAgent, t.token) {
			info.OS.Name = strp(t.name)
			break
		}
	}
	if strings.Contains(userAgent, "Mobile") {
		info.Device.Type = strp("mobile")
	}
	if info.OS.Name == nil && (userAgent == "" || strings.HasPrefix(userAgent, "notedis/")) {
		info.OS.Name = strp(goosNames[runtime.GOOS])
	}
	if a, ok := archNames[runtime.GOARCH]; ok && (userAgent == "" || strings.HasPrefix(userAgent, "notedis/")) {
		info.CPU.Architecture = strp(a)
	}
	return info
}

// NewPageContext stamps ctx with the current time and browser details.
func NewPageContext(url, title string, viewport image.Point, userAgent string, now time.Time) PageContext {
	return PageContext{
		URL:         url,
		Title:       title,
		Viewport:    viewport,
		UserAgent:   userAgent,
		BrowserInfo: DetectBrowserInfo(userAgent),
		Timestamp:   now,
	}
}

// Timestamp formats t the way the API expects.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ScreenshotPNG picks the image to send: the original when nothing was
// drawn, otherwise the flattened image.
func ScreenshotPNG(store *annotate.Store) ([]byte, error) {
	var img image.Image = store.Base()
	if store.Len() > 0 {
		img = store.Finalize()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Attachments are the optional images sent with a form.
type Attachments struct {
	Screenshot *annotate.Store
	Upload     *capture.Upload
}

// BuildPayload assembles the request body. A screenshot that fails to
// encode is dropped but still reported as requested.
func BuildPayload(siteKey string, form Form, page PageContext, att Attachments) (*Payload, error) {
	p := &Payload{
		SiteKey:        siteKey,
		Title:          form.Title,
		Category:       form.Category,
		Priority:       form.Priority,
		Message:        form.Message,
		Email:          strp(strings.TrimSpace(form.Email)),
		URL:            page.URL,
		PageTitle:      page.Title,
		ViewportWidth:  page.Viewport.X,
		ViewportHeight: page.Viewport.Y,
		UserAgent:      page.UserAgent,
		BrowserInfo:    page.BrowserInfo,
		Timestamp:      Timestamp(page.Timestamp),
	}
	var err error
	if att.Screenshot != nil {
		p.ScreenshotRequested = true
		var data []byte
		data, err = ScreenshotPNG(att.Screenshot)
		if err == nil {
			s := base64.StdEncoding.EncodeToString(data)
			p.ScreenshotBase64 = &s
		}
	}
	if u := att.Upload; u != nil {
		s := base64.StdEncoding.EncodeToString(u.Data)
		p.UploadedFileBase64 = &s
		p.UploadedFileName = strp(u.Name)
		p.UploadedFileType = strp(u.Type)
	}
	return p, err
}
