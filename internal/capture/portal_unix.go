//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	portalResponseOK        = 0
	portalResponseCancelled = 1
)

var portalHandleToken = newPortalHandleToken

func portalScreenshot(ctx context.Context) (*image.RGBA, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: dbus connect: %v", ErrUnsupported, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logrus.WithError(cerr).Debug("dbus close")
		}
	}()

	obj := conn.Object("org.freedesktop.portal.Desktop", "/org/freedesktop/portal/desktop")
	var handle dbus.ObjectPath
	call := obj.CallWithContext(ctx, "org.freedesktop.portal.Screenshot.Screenshot", 0, "", portalScreenshotOptions())
	if call.Err != nil {
		return nil, classifyPortalError(call.Err)
	}
	if err := call.Store(&handle); err != nil {
		return nil, fmt.Errorf("portal screenshot response: %w", err)
	}

	sigc := make(chan *dbus.Signal, 1)
	conn.Signal(sigc)
	defer conn.RemoveSignal(sigc)
	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.Request',member='Response',path='%s'", handle)
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, fmt.Errorf("portal screenshot subscribe: %w", err)
	}
	defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-sigc:
			if !ok {
				return nil, fmt.Errorf("portal screenshot: connection closed")
			}
			if sig.Path != handle || sig.Name != "org.freedesktop.portal.Request.Response" {
				continue
			}
			uri, err := portalResponseURI(sig.Body)
			if err != nil {
				return nil, err
			}
			img, err := loadPortalImage(uri)
			if err != nil {
				return nil, fmt.Errorf("portal screenshot image: %w", err)
			}
			return img, nil
		}
	}
}

// portalResponseURI interprets the Request.Response body: a response code
// followed by a results dictionary.
func portalResponseURI(body []interface{}) (string, error) {
	if len(body) < 2 {
		return "", fmt.Errorf("portal screenshot: response missing image data")
	}
	code, _ := body[0].(uint32)
	switch code {
	case portalResponseOK:
	case portalResponseCancelled:
		return "", ErrCancelled
	default:
		return "", fmt.Errorf("%w: portal response %d", ErrPermissionDenied, code)
	}
	res, _ := body[1].(map[string]dbus.Variant)
	uriVar, ok := res["uri"]
	if !ok {
		return "", fmt.Errorf("portal screenshot: response missing image data")
	}
	uri, _ := uriVar.Value().(string)
	if uri == "" {
		return "", fmt.Errorf("portal screenshot: empty uri")
	}
	return uri, nil
}

func classifyPortalError(err error) error {
	var dbusErr dbus.Error
	var dbusErrPtr *dbus.Error
	name := ""
	switch {
	case errors.As(err, &dbusErrPtr):
		name = dbusErrPtr.Name
	case errors.As(err, &dbusErr):
		name = dbusErr.Name
	}
	switch name {
	case "org.freedesktop.DBus.Error.AccessDenied",
		"org.freedesktop.portal.Error.NotAllowed":
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case "org.freedesktop.DBus.Error.ServiceUnknown",
		"org.freedesktop.DBus.Error.UnknownMethod",
		"org.freedesktop.DBus.Error.UnknownObject",
		"org.freedesktop.DBus.Error.UnknownInterface",
		"org.freedesktop.portal.Error.NotSupported":
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return fmt.Errorf("portal screenshot call: %w", err)
}

func newPortalHandleToken() string {
	return fmt.Sprintf("notedis_%d", time.Now().UnixNano())
}

func portalScreenshotOptions() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"interactive":  dbus.MakeVariant(false),
		"modal":        dbus.MakeVariant(false),
		"handle_token": dbus.MakeVariant(portalHandleToken()),
	}
}

func loadPortalImage(uri string) (*image.RGBA, error) {
	path := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme == "file" {
		path = u.Path
	} else {
		path = strings.TrimPrefix(uri, "file://")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.WithError(err).WithField("path", path).Debug("remove portal screenshot")
		}
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ToRGBA(img), nil
}
