package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"barsync/barcolor"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenCastIface = "org.freedesktop.portal.ScreenCast"
	requestIface    = "org.freedesktop.portal.Request"

	portalTimeout = 120 * time.Second // user may need time to pick a screen
)

// pipeWireCapturer reads full-resolution RGBx frames that GStreamer pulls
// from an XDG portal ScreenCast session.
type pipeWireCapturer struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	dbConn *dbus.Conn // kept alive to hold the ScreenCast session
	pwFile *os.File   // PipeWire remote fd from the portal
	stream *rawStream
}

func newPipeWireCapturer(display int) (Capturer, string, error) {
	if !hasExecutable("gst-launch-1.0") {
		return nil, "", fmt.Errorf("gst-launch-1.0 not found")
	}

	dbConn, stream, pwFile, err := acquirePipeWireNode()
	if err != nil {
		return nil, "", fmt.Errorf("pipewire portal: %w", err)
	}

	// The user picks the monitor in the portal, so frames keep that stream's
	// native size. The selected display's bounds are only a fallback.
	w, h := stream.width, stream.height
	if w <= 0 || h <= 0 {
		bounds, err := displayBounds(display)
		if err != nil {
			pwFile.Close()
			dbConn.Close()
			return nil, "", err
		}
		w, h = bounds.Dx(), bounds.Dy()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// ExtraFiles[0] becomes fd 3 in the child.
	cmd := exec.CommandContext(ctx, "gst-launch-1.0", "-q",
		"pipewiresrc", fmt.Sprintf("path=%d", stream.nodeID), "fd=3",
		"!", "videoconvert",
		"!", "videoscale",
		"!", "videorate",
		"!", fmt.Sprintf("video/x-raw,format=RGBx,width=%d,height=%d,framerate=10/1", w, h),
		"!", "fdsink", "fd=1",
	)
	cmd.ExtraFiles = []*os.File{pwFile}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		pwFile.Close()
		dbConn.Close()
		return nil, "", fmt.Errorf("gstreamer stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		pwFile.Close()
		dbConn.Close()
		return nil, "", fmt.Errorf("starting gstreamer: %w", err)
	}

	c := &pipeWireCapturer{
		cancel: cancel,
		cmd:    cmd,
		dbConn: dbConn,
		pwFile: pwFile,
		stream: newRawStream(w, h, barcolor.FormatRGBA8888),
	}

	go c.stream.readFrames(stdout)

	if err := c.stream.waitReady(firstFrameTimeout); err != nil {
		_ = c.Close()
		return nil, "", fmt.Errorf("gstreamer: %w", err)
	}

	return c, "PipeWire", nil
}

func (c *pipeWireCapturer) CaptureFrame() (*barcolor.FrameBuffer, error) {
	return c.stream.snapshot()
}

func (c *pipeWireCapturer) Close() error {
	c.cancel()
	<-c.stream.done
	err := c.cmd.Wait()
	c.pwFile.Close()
	c.dbConn.Close()
	return err
}

// portalSession tracks one ScreenCast negotiation with the XDG portal.
type portalSession struct {
	conn   *dbus.Conn
	portal dbus.BusObject
	sender string
}

// request calls a portal method that answers through a Request object and
// waits for its Response signal. The options map gets the handle token.
func (p *portalSession) request(token, method string, options map[string]dbus.Variant, args ...interface{}) (map[string]dbus.Variant, error) {
	path := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/portal/desktop/request/%s/%s", p.sender, token))
	sigCh := subscribeSignal(p.conn, path)
	defer p.conn.RemoveSignal(sigCh)

	options["handle_token"] = dbus.MakeVariant(token)
	args = append(args, options)
	if call := p.portal.Call(screenCastIface+"."+method, 0, args...); call.Err != nil {
		return nil, fmt.Errorf("%s: %w", method, call.Err)
	}
	resp, err := waitForResponse(sigCh, portalTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", method, err)
	}
	return resp, nil
}

// portalStream is the first stream of a started ScreenCast session. Width and
// height are 0 when the portal does not report a size.
type portalStream struct {
	nodeID        uint32
	width, height int
}

// acquirePipeWireNode negotiates a ScreenCast session via the XDG Desktop Portal
// and returns the D-Bus connection (must stay open), the selected stream,
// and a PipeWire remote file descriptor for GStreamer.
func acquirePipeWireNode() (*dbus.Conn, portalStream, *os.File, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, portalStream{}, nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	stream, pwFile, err := negotiateScreenCast(conn)
	if err != nil {
		conn.Close()
		return nil, portalStream{}, nil, err
	}
	return conn, stream, pwFile, nil
}

func negotiateScreenCast(conn *dbus.Conn) (portalStream, *os.File, error) {
	if !conn.SupportsUnixFDs() {
		return portalStream{}, nil, fmt.Errorf("D-Bus connection does not support Unix FD passing")
	}

	p := &portalSession{
		conn:   conn,
		portal: conn.Object(portalDest, dbus.ObjectPath(portalPath)),
		sender: senderToToken(conn.Names()[0]),
	}

	resp, err := p.request("barsync_req_create", "CreateSession", map[string]dbus.Variant{
		"session_handle_token": dbus.MakeVariant("barsync_session"),
	})
	if err != nil {
		return portalStream{}, nil, err
	}
	handle, ok := resp["session_handle"]
	if !ok {
		return portalStream{}, nil, fmt.Errorf("CreateSession: no session_handle in response")
	}
	session := dbus.ObjectPath(handle.Value().(string))

	_, err = p.request("barsync_req_select", "SelectSources", map[string]dbus.Variant{
		"types":    dbus.MakeVariant(uint32(1)), // 1 = monitor
		"multiple": dbus.MakeVariant(false),
	}, session)
	if err != nil {
		return portalStream{}, nil, err
	}

	resp, err = p.request("barsync_req_start", "Start", map[string]dbus.Variant{}, session, "")
	if err != nil {
		return portalStream{}, nil, err
	}
	stream, err := extractStream(resp)
	if err != nil {
		return portalStream{}, nil, err
	}

	// OpenPipeWireRemote answers directly with the fd pipewiresrc connects through.
	var pwFd dbus.UnixFD
	err = p.portal.Call(screenCastIface+".OpenPipeWireRemote", 0, session, map[string]dbus.Variant{}).Store(&pwFd)
	if err != nil {
		return portalStream{}, nil, fmt.Errorf("OpenPipeWireRemote: %w", err)
	}
	pwFile := os.NewFile(uintptr(pwFd), "pipewire-remote")
	if pwFile == nil {
		return portalStream{}, nil, fmt.Errorf("invalid PipeWire fd")
	}
	return stream, pwFile, nil
}

// subscribeSignal registers a D-Bus signal match for the portal Response signal
// at the given path and returns a channel that receives matching signals.
func subscribeSignal(conn *dbus.Conn, path dbus.ObjectPath) chan *dbus.Signal {
	ch := make(chan *dbus.Signal, 1)
	conn.Signal(ch)
	conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0,
		fmt.Sprintf("type='signal',interface='%s',member='Response',path='%s'", requestIface, path))
	return ch
}

// waitForResponse waits for a portal Response signal and returns the results map.
// A non-zero response code means the user denied the request or it failed.
func waitForResponse(ch chan *dbus.Signal, timeout time.Duration) (map[string]dbus.Variant, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case sig := <-ch:
			if sig == nil {
				return nil, fmt.Errorf("signal channel closed")
			}
			if len(sig.Body) < 2 {
				continue
			}
			code, ok := sig.Body[0].(uint32)
			if !ok {
				continue
			}
			if code != 0 {
				return nil, fmt.Errorf("portal request denied (code %d)", code)
			}
			results, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				return nil, fmt.Errorf("unexpected response type")
			}
			return results, nil
		case <-timer.C:
			return nil, fmt.Errorf("timed out waiting for portal response")
		}
	}
}

// senderToToken converts a D-Bus sender name like ":1.42" to "1_42" for use
// in request object paths.
func senderToToken(sender string) string {
	s := strings.TrimPrefix(sender, ":")
	return strings.ReplaceAll(s, ".", "_")
}

// extractStream pulls the PipeWire node ID and the optional size from the
// Start response, whose streams field has D-Bus type a(ua{sv}).
func extractStream(resp map[string]dbus.Variant) (portalStream, error) {
	v, ok := resp["streams"]
	if !ok {
		return portalStream{}, fmt.Errorf("no streams in Start response")
	}

	var first interface{}
	switch streams := v.Value().(type) {
	case [][]interface{}:
		if len(streams) == 0 {
			return portalStream{}, fmt.Errorf("no streams returned")
		}
		first = streams[0]
	case []interface{}:
		if len(streams) == 0 {
			return portalStream{}, fmt.Errorf("no streams returned")
		}
		first = streams[0]
	default:
		return portalStream{}, fmt.Errorf("unexpected streams type: %T", v.Value())
	}

	entry, ok := first.([]interface{})
	if !ok || len(entry) == 0 {
		return portalStream{}, fmt.Errorf("unexpected stream entry: %T", first)
	}
	nodeID, ok := entry[0].(uint32)
	if !ok {
		return portalStream{}, fmt.Errorf("unexpected node ID type: %T", entry[0])
	}
	stream := portalStream{nodeID: nodeID}

	if len(entry) < 2 {
		return stream, nil
	}
	props, ok := entry[1].(map[string]dbus.Variant)
	if !ok {
		return stream, nil
	}
	// size is (ii).
	if size, ok := props["size"].Value().([]interface{}); ok && len(size) == 2 {
		w, wok := size[0].(int32)
		h, hok := size[1].(int32)
		if wok && hok {
			stream.width, stream.height = int(w), int(h)
		}
	}
	return stream, nil
}
