//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"errors"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var owner *selectionOwner

var errTargetUnavailable = errors.New("clipboard target unavailable")

// backendInit owns the CLIPBOARD selection from a hidden 1x1 window when
// the cgo backend is not compiled in. Data is served until another client
// takes the selection or the process exits.
func backendInit() error {
	o, err := newSelectionOwner()
	if err != nil {
		return err
	}
	owner = o
	go owner.serve()
	return nil
}

func writeData(f format, data []byte) error {
	owner.mu.Lock()
	owner.owned = map[format][]byte{f: append([]byte(nil), data...)}
	owner.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(owner.conn, owner.window, owner.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func readData(f format) ([]byte, error) {
	if f == fmtImage {
		return owner.convert(owner.atoms.png)
	}
	data, err := owner.convert(owner.atoms.utf8)
	if err != nil {
		return owner.convert(xproto.AtomString)
	}
	return data, nil
}

type atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	property  xproto.Atom
}

type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atoms

	mu    sync.RWMutex
	owned map[format][]byte
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	mask := uint32(xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify)
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual, xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		conn.Close()
		return nil, err
	}
	a, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, err
	}
	return &selectionOwner{conn: conn, window: window, atoms: a, owned: map[format][]byte{}}, nil
}

func internAtoms(conn *xgb.Conn) (atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png", "NOTEDIS_CLIPBOARD"}
	ids := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atoms{}, err
		}
		ids[i] = reply.Atom
	}
	return atoms{clipboard: ids[0], targets: ids[1], utf8: ids[2], textPlain: ids[3], png: ids[4], property: ids[5]}, nil
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.owned = map[format][]byte{}
			o.mu.Unlock()
		}
	}
}

// answer writes the requested target onto the requestor's property and
// sends SelectionNotify. Property None signals a refusal.
func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	o.mu.RLock()
	text, img := o.owned[fmtText], o.owned[fmtImage]
	o.mu.RUnlock()

	var (
		typ     xproto.Atom
		unit    byte = 8
		payload []byte
	)
	switch e.Target {
	case o.atoms.targets:
		list := []xproto.Atom{o.atoms.targets}
		if len(text) > 0 {
			list = append(list, o.atoms.utf8, xproto.AtomString, o.atoms.textPlain)
		}
		if len(img) > 0 {
			list = append(list, o.atoms.png)
		}
		payload = make([]byte, len(list)*4)
		for i, a := range list {
			xgb.Put32(payload[i*4:], uint32(a))
		}
		typ, unit = xproto.AtomAtom, 32
	case o.atoms.utf8, xproto.AtomString, o.atoms.textPlain:
		payload, typ = text, o.atoms.utf8
	case o.atoms.png:
		payload, typ = img, o.atoms.png
	}
	if len(payload) == 0 {
		property = xproto.AtomNone
	} else {
		n := uint32(len(payload)) / uint32(unit/8)
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, typ, unit, n, payload)
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// convert asks the current selection owner for target using a throwaway
// connection and waits for the reply.
func (o *selectionOwner) convert(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, o.atoms.clipboard, target, o.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, errTargetUnavailable
		}
		reply, perr := xproto.GetProperty(conn, true, window, o.atoms.property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
