//go:build js && wasm

package webui

import (
	"syscall/js"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/browser"
)

// App owns the page elements. Every method runs on the browser's event
// loop, which is the UI context of the bridge.
type App struct {
	doc    js.Value
	window js.Value

	bridge  *core.Bridge
	session *browser.Session

	label   js.Value
	input   js.Value
	fetch   js.Value
	cancel  js.Value
	status  js.Value
	headers js.Value
	page    js.Value
	body    js.Value

	frame    js.Func
	funcs    []js.Func
	released bool
}

// New binds to the global document. Call Mount before the first frame.
func New() *App {
	a := &App{
		doc:    js.Global().Get("document"),
		window: js.Global(),
	}
	a.frame = js.FuncOf(func(js.Value, []js.Value) any {
		a.onFrame()
		return nil
	})
	return a
}

// RequestFrame schedules a poll and render on the next animation frame. It
// is the redraw primitive handed to core.NewRedrawTrigger.
func (a *App) RequestFrame() {
	if a.released {
		return
	}
	a.window.Call("requestAnimationFrame", a.frame)
}

// Mount builds the page under the element with id root (the body when
// absent), wires the controls and renders the initial state.
func (a *App) Mount(root string, b *core.Bridge, s *browser.Session) {
	a.bridge = b
	a.session = s

	parent := a.doc.Call("getElementById", root)
	if parent.IsNull() || parent.IsUndefined() {
		parent = a.doc.Get("body")
	}

	a.label = a.element(parent, "h1", "mochi-label")
	bar := a.element(parent, "div", "mochi-bar")
	a.input = a.element(bar, "input", "mochi-url")
	a.input.Set("type", "text")
	a.input.Set("placeholder", "Enter URL")
	a.input.Set("value", s.URLInput)
	a.fetch = a.element(bar, "button", "mochi-fetch")
	a.fetch.Set("textContent", "Fetch")
	a.cancel = a.element(bar, "button", "mochi-cancel")
	a.cancel.Set("textContent", "Cancel")
	a.status = a.element(parent, "div", "mochi-status")
	a.headers = a.element(parent, "pre", "mochi-headers")
	a.page = a.element(parent, "pre", "mochi-page")
	a.body = a.element(parent, "pre", "mochi-body")

	a.on(a.fetch, "click", func(js.Value) { a.submit() })
	a.on(a.cancel, "click", func(js.Value) {
		a.session.Cancel()
		a.render()
	})
	a.on(a.input, "keydown", func(ev js.Value) {
		switch ev.Get("key").String() {
		case "Enter":
			a.submit()
		case "Escape":
			a.session.Cancel()
			a.render()
		}
	})

	a.on(a.window, "pagehide", func(js.Value) { a.Close() })

	a.render()
}

// Close ends the UI context: the redraw trigger is closed, then the
// JavaScript callbacks are released.
func (a *App) Close() {
	if a.bridge != nil {
		a.bridge.Redraw().Close()
	}
	a.Release()
}

// Release frees the JavaScript callbacks. The page stops responding.
func (a *App) Release() {
	if a.released {
		return
	}
	a.released = true
	for _, f := range a.funcs {
		f.Release()
	}
	a.funcs = nil
	a.frame.Release()
}

func (a *App) submit() {
	a.session.URLInput = a.input.Get("value").String()
	_ = a.session.Fetch()
	a.render()
}

func (a *App) onFrame() {
	if a.bridge == nil {
		return
	}
	if a.bridge.Poll() > 0 {
		a.render()
	}
}

func (a *App) render() {
	v := Render(a.session)
	a.label.Set("textContent", v.Label)
	a.status.Set("textContent", v.Status)
	a.headers.Set("textContent", v.Headers)
	a.page.Set("textContent", v.Page)
	a.body.Set("textContent", v.Body)
	a.fetch.Set("disabled", v.Busy)
	a.cancel.Set("disabled", !v.Busy)
}

func (a *App) element(parent js.Value, tag, id string) js.Value {
	el := a.doc.Call("createElement", tag)
	el.Set("id", id)
	parent.Call("appendChild", el)
	return el
}

func (a *App) on(el js.Value, event string, fn func(js.Value)) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		var ev js.Value
		if len(args) > 0 {
			ev = args[0]
		}
		fn(ev)
		return nil
	})
	a.funcs = append(a.funcs, f)
	el.Call("addEventListener", event, f)
}
