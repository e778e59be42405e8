package main

import (
	"fmt"

	"github.com/glintui/glint/reconcile"
)

// a small self-driving view tree: an ambient theme over a panel of keyed
// rows plus one stateful ticker. Each advance reorders the rows and toggles
// the theme, which exercises keyed reconciliation and ambient notification.

type demoApp struct {
	rows    []string
	theme   string
	step    int
	tickers *tickerRegistry
}

func newDemoApp() *demoApp {
	return &demoApp{
		rows:    []string{"alpha", "beta", "gamma", "delta"},
		theme:   "light",
		tickers: &tickerRegistry{},
	}
}

func (self *demoApp) advance() {
	self.step += 1
	// rotate the keyed rows
	self.rows = append(self.rows[1:], self.rows[0])
	if self.step%2 == 0 {
		if self.theme == "light" {
			self.theme = "dark"
		} else {
			self.theme = "light"
		}
	}
	self.tickers.tick()
}

func (self *demoApp) build() reconcile.View {
	children := []reconcile.View{
		&tickerView{registry: self.tickers},
	}
	for _, row := range self.rows {
		children = append(children, &rowView{
			key:  reconcile.ValueKey("row", row),
			name: row,
		})
	}
	return &themeView{
		value: self.theme,
		child: &panelView{children: children},
	}
}

type themeView struct {
	value string
	child reconcile.View
}

func (self *themeView) ViewKey() reconcile.Key {
	return reconcile.Key{}
}

func (self *themeView) AmbientTag() string {
	return "theme"
}

func (self *themeView) AmbientValue() any {
	return self.value
}

func (self *themeView) UpdateShouldNotify(oldView reconcile.AmbientView) bool {
	return self.value != oldView.AmbientValue()
}

func (self *themeView) Child() reconcile.View {
	return self.child
}

type panelView struct {
	key      reconcile.Key
	children []reconcile.View
}

func (self *panelView) ViewKey() reconcile.Key {
	return self.key
}

func (self *panelView) Children() []reconcile.View {
	return self.children
}

func (self *panelView) CreateRenderHandle(ctx *reconcile.BuildContext) *reconcile.RenderHandle {
	return reconcile.NewRenderHandle("panel", nil)
}

func (self *panelView) UpdateRenderHandle(ctx *reconcile.BuildContext, handle *reconcile.RenderHandle) {
}

type textView struct {
	key  reconcile.Key
	text string
}

func (self *textView) ViewKey() reconcile.Key {
	return self.key
}

func (self *textView) Children() []reconcile.View {
	return nil
}

func (self *textView) CreateRenderHandle(ctx *reconcile.BuildContext) *reconcile.RenderHandle {
	return reconcile.NewRenderHandle("text", self.text)
}

func (self *textView) UpdateRenderHandle(ctx *reconcile.BuildContext, handle *reconcile.RenderHandle) {
	handle.Config = self.text
}

// a row reads the ambient theme and expands to a themed text leaf
type rowView struct {
	key  reconcile.Key
	name string
}

func (self *rowView) ViewKey() reconcile.Key {
	return self.key
}

func (self *rowView) Expand(ctx *reconcile.BuildContext) reconcile.View {
	theme := "default"
	if value, ok := ctx.DependOnAmbient("theme"); ok {
		theme = value.(string)
	}
	return &textView{
		text: fmt.Sprintf("%s (%s)", self.name, theme),
	}
}

// state holder so the host can reach mounted ticker states between updates
type tickerRegistry struct {
	states []*tickerState
}

func (self *tickerRegistry) tick() {
	for _, state := range self.states {
		state.Tick()
	}
}

type tickerView struct {
	key      reconcile.Key
	registry *tickerRegistry
}

func (self *tickerView) ViewKey() reconcile.Key {
	return self.key
}

func (self *tickerView) CreateState() reconcile.ViewState {
	return &tickerState{}
}

type tickerState struct {
	ctx   *reconcile.BuildContext
	count int
}

func (self *tickerState) InitState(ctx *reconcile.BuildContext) {
	self.ctx = ctx
	view := ctx.View().(*tickerView)
	view.registry.states = append(view.registry.states, self)
}

func (self *tickerState) Tick() {
	self.count += 1
	self.ctx.MarkDirty()
}

func (self *tickerState) Expand(ctx *reconcile.BuildContext) reconcile.View {
	return &textView{
		text: fmt.Sprintf("tick %d", self.count),
	}
}
