// Package term is the playable terminal frontend. It draws the world
// the client core produces and turns terminal events into input for
// it: WASD or arrows to move, mouse to aim, left button or space to
// fire, digits plus space to pick a weapon and respawn after dying.
package term

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/burbokop/fast-pased-mp-game/client"
	"github.com/burbokop/fast-pased-mp-game/game"
	"github.com/burbokop/fast-pased-mp-game/geom"
)

const (
	fps           = 60
	frameDuration = time.Second / fps

	// Terminals report key repeats, never releases. A key counts as
	// held while repeats keep arriving within this window.
	keyTimeout = 150 * time.Millisecond

	// World units of movement per frame per axis while a key is held.
	moveStep = 5

	// Facing turn per frame while q or e is held.
	turnStep = math.Pi / 48

	minCols = 20
	minRows = 10
)

// UI owns the terminal screen and the per-frame input state.
type UI struct {
	screen tcell.Screen
	cl     *client.Client

	width, height int
	vp            viewport

	keys       map[rune]time.Time
	facing     geom.Complex
	mouseX     int
	mouseY     int
	mouseDirty bool
	mouseFire  bool

	weaponIdx int
}

// Run owns the terminal until the player quits with Escape or Ctrl-C,
// or until the connection drops.
func Run(cl *client.Client) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("term: open screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("term: init screen: %w", err)
	}
	defer screen.Fini()

	screen.EnableMouse()
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	u := &UI{
		screen: screen,
		cl:     cl,
		keys:   make(map[rune]time.Time),
		facing: geom.NoRot(),
	}
	u.width, u.height = screen.Size()
	return u.run()
}

func (u *UI) run() error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			events <- u.screen.PollEvent()
		}
	}()

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		now := time.Now()

	drain:
		for {
			select {
			case ev := <-events:
				quit, err := u.handleEvent(ev, now)
				if err != nil {
					return err
				}
				if quit {
					return nil
				}
			default:
				break drain
			}
		}

		if err := u.cl.Poll(now); err != nil {
			return err
		}

		view := u.cl.View(now)
		if view != nil {
			u.vp = newViewport(view.WorldBounds, u.width, u.height)
			u.steer(view, now)
			if !u.cl.Killed() {
				if err := u.cl.ApplyInput(u.input(now)); err != nil {
					return err
				}
			}
		}
		u.render(view)
		<-ticker.C
	}
}

func (u *UI) handleEvent(ev tcell.Event, now time.Time) (quit bool, err error) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return u.handleKey(ev, now)
	case *tcell.EventMouse:
		u.mouseX, u.mouseY = ev.Position()
		u.mouseDirty = true
		u.mouseFire = ev.Buttons()&tcell.Button1 != 0
	case *tcell.EventResize:
		u.width, u.height = u.screen.Size()
		u.screen.Sync()
	}
	return false, nil
}

func (u *UI) handleKey(ev *tcell.EventKey, now time.Time) (quit bool, err error) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true, nil
	case tcell.KeyUp:
		u.keys['w'] = now
	case tcell.KeyDown:
		u.keys['s'] = now
	case tcell.KeyLeft:
		u.keys['a'] = now
	case tcell.KeyRight:
		u.keys['d'] = now
	case tcell.KeyEnter:
		if u.cl.Killed() {
			return false, u.respawn()
		}
	case tcell.KeyRune:
		r := ev.Rune()
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if u.cl.Killed() {
			if r == ' ' {
				return false, u.respawn()
			}
			u.weaponIdx = menuSelect(u.weaponIdx, r)
			return false, nil
		}
		switch r {
		case 'w', 'a', 's', 'd', 'q', 'e', ' ':
			u.keys[r] = now
		}
	}
	return false, nil
}

func (u *UI) respawn() error {
	u.keys = make(map[rune]time.Time)
	u.mouseFire = false
	return u.cl.Respawn(game.WeaponKinds[u.weaponIdx])
}

// menuSelect returns the weapon index a digit key picks, or the
// current one if the key picks nothing.
func menuSelect(cur int, r rune) int {
	if r < '1' || r > '9' {
		return cur
	}
	if i := int(r - '1'); i < len(game.WeaponKinds) {
		return i
	}
	return cur
}

func (u *UI) held(key rune, now time.Time) bool {
	at, ok := u.keys[key]
	return ok && now.Sub(at) < keyTimeout
}

// steer points the facing at the mouse when it moved, otherwise turns
// it with q and e.
func (u *UI) steer(view *game.State, now time.Time) {
	if u.mouseDirty {
		u.mouseDirty = false
		if ch := view.FindCharacter(u.cl.PlayerID); ch != nil {
			d := u.vp.unproject(u.mouseX, u.mouseY).Sub(ch.Pos)
			if d.Len() >= 1 {
				n := d.Normalized()
				u.facing = geom.Complex{R: n.X, I: n.Y}
			}
		}
		return
	}
	if u.held('q', now) {
		u.facing = u.facing.Mul(geom.FromRad(-turnStep))
	}
	if u.held('e', now) {
		u.facing = u.facing.Mul(geom.FromRad(turnStep))
	}
}

// input assembles this frame's intent from keys still considered held
// and the mouse button state. When opposite directions are both held,
// left beats right and up beats down.
func (u *UI) input(now time.Time) client.Input {
	var mv geom.Vector
	if u.held('a', now) {
		mv.X = -moveStep
	} else if u.held('d', now) {
		mv.X = moveStep
	}
	if u.held('w', now) {
		mv.Y = -moveStep
	} else if u.held('s', now) {
		mv.Y = moveStep
	}
	return client.Input{
		Movement: mv,
		Rotation: u.facing,
		Fire:     u.mouseFire || u.held(' ', now),
	}
}

// viewport maps world coordinates onto the drawable terminal region
// below the HUD row. Terminal cells are roughly twice as tall as they
// are wide, so x and y carry independent scales.
type viewport struct {
	bounds geom.Rect
	x0, y0 int
	w, h   int
}

func newViewport(bounds geom.Rect, screenW, screenH int) viewport {
	return viewport{bounds: bounds, x0: 0, y0: 1, w: screenW, h: screenH - 1}
}

func (v viewport) valid() bool { return v.w > 1 && v.h > 1 }

func (v viewport) project(p geom.Point) (int, int) {
	x := v.x0 + int(math.Round((p.X-v.bounds.X)/v.bounds.W*float64(v.w-1)))
	y := v.y0 + int(math.Round((p.Y-v.bounds.Y)/v.bounds.H*float64(v.h-1)))
	return x, y
}

func (v viewport) unproject(x, y int) geom.Point {
	return geom.Point{
		X: v.bounds.X + float64(x-v.x0)/float64(v.w-1)*v.bounds.W,
		Y: v.bounds.Y + float64(y-v.y0)/float64(v.h-1)*v.bounds.H,
	}
}

func (u *UI) render(view *game.State) {
	u.screen.Clear()
	if u.width < minCols || u.height < minRows {
		u.drawText(0, 0, "terminal too small", tcell.StyleDefault)
		u.screen.Show()
		return
	}
	if view == nil || !u.vp.valid() {
		msg := "connecting"
		u.drawText((u.width-len(msg))/2, u.height/2, msg, tcell.StyleDefault.Dim(true))
		u.screen.Show()
		return
	}

	u.drawBorder()
	for i := range view.Entities {
		e := &view.Entities[i]
		switch {
		case e.IsCharacter():
			u.drawCharacter(e)
		case e.Proj.Kind == game.ProjectileRay:
			u.drawRay(e)
		default:
			u.drawProjectile(e)
		}
	}
	u.drawHUD(view)
	if u.cl.Killed() {
		u.drawDeathOverlay()
	}
	u.screen.Show()
}

func (u *UI) drawBorder() {
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(110, 110, 110))
	x1 := u.vp.x0 + u.vp.w - 1
	y1 := u.vp.y0 + u.vp.h - 1
	for x := u.vp.x0; x <= x1; x++ {
		u.screen.SetContent(x, u.vp.y0, '─', nil, style)
		u.screen.SetContent(x, y1, '─', nil, style)
	}
	for y := u.vp.y0; y <= y1; y++ {
		u.screen.SetContent(u.vp.x0, y, '│', nil, style)
		u.screen.SetContent(x1, y, '│', nil, style)
	}
	u.screen.SetContent(u.vp.x0, u.vp.y0, '┌', nil, style)
	u.screen.SetContent(x1, u.vp.y0, '┐', nil, style)
	u.screen.SetContent(u.vp.x0, y1, '└', nil, style)
	u.screen.SetContent(x1, y1, '┘', nil, style)
}

// healthRunes fades the character block as it takes hits.
var healthRunes = [4]rune{'·', '░', '▓', '█'}

func (u *UI) drawCharacter(e *game.Entity) {
	style := entityStyle(e.Color)
	hp := e.Health
	if hp < 0 {
		hp = 0
	}
	if hp > 3 {
		hp = 3
	}
	block := healthRunes[hp]

	x, y := u.vp.project(e.Pos)
	u.screen.SetContent(x, y, block, nil, style)
	u.screen.SetContent(x+1, y, block, nil, style)

	if e.Weapon.Kind == game.WeaponShield {
		seg := e.Weapon.Shield.Segment(e.Pos, e.Rot)
		u.drawLine(seg.P0, seg.P1, '▒', style)
	}

	fx, fy := u.vp.project(e.Pos.Add(geom.Polar(e.Rot, 12)))
	u.screen.SetContent(fx, fy, facingRune(e.Rot), nil, style)
}

func (u *UI) drawRay(e *game.Entity) {
	style := entityStyle(e.Color)
	if e.Tail != nil {
		prev := e.Tail.End
		for _, p := range e.Tail.ReflectionPoints {
			u.drawLine(prev, p, '·', style)
			prev = p
		}
		u.drawLine(prev, e.Pos, '·', style)
	}
	x, y := u.vp.project(e.Pos)
	u.screen.SetContent(x, y, '•', nil, style)
}

func (u *UI) drawProjectile(e *game.Entity) {
	style := entityStyle(e.Color)
	r := '•'
	if e.Proj.Kind == game.ProjectileMine {
		r = '◦'
		if e.Activated {
			r = '◆'
		}
	}
	x, y := u.vp.project(e.Pos)
	u.screen.SetContent(x, y, r, nil, style)
}

func (u *UI) drawLine(a, b geom.Point, r rune, style tcell.Style) {
	x0, y0 := u.vp.project(a)
	x1, y1 := u.vp.project(b)
	steps := abs(x1 - x0)
	if dy := abs(y1 - y0); dy > steps {
		steps = dy
	}
	if steps == 0 {
		u.screen.SetContent(x0, y0, r, nil, style)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(float64(x1-x0)*t))
		y := y0 + int(math.Round(float64(y1-y0)*t))
		u.screen.SetContent(x, y, r, nil, style)
	}
}

func (u *UI) drawHUD(view *game.State) {
	if ch := view.FindCharacter(u.cl.PlayerID); ch != nil {
		line := fmt.Sprintf("%s  %s", ch.Weapon.Kind, strings.Repeat("♥", ch.Health))
		u.drawText(1, 0, line, entityStyle(ch.Color))
		return
	}
	if u.cl.Killed() {
		u.drawText(1, 0, "destroyed", tcell.StyleDefault.Foreground(tcell.ColorRed))
	}
}

func (u *UI) drawDeathOverlay() {
	title := "YOU WERE DESTROYED"
	hint := "pick a weapon, space to respawn"

	top := u.height/2 - len(game.WeaponKinds)/2 - 3
	if top < 1 {
		top = 1
	}
	u.drawText((u.width-len(title))/2, top, title, tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
	u.drawText((u.width-len(hint))/2, top+1, hint, tcell.StyleDefault.Dim(true))

	for i, kind := range game.WeaponKinds {
		line := fmt.Sprintf("  %d %s", i+1, kind)
		style := tcell.StyleDefault
		if i == u.weaponIdx {
			line = fmt.Sprintf("> %d %s", i+1, kind)
			style = style.Foreground(tcell.ColorYellow).Bold(true)
		}
		u.drawText((u.width-len(line))/2, top+3+i, line, style)
	}
}

func (u *UI) drawText(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		u.screen.SetContent(x+i, y, r, nil, style)
	}
}

func entityStyle(c game.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
}

// facingRunes indexes arrow glyphs by angle octant, screen-down being
// positive y.
var facingRunes = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

func facingRune(rot geom.Complex) rune {
	oct := int(math.Round(math.Atan2(rot.I, rot.R) / (math.Pi / 4)))
	return facingRunes[((oct%8)+8)%8]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
