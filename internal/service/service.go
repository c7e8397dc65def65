// Package service is the root controller of VFD front panel:
// it owns layer scheduler, display modes and indicators, polls them on fixed cadence
// and fans settings changes out.
package service

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/vfd/helpers"
	"github.com/temoto/vfd/internal/display"
	"github.com/temoto/vfd/internal/display/mode"
	"github.com/temoto/vfd/internal/indicator"
	"github.com/temoto/vfd/internal/player"
	"github.com/temoto/vfd/internal/settings"
	"github.com/temoto/vfd/internal/sink"
	"github.com/temoto/vfd/internal/tele"
	"github.com/temoto/vfd/internal/timer"
	"github.com/temoto/vfd/log2"
)

const DefaultPoll = 500 * time.Millisecond

type Options struct {
	Settings  settings.Source
	Player    *player.Cache
	Sink      display.Sink
	Control   *sink.Control
	Overrides *settings.Overrides
	Clock     timer.Clock
	// Transport replaces MQTT client, for tests.
	Transport tele.Transporter
	// Root prefixes indicator sysfs/dev/proc paths, empty in production.
	Root string
	Log  *log2.Log
}

// Service locking: mu is shared with Scheduler and guards indicators and device control.
// Never call Scheduler or modes while holding mu.
type Service struct {
	Alive *alive.Alive

	mu         sync.Mutex
	log        *log2.Log
	settings   settings.Source
	player     *player.Cache
	sched      *display.Scheduler
	modes      []display.Layer
	control    *sink.Control
	overrides  *settings.Overrides
	tele       *tele.Tele
	leds       *indicator.Writer
	indicators *indicator.Set
	root       string
	firstLoop  bool
}

func New(o Options) *Service {
	self := &Service{
		Alive:     alive.NewAlive(),
		log:       o.Log,
		settings:  o.Settings,
		player:    o.Player,
		control:   o.Control,
		overrides: o.Overrides,
		root:      o.Root,
		firstLoop: true,
	}
	if self.player == nil {
		self.player = player.NewCache(o.Log)
	}
	if self.control == nil {
		self.control = sink.NewControl(sink.ControlConfig{}, o.Log)
	}
	self.sched = display.NewScheduler(&self.mu, o.Sink, o.Log)
	env := mode.Env{
		Stacker:  self.sched,
		Settings: o.Settings,
		Clock:    o.Clock,
		Log:      o.Log,
	}
	playback := mode.NewPlaybackTime(env, self.player)
	self.player.Subscribe(playback)
	self.modes = []display.Layer{
		mode.NewTemperature(env),
		mode.NewDate(env),
		playback,
	}
	c := o.Settings.Config()
	self.leds = indicator.NewWriter(c.Indicator.LedOn, c.Indicator.LedOff, o.Log)
	self.indicators = indicator.NewDefault(c, self.player, o.Root)
	if o.Transport != nil {
		self.tele = tele.NewWithTransporter(o.Transport, self)
	} else {
		self.tele = tele.New(self)
	}
	return self
}

func (self *Service) Scheduler() *display.Scheduler { return self.sched }
func (self *Service) Player() *player.Cache         { return self.player }

func (self *Service) Mode(name string) display.Layer {
	for _, m := range self.modes {
		if m.String() == name {
			return m
		}
	}
	return nil
}

// Start applies persisted mode overrides and connects telemetry.
func (self *Service) Start(ctx context.Context) error {
	errs := make([]error, 0, 2)
	if self.overrides != nil {
		if err := self.overrides.Load(); err != nil {
			errs = append(errs, errors.Annotate(err, "overrides load"))
		}
		for _, name := range self.overrides.Names() {
			on, _ := self.overrides.Get(name)
			if m := self.Mode(name); m != nil {
				self.log.Infof("mode %s override enabled=%t", name, on)
				m.Enable(on)
			}
		}
	}
	if err := self.tele.Init(ctx, self.log.Clone(log2.LInfo), tele.ConfigFrom(self.settings.Config())); err != nil {
		errs = append(errs, errors.Annotate(err, "tele init"))
	}
	return helpers.FoldErrors(errs)
}

// Run polls until Alive is stopped, then shuts down. SIGHUP forces settings reload.
func (self *Service) Run(ctx context.Context) {
	if !self.Alive.Add(1) {
		return
	}
	defer self.Alive.Done()
	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)

	tick := time.NewTicker(self.pollInterval())
	defer tick.Stop()
	stopCh := self.Alive.StopChan()
	for self.Alive.IsRunning() {
		select {
		case <-stopCh:
		case <-ctx.Done():
			self.Alive.Stop()
		case <-hupCh:
			self.log.Infof("SIGHUP settings reload")
			self.OnSettingsChanged()
		case <-tick.C:
			self.Poll()
		}
	}
	self.Shutdown()
}

// Poll is one iteration of service loop.
// Missing LED attribute files mean driver is absent, display work is skipped until it appears.
func (self *Service) Poll() {
	ready := false
	helpers.WithLock(&self.mu, func() { ready = self.leds.Ready() })
	if !ready {
		if !self.firstLoop {
			self.log.Infof("vfd driver gone, waiting")
		}
		self.firstLoop = true
		return
	}
	if self.firstLoop {
		self.firstLoop = false
		self.OnSettingsChanged()
	} else if self.settings.Changed() {
		self.log.Infof("settings file changed")
		self.OnSettingsChanged()
	}
	helpers.WithLock(&self.mu, self.updateIndicators)
	self.sched.Update()
	self.publishStatus()
}

func (self *Service) OnSettingsChanged() {
	if err := self.settings.Reload(); err != nil {
		self.log.Error(errors.Annotate(err, "settings reload, keep previous"))
	}
	self.applySettings()
}

func (self *Service) applySettings() {
	c := self.settings.Config()
	self.log.Debugf("settings %s", c.String())

	self.mu.Lock()
	self.createIndicators(c)
	self.applyDevice(c)
	self.updateIndicators()
	self.mu.Unlock()

	self.sched.Clear()
	for _, m := range self.modes {
		m.OnSettingsChanged()
	}
}

// SetModeEnabled toggles mode at runtime and persists choice.
func (self *Service) SetModeEnabled(name string, on bool) error {
	m := self.Mode(name)
	if m == nil {
		return errors.NotFoundf("mode=%s", name)
	}
	m.Enable(on)
	if self.overrides != nil {
		return errors.Annotatef(self.overrides.Set(name, on), "mode=%s", name)
	}
	return nil
}

// Reload is settings change requested from outside.
// Invalid file is reported, previous snapshot stays applied.
func (self *Service) Reload() error {
	err := self.settings.Reload()
	self.applySettings()
	return errors.Annotate(err, "settings reload")
}

func (self *Service) FeedPlayer(s player.State) { self.player.Feed(s) }

// Shutdown order: disable modes (cancel timers), clear display, turn off LEDs.
func (self *Service) Shutdown() {
	self.log.Infof("shutdown")
	for _, m := range self.modes {
		m.Enable(false)
	}
	self.sched.Clear()
	self.mu.Lock()
	if err := self.leds.TurnOff(self.indicators); err != nil {
		self.log.Error(errors.Annotate(err, "shutdown indicators"))
	}
	self.mu.Unlock()
	self.tele.SendStatus(tele.Status{Online: false})
	self.tele.Close()
}

func (self *Service) Stop() { self.Alive.Stop() }

func (self *Service) Status() tele.Status {
	s := tele.Status{Online: true, Modes: make(map[string]bool, len(self.modes))}
	if l := self.sched.Active(); l != nil {
		s.Active = l.String()
	}
	for _, m := range self.modes {
		if e, ok := m.(interface{ Enabled() bool }); ok {
			s.Modes[m.String()] = e.Enabled()
		}
	}
	helpers.WithLock(&self.mu, func() { s.Leds = self.indicators.Lit() })
	return s
}

func (self *Service) publishStatus() {
	if self.tele.Enabled() {
		self.tele.SendStatus(self.Status())
	}
}

func (self *Service) pollInterval() time.Duration {
	if ms := self.settings.Config().PollMs; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return DefaultPoll
}

// requires mu
func (self *Service) createIndicators(c *settings.Config) {
	if err := self.leds.TurnOff(self.indicators); err != nil {
		self.log.Error(errors.Annotate(err, "indicators reset"))
	}
	self.leds = indicator.NewWriter(c.Indicator.LedOn, c.Indicator.LedOff, self.log)
	self.indicators = indicator.NewDefault(c, self.player, self.root)
	self.log.Debugf("indicators %v", self.indicators.Names())
}

// requires mu
func (self *Service) applyDevice(c *settings.Config) {
	self.control.EnableDisplay(c.Display.On)
	if !c.Display.On {
		return
	}
	self.control.SetBrightness(c.Display.Brightness)
	if c.Display.Advanced {
		self.control.SetDisplayType(c.DisplayCode())
		self.control.SetCharacterOrder(c.CharacterIndexes())
	} else {
		self.control.UseDtbConfig()
	}
	if c.Display.Colon {
		self.indicators.Colon().TurnOn()
	}
}

// requires mu
func (self *Service) updateIndicators() {
	on, off := self.indicators.Update()
	if err := self.leds.Write(on, off); err != nil {
		self.log.Error(errors.Annotate(err, "indicators"))
	}
}
