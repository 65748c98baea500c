// Package connection drives the scan-QR pairing handshake of a messaging
// channel: it initiates the connect request and polls the status endpoint
// until the remote side reaches a terminal status.
package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NextMind-AI/dashsync/api"
	"github.com/NextMind-AI/dashsync/clock"
	"github.com/NextMind-AI/dashsync/execution"
	"github.com/NextMind-AI/dashsync/metrics"
	"github.com/NextMind-AI/dashsync/notify"
	"github.com/rs/zerolog/log"
)

const DefaultPollInterval = time.Second

var ErrEmptySettingID = errors.New("setting id is required")

// Endpoint is the subset of the backend the poller talks to. *api.Client
// implements it.
type Endpoint interface {
	Connect(ctx context.Context, settingID string) (*api.ConnectResponse, error)
	Restart(ctx context.Context, settingID string) (*api.ConnectResponse, error)
	Status(ctx context.Context, settingID string) (*api.StatusResponse, error)
}

type Options struct {
	Clock    clock.Clock
	Notifier notify.Notifier
	Store    Store
	Interval time.Duration
	// Tasks holds the poll loop context, keyed by setting id. Pollers built
	// by a Registry share one manager.
	Tasks    *execution.Manager
	OnChange func(Session)
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.Real{}
	}
	if o.Notifier == nil {
		o.Notifier = notify.Logger{Component: "connection"}
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.Tasks == nil {
		o.Tasks = execution.NewManager()
	}
	return o
}

type Poller struct {
	settingID string
	endpoint  Endpoint
	opts      Options

	mu         sync.Mutex
	session    Session
	initiating bool
	initCancel context.CancelFunc
	epoch      int
	loopCtx    context.Context
	timer      clock.Timer
}

// effects are applied after the poller lock is released.
type effects struct {
	changed bool
	notices []notify.Notice
}

func (e *effects) notify(kind notify.Kind, message string) {
	e.notices = append(e.notices, notify.Notice{Kind: kind, Message: message})
}

func NewPoller(settingID string, endpoint Endpoint, opts Options) *Poller {
	opts = opts.withDefaults()
	return &Poller{
		settingID: strings.TrimSpace(settingID),
		endpoint:  endpoint,
		opts:      opts,
		session: Session{
			SettingID: strings.TrimSpace(settingID),
			Status:    StatusInactive,
			Message:   statusMessage(StatusInactive, ""),
			UpdatedAt: opts.Clock.Now(),
		},
	}
}

func (p *Poller) SettingID() string {
	return p.settingID
}

// Session returns a snapshot of the current state.
func (p *Poller) Session() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// restore seeds the poller with a persisted snapshot. Loops never survive a
// restart, so the restored session is never polling.
func (p *Poller) restore(s Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.SettingID = p.settingID
	s.IsPolling = false
	p.session = s
}

// Initiate starts (or restarts) pairing. Calls made while an initiation is
// in flight or a poll loop is running are no-ops returning the current
// session.
func (p *Poller) Initiate(ctx context.Context, mode Mode) (Session, error) {
	if p.settingID == "" {
		return Session{}, ErrEmptySettingID
	}

	p.mu.Lock()
	if p.initiating || p.session.IsPolling {
		current := p.session
		p.mu.Unlock()
		log.Debug().Str("setting_id", p.settingID).Msg("Initiate ignored, pairing already in progress")
		return current, nil
	}

	callCtx, cancel := context.WithCancel(ctx)
	p.initiating = true
	p.initCancel = cancel
	epoch := p.epoch
	p.session.Status = StatusInitializing
	p.session.Message = statusMessage(StatusInitializing, "")
	p.session.QRCode = ""
	p.session.Error = ""
	p.session.Connected = false
	p.session.UpdatedAt = p.opts.Clock.Now()
	p.mu.Unlock()
	p.apply(effects{changed: true})

	log.Info().
		Str("setting_id", p.settingID).
		Str("mode", string(mode)).
		Msg("Initiating channel connection")

	var resp *api.ConnectResponse
	var err error
	if mode == ModeRestart {
		resp, err = p.endpoint.Restart(callCtx, p.settingID)
	} else {
		resp, err = p.endpoint.Connect(callCtx, p.settingID)
	}
	cancel()

	var fx effects
	p.mu.Lock()
	if p.epoch != epoch {
		current := p.session
		p.mu.Unlock()
		log.Debug().Str("setting_id", p.settingID).Msg("Discarding connect response after cancel")
		return current, nil
	}
	p.initiating = false
	p.initCancel = nil

	if err != nil {
		p.failLocked(&fx, fmt.Sprintf("Failed to connect: %v", err))
		log.Error().Err(err).Str("setting_id", p.settingID).Msg("Connect request failed")
	} else {
		p.adoptLocked(resp.Status, resp.QRCode, resp.Message)
		p.transitionLocked(&fx)
	}
	current := p.session
	p.mu.Unlock()

	p.apply(fx)
	return current, nil
}

// Reconnect re-initiates pairing through the restart endpoint. It is the
// manual action offered for disconnected sessions.
func (p *Poller) Reconnect(ctx context.Context) (Session, error) {
	return p.Initiate(ctx, ModeRestart)
}

// Cancel stops the poll loop and discards any in-flight response. A pairing
// that was still in progress is reset to INACTIVE so its QR code is not
// offered again. It is idempotent and safe to call regardless of state.
func (p *Poller) Cancel() {
	p.mu.Lock()
	p.epoch++
	if p.initCancel != nil {
		p.initCancel()
		p.initCancel = nil
	}
	wasInitiating := p.initiating
	p.initiating = false
	wasPolling := p.session.IsPolling
	p.stopLocked()
	if wasInitiating || wasPolling {
		p.session.Status = StatusInactive
		p.session.Message = statusMessage(StatusInactive, "")
		p.session.QRCode = ""
		p.session.Error = ""
		p.session.UpdatedAt = p.opts.Clock.Now()
	}
	p.mu.Unlock()

	if wasPolling || wasInitiating {
		log.Info().Str("setting_id", p.settingID).Msg("Connection polling cancelled")
		p.apply(effects{changed: true})
	}
}

func (p *Poller) pollOnce(loopCtx context.Context) {
	p.mu.Lock()
	if !p.loopActiveLocked(loopCtx) {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.mu.Unlock()

	resp, err := p.endpoint.Status(loopCtx, p.settingID)

	var fx effects
	p.mu.Lock()
	if !p.loopActiveLocked(loopCtx) {
		p.mu.Unlock()
		log.Debug().Str("setting_id", p.settingID).Msg("Discarding status response after cancel")
		return
	}

	if err != nil {
		metrics.RecordPoll("transport_error")
		p.failLocked(&fx, fmt.Sprintf("Failed to check connection status: %v", err))
		log.Error().Err(err).Str("setting_id", p.settingID).Msg("Status poll failed")
	} else {
		status := NormalizeStatus(resp.Status)
		metrics.RecordPoll(string(status))
		p.adoptLocked(resp.Status, resp.QRCode, resp.Message)
		p.transitionLocked(&fx)
	}
	p.mu.Unlock()

	p.apply(fx)
}

// transitionLocked acts on the status just adopted: terminal statuses stop
// the loop and notify, anything else keeps (or starts) polling.
func (p *Poller) transitionLocked(fx *effects) {
	fx.changed = true
	status := p.session.Status

	switch {
	case status.Connected():
		p.stopLocked()
		p.session.Connected = true
		p.session.Error = ""
		p.session.QRCode = ""
		metrics.RecordOutcome(string(status))
		fx.notify(notify.KindSuccess, "WhatsApp connected successfully")
		log.Info().Str("setting_id", p.settingID).Str("status", string(status)).Msg("Channel connected")

	case status == StatusAuthFailure:
		p.stopLocked()
		p.session.QRCode = ""
		p.session.Error = "Authentication failed. Please try connecting again."
		metrics.RecordOutcome(string(status))
		fx.notify(notify.KindError, p.session.Error)
		log.Warn().Str("setting_id", p.settingID).Msg("Channel authentication failed")

	case status == StatusError:
		p.stopLocked()
		p.session.QRCode = ""
		p.session.Error = "Connection failed: " + p.session.Message
		metrics.RecordOutcome(string(status))
		fx.notify(notify.KindError, p.session.Error)
		log.Warn().Str("setting_id", p.settingID).Str("message", p.session.Message).Msg("Channel reported an error")

	default:
		p.scheduleLocked()
	}
}

// scheduleLocked arms the next poll, starting the loop if it is not running.
func (p *Poller) scheduleLocked() {
	if !p.session.IsPolling {
		p.loopCtx = p.opts.Tasks.Start(p.settingID)
		p.session.IsPolling = true
		metrics.ActivePollLoops.Inc()
		log.Info().Str("setting_id", p.settingID).Dur("interval", p.opts.Interval).Msg("Connection polling started")
	}
	loopCtx := p.loopCtx
	p.timer = p.opts.Clock.AfterFunc(p.opts.Interval, func() {
		p.pollOnce(loopCtx)
	})
}

func (p *Poller) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.loopCtx != nil {
		p.opts.Tasks.Cleanup(p.settingID, p.loopCtx)
		p.loopCtx = nil
	}
	if p.session.IsPolling {
		p.session.IsPolling = false
		metrics.ActivePollLoops.Dec()
	}
}

func (p *Poller) loopActiveLocked(loopCtx context.Context) bool {
	return p.session.IsPolling && p.loopCtx == loopCtx && p.opts.Tasks.Current(p.settingID, loopCtx)
}

func (p *Poller) failLocked(fx *effects, message string) {
	p.stopLocked()
	p.session.Status = StatusError
	p.session.Connected = false
	p.session.QRCode = ""
	p.session.Error = message
	p.session.Message = message
	p.session.UpdatedAt = p.opts.Clock.Now()
	metrics.RecordOutcome(string(StatusError))
	fx.changed = true
	fx.notify(notify.KindError, message)
}

func (p *Poller) adoptLocked(rawStatus, qrCode, message string) {
	status := NormalizeStatus(rawStatus)
	p.session.Status = status
	p.session.Message = statusMessage(status, message)
	if qrCode != "" {
		p.session.QRCode = qrCode
	}
	p.session.UpdatedAt = p.opts.Clock.Now()
}

func (p *Poller) apply(fx effects) {
	for _, notice := range fx.notices {
		p.opts.Notifier.Notify(notice.Kind, notice.Message)
	}
	if !fx.changed {
		return
	}

	snapshot := p.Session()
	if p.opts.Store != nil {
		if err := p.opts.Store.Save(context.Background(), snapshot); err != nil {
			log.Warn().Err(err).Str("setting_id", p.settingID).Msg("Failed to persist connection session")
		}
	}
	if p.opts.OnChange != nil {
		p.opts.OnChange(snapshot)
	}
}
