// Package security tracks failed logins per source address, keeps the
// in-memory IP ban list and runs the host security checklist.
package security

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hostdeck/panel/backend/internal/hostexec"
	"github.com/hostdeck/panel/backend/internal/logger"
)

const (
	DefaultBanThreshold = 5
	DefaultBanDuration  = time.Hour
)

// BanRecord describes one banned address. A nil ExpiresAt means the ban is permanent.
type BanRecord struct {
	IP             string     `json:"ip"`
	Reason         string     `json:"reason"`
	BannedAt       time.Time  `json:"banned_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	FailedAttempts int        `json:"failed_attempts"`
}

// Permanent reports whether the ban never expires.
func (r BanRecord) Permanent() bool { return r.ExpiresAt == nil }

func (r BanRecord) expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// Hooks are invoked after state changes, outside the manager lock.
type Hooks struct {
	OnBan   func(rec BanRecord, automatic bool)
	OnUnban func(ip string)
}

// Manager is safe for concurrent use. Ban state lives only in memory and is
// lost on restart; the firewall is a best-effort mirror of it.
type Manager struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	bans     map[string]BanRecord
	attempts map[string]int

	threshold   int
	banDuration time.Duration

	firewall Firewall
	runner   hostexec.Runner
	files    hostexec.FileInspector
	hooks    Hooks
	now      func() time.Time
	log      *logrus.Entry
}

// Option configures a Manager.
type Option func(*Manager)

func WithFirewall(fw Firewall) Option {
	return func(m *Manager) {
		if fw != nil {
			m.firewall = fw
		}
	}
}

func WithRunner(r hostexec.Runner) Option {
	return func(m *Manager) {
		if r != nil {
			m.runner = r
		}
	}
}

func WithFiles(f hostexec.FileInspector) Option {
	return func(m *Manager) {
		if f != nil {
			m.files = f
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithThreshold sets how many consecutive failures trigger an automatic ban.
func WithThreshold(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.threshold = n
		}
	}
}

// WithBanDuration sets the lifetime of automatic bans.
func WithBanDuration(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.banDuration = d
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(m *Manager) { m.hooks = h }
}

// NewManager builds a Manager. Without options it uses the host command
// runner, the local filesystem and a firewall that only logs.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		bans:        make(map[string]BanRecord),
		attempts:    make(map[string]int),
		threshold:   DefaultBanThreshold,
		banDuration: DefaultBanDuration,
		firewall:    NoopFirewall{},
		runner:      hostexec.NewExecRunner(hostexec.DefaultTimeout),
		files:       hostexec.OSFiles{},
		now:         time.Now,
		log:         logger.Component("security"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordLoginAttempt updates the failure counter for ip. A success resets the
// counter but does not lift an existing ban. Reaching the threshold bans ip.
func (m *Manager) RecordLoginAttempt(ctx context.Context, ip string, success bool) {
	m.mu.Lock()
	if success {
		delete(m.attempts, ip)
		m.mu.Unlock()
		return
	}

	m.attempts[ip]++
	count := m.attempts[ip]
	if count < m.threshold {
		m.mu.Unlock()
		m.log.WithFields(logrus.Fields{"ip": ip, "failures": count}).Debug("failed login recorded")
		return
	}
	rec := m.banLocked(ip, fmt.Sprintf("%d consecutive failures", count), m.banDuration)
	m.mu.Unlock()

	m.afterBan(ctx, rec, true)
}

// BanIP bans ip for duration, or permanently when duration is zero. An
// existing ban for ip is replaced.
func (m *Manager) BanIP(ctx context.Context, ip, reason string, duration time.Duration) BanRecord {
	m.mu.Lock()
	rec := m.banLocked(ip, reason, duration)
	m.mu.Unlock()

	m.afterBan(ctx, rec, false)
	return rec
}

func (m *Manager) banLocked(ip, reason string, duration time.Duration) BanRecord {
	now := m.now()
	rec := BanRecord{
		IP:             ip,
		Reason:         reason,
		BannedAt:       now,
		FailedAttempts: m.attempts[ip],
	}
	if duration > 0 {
		exp := now.Add(duration)
		rec.ExpiresAt = &exp
	}
	m.bans[ip] = rec
	delete(m.attempts, ip)
	return rec
}

func (m *Manager) afterBan(ctx context.Context, rec BanRecord, automatic bool) {
	fields := logrus.Fields{"ip": rec.IP, "reason": rec.Reason, "automatic": automatic, "permanent": rec.Permanent()}
	m.log.WithFields(fields).Warn("ip banned")

	if err := m.firewall.Block(ctx, rec.IP); err != nil {
		m.log.WithError(err).WithField("ip", rec.IP).Error("firewall block failed")
	}
	if m.hooks.OnBan != nil {
		m.hooks.OnBan(rec, automatic)
	}
}

// UnbanIP lifts the ban for ip. Unbanning an unknown address is a no-op apart
// from the firewall call.
func (m *Manager) UnbanIP(ctx context.Context, ip string) {
	m.mu.Lock()
	_, existed := m.bans[ip]
	delete(m.bans, ip)
	m.mu.Unlock()

	m.afterUnban(ctx, ip, existed)
}

func (m *Manager) afterUnban(ctx context.Context, ip string, existed bool) {
	if err := m.firewall.Unblock(ctx, ip); err != nil {
		m.log.WithError(err).WithField("ip", ip).Error("firewall unblock failed")
	}
	if !existed {
		return
	}
	m.log.WithField("ip", ip).Info("ip unbanned")
	if m.hooks.OnUnban != nil {
		m.hooks.OnUnban(ip)
	}
}

// IsIPBanned reports whether ip is currently banned. An expired record found
// here is removed as if UnbanIP had been called.
func (m *Manager) IsIPBanned(ctx context.Context, ip string) bool {
	m.mu.Lock()
	rec, ok := m.bans[ip]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if !rec.expired(m.now()) {
		m.mu.Unlock()
		return true
	}
	delete(m.bans, ip)
	m.mu.Unlock()

	// Called on the request path; the firewall command must not hold it up.
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.afterUnban(context.WithoutCancel(ctx), ip, true)
	}()
	return false
}

// Wait blocks until background firewall updates have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// BannedIPs returns a snapshot of every stored record ordered by ban time.
// Expired records that have not been swept yet are included.
func (m *Manager) BannedIPs() []BanRecord {
	m.mu.Lock()
	out := make([]BanRecord, 0, len(m.bans))
	for _, rec := range m.bans {
		out = append(out, rec)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].BannedAt.Equal(out[j].BannedAt) {
			return out[i].IP < out[j].IP
		}
		return out[i].BannedAt.Before(out[j].BannedAt)
	})
	return out
}

// FailedAttempts returns the pending failure count for ip.
func (m *Manager) FailedAttempts(ip string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[ip]
}

// CleanExpiredBans removes every expired ban and returns the lifted addresses.
// Permanent bans are never removed.
func (m *Manager) CleanExpiredBans(ctx context.Context) []string {
	m.mu.Lock()
	now := m.now()
	var expired []string
	for ip, rec := range m.bans {
		if rec.expired(now) {
			delete(m.bans, ip)
			expired = append(expired, ip)
		}
	}
	m.mu.Unlock()

	sort.Strings(expired)
	for _, ip := range expired {
		m.afterUnban(ctx, ip, true)
	}
	if len(expired) > 0 {
		m.log.WithField("count", len(expired)).Info("expired bans cleaned")
	}
	return expired
}
