package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdeck/panel/backend/internal/hostexec"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type recordingFirewall struct {
	mu       sync.Mutex
	blocked  []string
	unblocks []string
	err      error
}

func (f *recordingFirewall) Block(_ context.Context, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked = append(f.blocked, ip)
	return f.err
}

func (f *recordingFirewall) Unblock(_ context.Context, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unblocks = append(f.unblocks, ip)
	return f.err
}

func (f *recordingFirewall) Unblocked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.unblocks...)
}

// blockingFirewall holds Unblock until release is closed.
type blockingFirewall struct {
	recordingFirewall
	release chan struct{}
}

func (f *blockingFirewall) Unblock(ctx context.Context, ip string) error {
	<-f.release
	return f.recordingFirewall.Unblock(ctx, ip)
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *fakeClock, *recordingFirewall) {
	t.Helper()
	clock := newFakeClock()
	fw := &recordingFirewall{}
	base := []Option{
		WithClock(clock.Now),
		WithFirewall(fw),
		WithRunner(hostexec.NewFakeRunner()),
		WithFiles(hostexec.NewFakeFiles()),
	}
	return NewManager(append(base, opts...)...), clock, fw
}

func TestRecordLoginAttempt_BansAtThreshold(t *testing.T) {
	ctx := context.Background()
	m, clock, fw := newTestManager(t)

	for i := 0; i < 4; i++ {
		m.RecordLoginAttempt(ctx, "10.0.0.1", false)
	}
	assert.False(t, m.IsIPBanned(ctx, "10.0.0.1"))
	assert.Equal(t, 4, m.FailedAttempts("10.0.0.1"))

	m.RecordLoginAttempt(ctx, "10.0.0.1", false)
	assert.True(t, m.IsIPBanned(ctx, "10.0.0.1"))
	assert.Equal(t, 0, m.FailedAttempts("10.0.0.1"))

	bans := m.BannedIPs()
	require.Len(t, bans, 1)
	assert.Equal(t, "10.0.0.1", bans[0].IP)
	assert.Equal(t, "5 consecutive failures", bans[0].Reason)
	assert.Equal(t, 5, bans[0].FailedAttempts)
	require.NotNil(t, bans[0].ExpiresAt)
	assert.Equal(t, clock.Now().Add(time.Hour), *bans[0].ExpiresAt)
	assert.Equal(t, []string{"10.0.0.1"}, fw.blocked)
}

func TestRecordLoginAttempt_SuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	for i := 0; i < 4; i++ {
		m.RecordLoginAttempt(ctx, "10.0.0.2", false)
	}
	m.RecordLoginAttempt(ctx, "10.0.0.2", true)
	assert.Equal(t, 0, m.FailedAttempts("10.0.0.2"))

	for i := 0; i < 4; i++ {
		m.RecordLoginAttempt(ctx, "10.0.0.2", false)
	}
	assert.False(t, m.IsIPBanned(ctx, "10.0.0.2"))
}

func TestRecordLoginAttempt_SuccessDoesNotUnban(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	m.BanIP(ctx, "10.0.0.3", "manual", time.Hour)
	m.RecordLoginAttempt(ctx, "10.0.0.3", true)
	assert.True(t, m.IsIPBanned(ctx, "10.0.0.3"))
}

func TestRecordLoginAttempt_CustomThreshold(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, WithThreshold(2), WithBanDuration(time.Minute))

	m.RecordLoginAttempt(ctx, "10.0.0.4", false)
	m.RecordLoginAttempt(ctx, "10.0.0.4", false)
	assert.True(t, m.IsIPBanned(ctx, "10.0.0.4"))
	assert.Equal(t, "2 consecutive failures", m.BannedIPs()[0].Reason)
}

func TestBanIP_CarriesPendingFailures(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	m.RecordLoginAttempt(ctx, "10.0.0.5", false)
	m.RecordLoginAttempt(ctx, "10.0.0.5", false)
	rec := m.BanIP(ctx, "10.0.0.5", "manual", 0)

	assert.Equal(t, 2, rec.FailedAttempts)
	assert.True(t, rec.Permanent())
	assert.Equal(t, 0, m.FailedAttempts("10.0.0.5"))
}

func TestBanExpiry_LazyQuery(t *testing.T) {
	ctx := context.Background()
	m, clock, fw := newTestManager(t)

	m.BanIP(ctx, "192.0.2.1", "test", 100*time.Millisecond)
	assert.True(t, m.IsIPBanned(ctx, "192.0.2.1"))

	clock.Advance(150 * time.Millisecond)
	assert.Len(t, m.BannedIPs(), 1, "listing does not filter unswept records")
	assert.False(t, m.IsIPBanned(ctx, "192.0.2.1"))
	assert.Empty(t, m.BannedIPs())
	m.Wait()
	assert.Equal(t, []string{"192.0.2.1"}, fw.Unblocked())
}

func TestBanExpiry_LazyQueryDoesNotWaitForFirewall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := newFakeClock()
	fw := &blockingFirewall{release: make(chan struct{})}
	var unbanned []string
	var mu sync.Mutex
	m := NewManager(WithClock(clock.Now), WithFirewall(fw), WithHooks(Hooks{OnUnban: func(ip string) {
		mu.Lock()
		unbanned = append(unbanned, ip)
		mu.Unlock()
	}}))

	m.BanIP(ctx, "192.0.2.9", "test", time.Second)
	clock.Advance(2 * time.Second)

	done := make(chan bool, 1)
	go func() { done <- m.IsIPBanned(ctx, "192.0.2.9") }()
	select {
	case banned := <-done:
		assert.False(t, banned)
	case <-time.After(2 * time.Second):
		t.Fatal("IsIPBanned blocked on the firewall")
	}

	// The request context ending must not abort the pending unblock.
	cancel()
	close(fw.release)
	m.Wait()
	assert.Equal(t, []string{"192.0.2.9"}, fw.Unblocked())
	mu.Lock()
	assert.Equal(t, []string{"192.0.2.9"}, unbanned)
	mu.Unlock()
}

func TestBanExpiry_Sweep(t *testing.T) {
	ctx := context.Background()
	m, clock, _ := newTestManager(t)

	m.BanIP(ctx, "192.0.2.2", "test", 100*time.Millisecond)
	m.BanIP(ctx, "192.0.2.3", "forever", 0)

	clock.Advance(150 * time.Millisecond)
	removed := m.CleanExpiredBans(ctx)
	assert.Equal(t, []string{"192.0.2.2"}, removed)

	bans := m.BannedIPs()
	require.Len(t, bans, 1)
	assert.Equal(t, "192.0.2.3", bans[0].IP)
	assert.True(t, m.IsIPBanned(ctx, "192.0.2.3"))
}

func TestBanExpiry_RealClock(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithFirewall(&recordingFirewall{}))

	m.BanIP(ctx, "192.0.2.4", "test", 100*time.Millisecond)
	assert.True(t, m.IsIPBanned(ctx, "192.0.2.4"))

	time.Sleep(150 * time.Millisecond)
	m.CleanExpiredBans(ctx)
	assert.False(t, m.IsIPBanned(ctx, "192.0.2.4"))
}

func TestPermanentBanSurvivesSweep(t *testing.T) {
	ctx := context.Background()
	m, clock, _ := newTestManager(t)

	m.BanIP(ctx, "198.51.100.7", "abuse", 0)
	clock.Advance(365 * 24 * time.Hour)
	assert.Empty(t, m.CleanExpiredBans(ctx))
	assert.True(t, m.IsIPBanned(ctx, "198.51.100.7"))
}

func TestUnbanIP_Idempotent(t *testing.T) {
	ctx := context.Background()
	var unbanned []string
	m, _, fw := newTestManager(t, WithHooks(Hooks{OnUnban: func(ip string) { unbanned = append(unbanned, ip) }}))

	m.BanIP(ctx, "203.0.113.9", "test", time.Hour)
	m.UnbanIP(ctx, "203.0.113.9")
	m.UnbanIP(ctx, "203.0.113.9")

	assert.False(t, m.IsIPBanned(ctx, "203.0.113.9"))
	assert.Empty(t, m.BannedIPs())
	assert.Equal(t, []string{"203.0.113.9"}, unbanned)
	assert.Len(t, fw.unblocks, 2)
}

func TestFirewallFailureKeepsBan(t *testing.T) {
	ctx := context.Background()
	m, _, fw := newTestManager(t)
	fw.err = errors.New("iptables missing")

	m.BanIP(ctx, "203.0.113.10", "test", time.Hour)
	assert.True(t, m.IsIPBanned(ctx, "203.0.113.10"))
}

func TestBanHook(t *testing.T) {
	ctx := context.Background()
	type call struct {
		ip        string
		automatic bool
	}
	var calls []call
	m, _, _ := newTestManager(t, WithThreshold(1), WithHooks(Hooks{
		OnBan: func(rec BanRecord, automatic bool) { calls = append(calls, call{rec.IP, automatic}) },
	}))

	m.RecordLoginAttempt(ctx, "1.1.1.1", false)
	m.BanIP(ctx, "2.2.2.2", "manual", 0)
	assert.Equal(t, []call{{"1.1.1.1", true}, {"2.2.2.2", false}}, calls)
}

func TestBannedIPsOrdered(t *testing.T) {
	ctx := context.Background()
	m, clock, _ := newTestManager(t)

	m.BanIP(ctx, "10.1.0.2", "b", 0)
	clock.Advance(time.Second)
	m.BanIP(ctx, "10.1.0.1", "a", 0)

	bans := m.BannedIPs()
	require.Len(t, bans, 2)
	assert.Equal(t, "10.1.0.2", bans[0].IP)
	assert.Equal(t, "10.1.0.1", bans[1].IP)
}

func TestConcurrentFailures(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	bans := 0
	m, _, _ := newTestManager(t, WithHooks(Hooks{OnBan: func(BanRecord, bool) {
		mu.Lock()
		bans++
		mu.Unlock()
	}}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.RecordLoginAttempt(ctx, fmt.Sprintf("10.9.0.%d", n%2), false)
		}(i)
	}
	wg.Wait()

	// 25 failures per address at threshold 5 ban each address five times
	assert.Equal(t, 10, bans)
	assert.True(t, m.IsIPBanned(ctx, "10.9.0.0"))
	assert.True(t, m.IsIPBanned(ctx, "10.9.0.1"))
}

// iptablesState emulates the INPUT chain for -C/-I/-D on DROP rules.
type iptablesState struct {
	mu    sync.Mutex
	rules map[string]int
	calls []string
}

func (s *iptablesState) Run(_ context.Context, name string, args ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, args[0])
	ip := args[3]
	switch args[0] {
	case "-C":
		if s.rules[ip] == 0 {
			return "", errors.New("iptables: Bad rule (does a matching rule exist in that chain?)")
		}
	case "-I":
		s.rules[ip]++
	case "-D":
		if s.rules[ip] == 0 {
			return "", errors.New("iptables: Bad rule")
		}
		s.rules[ip]--
	}
	return "", nil
}

func TestIPTablesFirewall(t *testing.T) {
	ctx := context.Background()
	runner := hostexec.NewFakeRunner().
		OnError("iptables -C INPUT -s 10.0.0.1 -j DROP", errors.New("no rule")).
		On("iptables -I INPUT -s 10.0.0.1 -j DROP", "")
	fw := NewIPTablesFirewall(runner)

	require.NoError(t, fw.Block(ctx, "10.0.0.1"))
	require.NoError(t, fw.Unblock(ctx, "10.0.0.1"))
	assert.Error(t, fw.Block(ctx, "10.0.0.2"))
	assert.Equal(t, []string{
		"iptables -C INPUT -s 10.0.0.1 -j DROP",
		"iptables -I INPUT -s 10.0.0.1 -j DROP",
		"iptables -C INPUT -s 10.0.0.1 -j DROP",
		"iptables -C INPUT -s 10.0.0.2 -j DROP",
		"iptables -I INPUT -s 10.0.0.2 -j DROP",
	}, runner.Calls())
}

func TestIPTablesFirewall_RebanLeavesNoRuleBehind(t *testing.T) {
	ctx := context.Background()
	state := &iptablesState{rules: map[string]int{}}
	m := NewManager(WithFirewall(NewIPTablesFirewall(state)), WithThreshold(1))

	m.BanIP(ctx, "10.0.0.7", "manual", 0)
	m.BanIP(ctx, "10.0.0.7", "manual again", time.Hour)
	m.RecordLoginAttempt(ctx, "10.0.0.7", false)
	assert.Equal(t, 1, state.rules["10.0.0.7"])

	m.UnbanIP(ctx, "10.0.0.7")
	assert.Zero(t, state.rules["10.0.0.7"])
}

func TestIPTablesFirewall_UnblockRemovesDuplicates(t *testing.T) {
	ctx := context.Background()
	state := &iptablesState{rules: map[string]int{"10.0.0.8": 3}}
	fw := NewIPTablesFirewall(state)

	require.NoError(t, fw.Unblock(ctx, "10.0.0.8"))
	assert.Zero(t, state.rules["10.0.0.8"])
	require.NoError(t, fw.Unblock(ctx, "10.0.0.8"))
}

func TestNoopFirewall(t *testing.T) {
	var fw NoopFirewall
	assert.NoError(t, fw.Block(context.Background(), "1.2.3.4"))
	assert.NoError(t, fw.Unblock(context.Background(), "1.2.3.4"))
}
