package security

import (
	"context"

	"github.com/hostdeck/panel/backend/internal/hostexec"
	"github.com/hostdeck/panel/backend/internal/logger"
)

// Firewall mirrors bans into the host packet filter.
type Firewall interface {
	Block(ctx context.Context, ip string) error
	Unblock(ctx context.Context, ip string) error
}

// maxRuleCopies bounds Unblock when older runs left duplicate rules behind.
const maxRuleCopies = 16

// IPTablesFirewall inserts and deletes DROP rules on the INPUT chain. Block is
// idempotent: the rule is inserted only when `iptables -C` does not find it.
type IPTablesFirewall struct {
	Runner hostexec.Runner
}

func NewIPTablesFirewall(r hostexec.Runner) *IPTablesFirewall {
	return &IPTablesFirewall{Runner: r}
}

func dropRule(op, ip string) []string {
	return []string{op, "INPUT", "-s", ip, "-j", "DROP"}
}

func (f *IPTablesFirewall) hasRule(ctx context.Context, ip string) bool {
	_, err := f.Runner.Run(ctx, "iptables", dropRule("-C", ip)...)
	return err == nil
}

func (f *IPTablesFirewall) Block(ctx context.Context, ip string) error {
	if f.hasRule(ctx, ip) {
		return nil
	}
	_, err := f.Runner.Run(ctx, "iptables", dropRule("-I", ip)...)
	return err
}

// Unblock removes every copy of the DROP rule for ip.
func (f *IPTablesFirewall) Unblock(ctx context.Context, ip string) error {
	for i := 0; i < maxRuleCopies && f.hasRule(ctx, ip); i++ {
		if _, err := f.Runner.Run(ctx, "iptables", dropRule("-D", ip)...); err != nil {
			return err
		}
	}
	return nil
}

// NoopFirewall only logs. Used when firewall enforcement is disabled.
type NoopFirewall struct{}

func (NoopFirewall) Block(_ context.Context, ip string) error {
	logger.Log().WithField("ip", ip).Debug("firewall enforcement disabled, skipping block")
	return nil
}

func (NoopFirewall) Unblock(_ context.Context, ip string) error {
	logger.Log().WithField("ip", ip).Debug("firewall enforcement disabled, skipping unblock")
	return nil
}
