package security

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hostdeck/panel/backend/internal/hostexec"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
)

// CheckResult is one line of the security checklist.
type CheckResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       Level  `json:"level"`
	Status      Status `json:"status"`
	Suggestion  string `json:"suggestion,omitempty"`
	Details     string `json:"details,omitempty"`
}

const (
	sshdConfigPath = "/etc/ssh/sshd_config"
	authLogPath    = "/var/log/auth.log"

	maxUpgradable    = 10
	maxListenSockets = 20
	maxFailedLogins  = 50
	authLogWindow    = 100
	topProcesses     = 5
)

var suspiciousPatterns = []string{"miner", "xmrig", "cryptonight", "malware"}

type outcome struct {
	Level      Level
	Status     Status
	Suggestion string
	Details    string
}

type check struct {
	ID          string
	Name        string
	Description string
	// returned when run fails or panics
	WarnLevel   Level
	WarnDetails string
	run         func(ctx context.Context) (outcome, error)
}

func (m *Manager) checks() []check {
	return []check{
		{"ssh_config", "SSH configuration", "Checks whether the SSH daemon configuration is hardened", LevelMedium, "unable to read SSH configuration", m.checkSSHConfig},
		{"firewall_status", "Firewall status", "Checks whether a host firewall is enabled", LevelMedium, "unable to detect firewall status", m.checkFirewall},
		{"system_updates", "System updates", "Checks for pending package upgrades", LevelLow, "unable to detect pending updates", m.checkUpdates},
		{"weak_passwords", "Weak passwords", "Checks whether system users rely on weak passwords", LevelMedium, "", m.checkWeakPasswords},
		{"open_ports", "Open ports", "Checks the number of listening network sockets", LevelLow, "unable to detect open ports", m.checkOpenPorts},
		{"suspicious_processes", "Suspicious processes", "Checks the busiest processes for known miners and malware", LevelLow, "unable to inspect processes", m.checkProcesses},
		{"file_permissions", "File permissions", "Checks permissions on critical system files", LevelLow, "unable to inspect file permissions", m.checkFilePermissions},
		{"system_logs", "System logs", "Checks the authentication log for failed logins", LevelLow, "unable to read system logs", m.checkSystemLogs},
	}
}

// RunSecurityCheck runs every inspection in a fixed order. A failing
// inspection yields a warning result and the remaining ones still run.
func (m *Manager) RunSecurityCheck(ctx context.Context) []CheckResult {
	defs := m.checks()
	results := make([]CheckResult, 0, len(defs))
	for _, def := range defs {
		results = append(results, m.runCheck(ctx, def))
	}
	m.log.WithField("checks", len(results)).Info("security check completed")
	return results
}

func (m *Manager) runCheck(ctx context.Context, def check) (res CheckResult) {
	res = CheckResult{ID: def.ID, Name: def.Name, Description: def.Description}

	defer func() {
		if r := recover(); r != nil {
			m.log.WithField("check", def.ID).Errorf("security check panicked: %v", r)
			res.Level, res.Status, res.Suggestion, res.Details = def.WarnLevel, StatusWarning, "", def.WarnDetails
		}
	}()

	out, err := def.run(ctx)
	if err != nil {
		m.log.WithError(err).WithField("check", def.ID).Warn("security check degraded")
		res.Level, res.Status, res.Details = def.WarnLevel, StatusWarning, def.WarnDetails
		return res
	}
	res.Level, res.Status, res.Suggestion, res.Details = out.Level, out.Status, out.Suggestion, out.Details
	return res
}

func (m *Manager) checkSSHConfig(_ context.Context) (outcome, error) {
	raw, err := m.files.ReadFile(sshdConfigPath)
	if err != nil {
		return outcome{}, err
	}

	rootLogin := false
	customPort := false
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "permitrootlogin":
			if strings.EqualFold(fields[1], "yes") {
				rootLogin = true
			}
		case "port":
			if fields[1] != "22" {
				customPort = true
			}
		}
	}

	if rootLogin || !customPort {
		return outcome{
			Level:      LevelHigh,
			Status:     StatusFail,
			Suggestion: "disable direct root login, move SSH off port 22 and use key authentication",
			Details:    fmt.Sprintf("root login: %s, default port: %s", allowed(rootLogin), yesNo(!customPort)),
		}, nil
	}
	return outcome{Level: LevelLow, Status: StatusPass}, nil
}

func (m *Manager) checkFirewall(ctx context.Context) (outcome, error) {
	ufwOut, ufwErr := m.runner.Run(ctx, "ufw", "status")
	if ufwErr == nil && strings.Contains(ufwOut, "Status: active") {
		return outcome{Level: LevelLow, Status: StatusPass, Details: "ufw firewall is active"}, nil
	}

	fwdOut, fwdErr := m.runner.Run(ctx, "firewall-cmd", "--state")
	state := strings.TrimSpace(fwdOut)
	if fwdErr == nil && state == "running" {
		return outcome{Level: LevelLow, Status: StatusPass, Details: "firewalld is running"}, nil
	}
	// firewall-cmd exits non-zero when stopped
	if state == "not running" {
		fwdErr = nil
	}

	if probeFailed(ufwErr) || probeFailed(fwdErr) {
		return outcome{}, errors.Join(ufwErr, fwdErr)
	}

	return outcome{
		Level:      LevelHigh,
		Status:     StatusFail,
		Suggestion: "enable a host firewall to protect the server",
	}, nil
}

// probeFailed reports an error other than the binary being absent.
func probeFailed(err error) bool {
	return err != nil && !errors.Is(err, hostexec.ErrNotFound)
}

func (m *Manager) checkUpdates(ctx context.Context) (outcome, error) {
	out, err := m.runner.Run(ctx, "apt", "list", "--upgradable")
	if err != nil {
		return outcome{}, err
	}
	count := countLines(out, func(line string) bool { return strings.Contains(line, "upgradable from") })
	if count > maxUpgradable {
		return outcome{
			Level:      LevelMedium,
			Status:     StatusWarning,
			Suggestion: fmt.Sprintf("%d packages can be upgraded, update the system soon", count),
			Details:    fmt.Sprintf("pending upgrades: %d", count),
		}, nil
	}
	return outcome{Level: LevelLow, Status: StatusPass, Details: "installed packages are up to date"}, nil
}

func (m *Manager) checkWeakPasswords(_ context.Context) (outcome, error) {
	return outcome{
		Level:      LevelMedium,
		Status:     StatusWarning,
		Suggestion: "review user passwords regularly and enforce a strong password policy",
		Details:    "require at least 8 characters mixing upper and lower case letters, digits and symbols",
	}, nil
}

func (m *Manager) checkOpenPorts(ctx context.Context) (outcome, error) {
	out, err := m.runner.Run(ctx, "ss", "-tuln")
	if err != nil {
		return outcome{}, err
	}
	count := countLines(out, func(line string) bool { return strings.Contains(line, "LISTEN") })
	details := fmt.Sprintf("listening sockets: %d", count)
	if count > maxListenSockets {
		return outcome{
			Level:      LevelMedium,
			Status:     StatusWarning,
			Suggestion: "many ports are open, stop services that are not needed",
			Details:    details,
		}, nil
	}
	return outcome{Level: LevelLow, Status: StatusPass, Details: details}, nil
}

func (m *Manager) checkProcesses(ctx context.Context) (outcome, error) {
	out, err := m.runner.Run(ctx, "ps", "aux", "--sort=-%cpu")
	if err != nil {
		return outcome{}, err
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > topProcesses {
		lines = lines[:topProcesses]
	}

	var suspicious []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, pattern := range suspiciousPatterns {
			if strings.Contains(lower, pattern) {
				suspicious = append(suspicious, strings.TrimSpace(line))
				break
			}
		}
	}
	if len(suspicious) > 0 {
		return outcome{
			Level:      LevelCritical,
			Status:     StatusFail,
			Suggestion: "suspicious processes found, inspect and terminate them immediately",
			Details:    "suspicious processes: " + strings.Join(suspicious, ", "),
		}, nil
	}
	return outcome{Level: LevelLow, Status: StatusPass}, nil
}

func (m *Manager) checkFilePermissions(_ context.Context) (outcome, error) {
	var issues []string
	for _, path := range []string{"/etc/passwd", "/etc/shadow", sshdConfigPath} {
		mode, err := m.files.Stat(path)
		if err != nil {
			continue
		}
		perm := mode.Perm()
		if path == "/etc/shadow" && perm != 0o000 && perm != 0o400 {
			issues = append(issues, fmt.Sprintf("%s permissions too open: %03o", path, uint32(perm)))
		}
	}
	if len(issues) > 0 {
		return outcome{
			Level:      LevelHigh,
			Status:     StatusFail,
			Suggestion: "tighten permissions on the listed files",
			Details:    strings.Join(issues, "; "),
		}, nil
	}
	return outcome{Level: LevelLow, Status: StatusPass}, nil
}

func (m *Manager) checkSystemLogs(_ context.Context) (outcome, error) {
	raw, err := m.files.ReadFile(authLogPath)
	if err != nil {
		return outcome{}, err
	}
	count := countLines(string(raw), func(line string) bool { return strings.Contains(line, "Failed password") })
	if count > authLogWindow {
		count = authLogWindow
	}
	if count > maxFailedLogins {
		return outcome{
			Level:      LevelHigh,
			Status:     StatusFail,
			Suggestion: "many failed logins detected, the host may be under a brute-force attack",
			Details:    fmt.Sprintf("%d failed logins in the last %d entries", count, authLogWindow),
		}, nil
	}
	return outcome{Level: LevelLow, Status: StatusPass}, nil
}

func countLines(s string, match func(string) bool) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if match(line) {
			n++
		}
	}
	return n
}

func allowed(b bool) string {
	if b {
		return "allowed"
	}
	return "denied"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
