package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	beforeAuto := testutil.ToFloat64(bansTotal.WithLabelValues("automatic"))
	beforeManual := testutil.ToFloat64(bansTotal.WithLabelValues("manual"))
	beforeBlocked := testutil.ToFloat64(blockedRequestsTotal)

	IncBan(true)
	IncBan(false)
	IncBan(false)
	IncBlockedRequest()
	IncHTTPRequest("GET", "2xx")
	IncHTTPError()
	IncUnban()
	IncLoginFailure()

	assert.Equal(t, beforeAuto+1, testutil.ToFloat64(bansTotal.WithLabelValues("automatic")))
	assert.Equal(t, beforeManual+2, testutil.ToFloat64(bansTotal.WithLabelValues("manual")))
	assert.Equal(t, beforeBlocked+1, testutil.ToFloat64(blockedRequestsTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "hostdeck_ip_bans_total")
	assert.Contains(t, names, "hostdeck_http_requests_total")
}
