package fundamental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerComparisonMidpointPercentile(t *testing.T) {
	target := &Metrics{PE: fp(10)}
	peers := []*Metrics{{PE: fp(5)}, {PE: fp(10)}, {PE: fp(15)}}

	got := PeerComparison(target, peers)

	// one below, one equal: (1 + 0.5) / 3 * 100
	require.NotNil(t, got["pe"])
	assert.InDelta(t, 50.0, *got["pe"], 1e-9)
}

func TestPeerComparisonTopOfRange(t *testing.T) {
	target := &Metrics{ROE: fp(0.3)}
	peers := []*Metrics{{ROE: fp(0.1)}, {ROE: fp(0.2)}}

	got := PeerComparison(target, peers)

	require.NotNil(t, got["roe"])
	assert.InDelta(t, 100.0, *got["roe"], 1e-9)
}

func TestPeerComparisonNilTargetMetric(t *testing.T) {
	target := &Metrics{PE: fp(10)}
	peers := []*Metrics{{PE: fp(5), PB: fp(2)}}

	got := PeerComparison(target, peers)

	assert.Nil(t, got["pb"], "target has no PB so no percentile")
	assert.NotNil(t, got["pe"])
}

func TestPeerComparisonSkipsPeersMissingMetric(t *testing.T) {
	target := &Metrics{PE: fp(10)}
	peers := []*Metrics{{PE: fp(20)}, {PB: fp(2)}}

	got := PeerComparison(target, peers)

	require.NotNil(t, got["pe"])
	assert.InDelta(t, 0.0, *got["pe"], 1e-9)
}

func TestPeerComparisonNoPeers(t *testing.T) {
	got := PeerComparison(&Metrics{PE: fp(10)}, nil)

	assert.Len(t, got, len(MetricNames))
	for name, v := range got {
		assert.Nil(t, v, name)
	}
}
