package redirect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/internal/property"
	"github.com/WankioM/property-qr/internal/repository/memory"
	"github.com/WankioM/property-qr/internal/testutil"
	"github.com/WankioM/property-qr/pkg/logger"
)

var testConfig = Config{
	DaobitatBaseURL:           "https://daobitat.test/",
	BlockchainExplorerBaseURL: "https://explorer.test",
	ServiceBaseURL:            "https://qr.test",
}

func newEngine(t *testing.T, props ...*models.Property) (*Engine, *testutil.Recorder) {
	t.Helper()
	repo := memory.NewStore()
	for _, p := range props {
		repo.AddProperty(p)
	}
	clk := testutil.FixedClock()
	log := logger.NewNopLogger()
	recorder := &testutil.Recorder{}
	return NewEngine(property.NewService(repo, clk, log), recorder, clk, log, testConfig), recorder
}

func TestResolveRedirectType(t *testing.T) {
	onchain := testutil.NewOnchainProperty("p1", "0xabc").QrInfo()
	offchain := testutil.NewProperty("p2").QrInfo()

	tests := []struct {
		name string
		hint string
		info *models.PropertyQrInfo
		want models.RedirectType
	}{
		{"property hint", HintProperty, onchain, models.RedirectDaobitarOnly},
		{"blockchain hint with onchain id", HintBlockchain, onchain, models.RedirectBlockchainOnly},
		{"blockchain hint falls back", HintBlockchain, offchain, models.RedirectDaobitarOnly},
		{"dual hint with onchain id", HintDual, onchain, models.RedirectDual},
		{"dual hint without onchain id", HintDual, offchain, models.RedirectDaobitarOnly},
		{"no hint with onchain id", "", onchain, models.RedirectDual},
		{"no hint without onchain id", "", offchain, models.RedirectDaobitarOnly},
		{"unknown hint", "sideways", onchain, models.RedirectDual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRedirectType(tt.hint, tt.info))
		})
	}
}

func TestResolveRedirectTypeEmptyOnchainID(t *testing.T) {
	p := testutil.NewOnchainProperty("p1", "")
	assert.Equal(t, models.RedirectDaobitarOnly, ResolveRedirectType(HintBlockchain, p.QrInfo()))
	assert.Equal(t, models.RedirectDaobitarOnly, ResolveRedirectType("", p.QrInfo()))
}

func TestHandleScanPropertyRedirect(t *testing.T) {
	engine, recorder := newEngine(t, testutil.NewProperty("p1"))

	decision := engine.HandleScan(context.Background(), ScanRequest{
		PropertyID: "p1",
		SourceHint: "share",
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0)",
		IPAddress:  "10.0.0.1",
		SessionID:  "sess-1",
		Metadata:   map[string]string{"utm_source": "flyer"},
	})

	assert.True(t, decision.IsRedirect())
	assert.Equal(t, "https://daobitat.test/property/p1", decision.Location)
	assert.Equal(t, models.RedirectDaobitarOnly, decision.RedirectType)
	assert.Equal(t, "scan-1", decision.ScanID)
	assert.Nil(t, decision.Landing)

	require.Len(t, recorder.Scans, 1)
	scan := recorder.Scans[0]
	assert.Equal(t, models.ScanSourceShareLink, scan.Source)
	assert.Equal(t, models.RedirectDaobitarOnly, scan.RedirectType)
	assert.True(t, scan.RedirectSuccess)
	assert.Equal(t, "sess-1", scan.SessionID)
	assert.Equal(t, "flyer", scan.Metadata["utm_source"])
	require.NotNil(t, scan.ResponseTimeMs)
	assert.Equal(t, int64(0), *scan.ResponseTimeMs)
	assert.Equal(t, []string{"p1"}, recorder.Clicks)
}

func TestHandleScanBlockchainRedirect(t *testing.T) {
	engine, _ := newEngine(t, testutil.NewOnchainProperty("p1", "0xabc"))

	decision := engine.HandleScan(context.Background(), ScanRequest{PropertyID: "p1", RedirectHint: HintBlockchain})

	assert.Equal(t, models.RedirectBlockchainOnly, decision.RedirectType)
	assert.Equal(t, "https://explorer.test/token/0xabc", decision.Location)
}

func TestHandleScanDualLanding(t *testing.T) {
	engine, recorder := newEngine(t, testutil.NewOnchainProperty("p1", "0xabc"))

	decision := engine.HandleScan(context.Background(), ScanRequest{PropertyID: "p1", SourceHint: "bogus"})

	assert.False(t, decision.IsRedirect())
	assert.Equal(t, models.RedirectDual, decision.RedirectType)
	require.NotNil(t, decision.Landing)
	landing := decision.Landing
	assert.Equal(t, "Garden Villa p1", landing.PropertyName)
	assert.Equal(t, "https://daobitat.test/property/p1", landing.PropertyURL)
	assert.Equal(t, "https://explorer.test/token/0xabc", landing.BlockchainURL)
	assert.Equal(t, "https://img.test/p1/1.jpg", landing.PrimaryImage)
	assert.True(t, landing.IsVerified)
	assert.True(t, landing.CryptoAccepted)
	assert.Equal(t, decision.ScanID, landing.ScanID)

	require.Len(t, recorder.Scans, 1)
	assert.Equal(t, models.ScanSourceQrCode, recorder.Scans[0].Source)
}

func TestHandleScanPropertyNotFound(t *testing.T) {
	removed := testutil.NewProperty("gone")
	yes := true
	removed.Removed = &yes
	engine, recorder := newEngine(t, removed)

	for _, id := range []string{"missing", "gone", "bad id"} {
		t.Run(id, func(t *testing.T) {
			decision := engine.HandleScan(context.Background(), ScanRequest{PropertyID: id, IPAddress: "10.0.0.1"})
			assert.Equal(t, models.RedirectFailed, decision.RedirectType)
			assert.Equal(t, MessagePropertyNotFound, decision.Message)
			assert.False(t, decision.IsRedirect())
			assert.NotEmpty(t, decision.ScanID)
		})
	}

	assert.Empty(t, recorder.Scans)
	assert.Empty(t, recorder.Clicks)
	require.Len(t, recorder.Failed, 3)
	assert.Equal(t, MessagePropertyNotFound, recorder.Failed[0].ErrorReason)
	assert.Equal(t, "10.0.0.1", recorder.Failed[0].IPAddress)
}

func TestHandleScanPropertyNotFoundKeepsTracking(t *testing.T) {
	engine, recorder := newEngine(t)

	engine.HandleScan(context.Background(), ScanRequest{
		PropertyID: "missing",
		SessionID:  "sess-9",
		Referrer:   "https://flyer.test",
		Metadata:   map[string]string{"ref": "window", "utm_campaign": "spring"},
	})

	require.Len(t, recorder.Failed, 1)
	failed := recorder.Failed[0]
	assert.Equal(t, "sess-9", failed.SessionID)
	assert.Equal(t, "https://flyer.test", failed.Referrer)
	assert.Equal(t, map[string]string{"ref": "window", "utm_campaign": "spring"}, failed.Metadata)
	assert.Equal(t, testutil.FixedClock().Now(), failed.ScannedAt)
}

func TestScanData(t *testing.T) {
	engine, recorder := newEngine(t, testutil.NewOnchainProperty("p1", "0xabc"), testutil.NewProperty("p2"))
	ctx := context.Background()

	resp, err := engine.ScanData(ctx, ScanRequest{PropertyID: "p1"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "dual", resp.RedirectType)
	assert.Equal(t, "https://daobitat.test/property/p1", resp.URLs.PropertyURL)
	require.NotNil(t, resp.URLs.BlockchainURL)
	assert.Equal(t, "https://explorer.test/token/0xabc", *resp.URLs.BlockchainURL)
	assert.Equal(t, "https://qr.test/scan/p1", resp.URLs.RedirectPageURL)
	assert.Equal(t, "scan-1", resp.ScanID)

	resp, err = engine.ScanData(ctx, ScanRequest{PropertyID: "p2"})
	require.NoError(t, err)
	assert.Equal(t, "property", resp.RedirectType)
	assert.Nil(t, resp.URLs.BlockchainURL)

	_, err = engine.ScanData(ctx, ScanRequest{PropertyID: "missing"})
	require.Error(t, err)
	assert.Equal(t, models.KindNotFound, models.ErrorKindOf(err))

	assert.Len(t, recorder.Scans, 2)
	assert.Empty(t, recorder.Failed)
}
