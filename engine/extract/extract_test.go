package extract

import (
	"strings"
	"testing"

	"github.com/CryptiqueAI/cryptique-mvp/engine/domain"
)

func TestAnalyticsContent(t *testing.T) {
	r := domain.AnalyticsRecord{
		ID:             "a1",
		SiteID:         "site-1",
		TotalVisitors:  100,
		UniqueVisitors: 80,
		Web3Visitors:   25,
		TotalPageViews: 340,
		PageViews: map[string]int{
			"/home": 120, "/docs": 90, "/pricing": 60,
			"/blog": 40, "/about": 20, "/contact": 10,
		},
		UserJourneys: []any{1, 2, 3},
	}
	got := Analytics(r)

	if !strings.HasPrefix(got, "Site ID: site-1 | Total Visitors: 100") {
		t.Errorf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "Top Pages: /home: 120, /docs: 90, /pricing: 60, /blog: 40, /about: 20") {
		t.Errorf("top pages wrong or unordered: %q", got)
	}
	if strings.Contains(got, "/contact") {
		t.Errorf("should keep only top 5 pages: %q", got)
	}
	if !strings.Contains(got, "User Journeys: 3") {
		t.Errorf("missing journey count: %q", got)
	}
}

func TestAnalyticsContentDeterministic(t *testing.T) {
	r := domain.AnalyticsRecord{
		SiteID:    "s",
		PageViews: map[string]int{"/a": 5, "/b": 5, "/c": 5, "/d": 5},
	}
	first := Analytics(r)
	for i := 0; i < 20; i++ {
		if got := Analytics(r); got != first {
			t.Fatalf("non-deterministic output: %q vs %q", got, first)
		}
	}
}

func TestSessionContent(t *testing.T) {
	r := domain.SessionRecord{
		ID:          "s1",
		SiteID:      "site-1",
		UserID:      "u1",
		Duration:    12.5,
		PagesViewed: 4,
		IsWeb3User:  true,
	}
	r.Browser.Name = "Firefox"
	r.Wallet.WalletAddress = "0xabc"
	r.Wallet.WalletType = "metamask"
	r.Wallet.ChainName = "ethereum"
	r.UTM.Source = "twitter"

	got := Session(r)
	for _, want := range []string{
		"Duration: 12.5 seconds",
		"Is Bounce: false",
		"Is Web3 User: true",
		"Browser: Firefox",
		"Wallet: metamask | Chain: ethereum",
		"UTM Source: twitter",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "Device:") {
		t.Errorf("empty device should be omitted: %q", got)
	}
}

func TestSessionWalletRequiresAddress(t *testing.T) {
	r := domain.SessionRecord{SiteID: "s", UserID: "u"}
	r.Wallet.WalletType = "metamask" // no address recorded
	if got := Session(r); strings.Contains(got, "Wallet:") {
		t.Errorf("wallet without address should be omitted: %q", got)
	}
}

func TestTransactionContent(t *testing.T) {
	r := domain.TransactionRecord{
		ID:          "t1",
		ContractID:  "c1",
		TxHash:      "0xdeadbeef",
		FromAddress: "0xfrom",
		ToAddress:   "0xto",
		ValueETH:    "1.25",
		GasUsed:     21000,
		Status:      "success",
		TokenSymbol: "USDC",
		BlockNumber: 1234567,
	}
	got := Transaction(r)
	for _, want := range []string{
		"Contract ID: c1",
		"Transaction Hash: 0xdeadbeef",
		"Value ETH: 1.25",
		"Gas Used: 21000",
		"Symbol: USDC",
		"Block: 1234567",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "Token:") {
		t.Errorf("empty token name should be omitted: %q", got)
	}
}

func TestTransactionEmptyValueDefaults(t *testing.T) {
	got := Transaction(domain.TransactionRecord{ID: "t", TxHash: "0x1"})
	if !strings.Contains(got, "Value ETH: 0") {
		t.Errorf("empty value should render as 0: %q", got)
	}
	if !strings.Contains(got, "From Address: unknown") {
		t.Errorf("missing fields should render unknown: %q", got)
	}
}

func TestContentDispatch(t *testing.T) {
	doc := map[string]any{"_id": "a1", "siteId": "site-9", "totalVisitors": float64(7)}
	got, err := Content(domain.SourceAnalytics, doc)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if !strings.Contains(got, "Site ID: site-9") {
		t.Errorf("unexpected content: %q", got)
	}
	if _, err := Content(domain.SourceType("nope"), doc); err == nil {
		t.Error("expected error for unknown source")
	}
}
