// Package extract turns typed source records into the plain-text content
// strings that get embedded. Extraction is pure: same record in, same
// string out.
package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/CryptiqueAI/cryptique-mvp/engine/domain"
)

// topPageCount limits the page-view breakdown in analytics summaries.
const topPageCount = 5

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Analytics renders an analytics rollup as embeddable text.
func Analytics(r domain.AnalyticsRecord) string {
	parts := []string{
		fmt.Sprintf("Site ID: %s", orUnknown(r.SiteID)),
		fmt.Sprintf("Total Visitors: %d", r.TotalVisitors),
		fmt.Sprintf("Unique Visitors: %d", r.UniqueVisitors),
		fmt.Sprintf("Web3 Visitors: %d", r.Web3Visitors),
		fmt.Sprintf("Wallets Connected: %d", r.WalletsConnected),
		fmt.Sprintf("Total Page Views: %d", r.TotalPageViews),
	}

	if len(r.PageViews) > 0 {
		parts = append(parts, "Top Pages: "+topPages(r.PageViews, topPageCount))
	}
	if n := len(r.UserJourneys); n > 0 {
		parts = append(parts, fmt.Sprintf("User Journeys: %d", n))
	}

	return strings.Join(parts, " | ")
}

// topPages lists the n most-viewed pages, highest first. Ties break on
// page path so output is stable across runs.
func topPages(views map[string]int, n int) string {
	type pv struct {
		page  string
		views int
	}
	ranked := make([]pv, 0, len(views))
	for page, v := range views {
		ranked = append(ranked, pv{page, v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].views != ranked[j].views {
			return ranked[i].views > ranked[j].views
		}
		return ranked[i].page < ranked[j].page
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, p := range ranked {
		out[i] = fmt.Sprintf("%s: %d", p.page, p.views)
	}
	return strings.Join(out, ", ")
}

// Session renders a session record as embeddable text.
func Session(r domain.SessionRecord) string {
	parts := []string{
		fmt.Sprintf("Site ID: %s", orUnknown(r.SiteID)),
		fmt.Sprintf("User ID: %s", orUnknown(r.UserID)),
		fmt.Sprintf("Duration: %s seconds", strconv.FormatFloat(r.Duration, 'f', -1, 64)),
		fmt.Sprintf("Pages Viewed: %d", r.PagesViewed),
		fmt.Sprintf("Is Bounce: %t", r.IsBounce),
		fmt.Sprintf("Is Web3 User: %t", r.IsWeb3User),
	}

	if r.Browser.Name != "" {
		parts = append(parts, fmt.Sprintf("Browser: %s", r.Browser.Name))
	}
	if r.Device.Type != "" {
		parts = append(parts, fmt.Sprintf("Device: %s", r.Device.Type))
	}
	if r.Wallet.WalletAddress != "" {
		parts = append(parts,
			fmt.Sprintf("Wallet: %s", orUnknown(r.Wallet.WalletType)),
			fmt.Sprintf("Chain: %s", orUnknown(r.Wallet.ChainName)))
	}
	if r.UTM.Source != "" {
		parts = append(parts, fmt.Sprintf("UTM Source: %s", r.UTM.Source))
	}
	if r.UTM.Medium != "" {
		parts = append(parts, fmt.Sprintf("UTM Medium: %s", r.UTM.Medium))
	}

	return strings.Join(parts, " | ")
}

// Transaction renders an on-chain transaction as embeddable text.
func Transaction(r domain.TransactionRecord) string {
	value := r.ValueETH
	if value == "" {
		value = "0"
	}
	parts := []string{
		fmt.Sprintf("Contract ID: %s", orUnknown(r.ContractID)),
		fmt.Sprintf("Transaction Hash: %s", orUnknown(r.TxHash)),
		fmt.Sprintf("From Address: %s", orUnknown(r.FromAddress)),
		fmt.Sprintf("To Address: %s", orUnknown(r.ToAddress)),
		fmt.Sprintf("Value ETH: %s", value),
		fmt.Sprintf("Gas Used: %d", r.GasUsed),
		fmt.Sprintf("Status: %s", orUnknown(r.Status)),
	}

	if r.TokenName != "" {
		parts = append(parts, fmt.Sprintf("Token: %s", r.TokenName))
	}
	if r.TokenSymbol != "" {
		parts = append(parts, fmt.Sprintf("Symbol: %s", r.TokenSymbol))
	}
	if r.Chain != "" {
		parts = append(parts, fmt.Sprintf("Chain: %s", r.Chain))
	}
	if r.BlockNumber != 0 {
		parts = append(parts, fmt.Sprintf("Block: %d", r.BlockNumber))
	}

	return strings.Join(parts, " | ")
}

// Content extracts embeddable text for a raw document by source type.
func Content(source domain.SourceType, doc map[string]any) (string, error) {
	switch source {
	case domain.SourceAnalytics:
		r, err := domain.AnalyticsFromDoc(doc)
		if err != nil {
			return "", err
		}
		return Analytics(r), nil
	case domain.SourceSessions:
		r, err := domain.SessionFromDoc(doc)
		if err != nil {
			return "", err
		}
		return Session(r), nil
	case domain.SourceTransactions:
		r, err := domain.TransactionFromDoc(doc)
		if err != nil {
			return "", err
		}
		return Transaction(r), nil
	}
	return "", domain.NewValidationError("source", string(source), domain.ErrUnknownSource)
}
