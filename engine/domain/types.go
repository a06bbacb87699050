// Package domain defines the source-record types flowing through the vector
// migration engine and their validation rules.
package domain

import "encoding/json"

// SourceType identifies a migratable data source.
type SourceType string

const (
	SourceAnalytics    SourceType = "analytics"
	SourceSessions     SourceType = "sessions"
	SourceTransactions SourceType = "transactions"
)

// AllSources lists the supported sources in default migration order.
func AllSources() []SourceType {
	return []SourceType{SourceAnalytics, SourceSessions, SourceTransactions}
}

// Collection returns the backing collection name for the source.
func (s SourceType) Collection() string { return string(s) }

// DataType is the singular label used in embedding context and vector
// document metadata.
func (s SourceType) DataType() string {
	switch s {
	case SourceAnalytics:
		return "analytics"
	case SourceSessions:
		return "session"
	case SourceTransactions:
		return "transaction"
	}
	return string(s)
}

// Importance is the fixed context weight (out of 10) per source.
func (s SourceType) Importance() int {
	switch s {
	case SourceAnalytics:
		return 7
	case SourceSessions:
		return 6
	case SourceTransactions:
		return 8
	}
	return 5
}

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceAnalytics, SourceSessions, SourceTransactions:
		return true
	}
	return false
}

// AnalyticsRecord is a per-site analytics rollup.
type AnalyticsRecord struct {
	ID               string         `json:"_id"`
	SiteID           string         `json:"siteId"`
	TeamID           string         `json:"teamId,omitempty"`
	TotalVisitors    int            `json:"totalVisitors"`
	UniqueVisitors   int            `json:"uniqueVisitors"`
	Web3Visitors     int            `json:"web3Visitors"`
	WalletsConnected int            `json:"walletsConnected"`
	TotalPageViews   int            `json:"totalPageViews"`
	PageViews        map[string]int `json:"pageViews,omitempty"`
	UserJourneys     []any          `json:"userJourneys,omitempty"`
	CreatedAt        string         `json:"createdAt,omitempty"`
}

// SessionRecord is one tracked visitor session.
type SessionRecord struct {
	ID          string  `json:"_id"`
	SiteID      string  `json:"siteId"`
	TeamID      string  `json:"teamId,omitempty"`
	UserID      string  `json:"userId"`
	Duration    float64 `json:"duration"`
	PagesViewed int     `json:"pagesViewed"`
	IsBounce    bool    `json:"isBounce"`
	IsWeb3User  bool    `json:"isWeb3User"`
	Browser     struct {
		Name string `json:"name"`
	} `json:"browser,omitempty"`
	Device struct {
		Type string `json:"type"`
	} `json:"device,omitempty"`
	Wallet struct {
		WalletAddress string `json:"walletAddress"`
		WalletType    string `json:"walletType"`
		ChainName     string `json:"chainName"`
	} `json:"wallet,omitempty"`
	UTM struct {
		Source string `json:"source"`
		Medium string `json:"medium"`
	} `json:"utmData,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// TransactionRecord is one on-chain transaction tied to a tracked contract.
type TransactionRecord struct {
	ID          string `json:"_id"`
	ContractID  string `json:"contractId"`
	TeamID      string `json:"teamId,omitempty"`
	TxHash      string `json:"tx_hash"`
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	ValueETH    string `json:"value_eth"`
	GasUsed     int64  `json:"gas_used"`
	Status      string `json:"status"`
	TokenName   string `json:"token_name,omitempty"`
	TokenSymbol string `json:"token_symbol,omitempty"`
	Chain       string `json:"chain,omitempty"`
	BlockNumber int64  `json:"block_number,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// decode converts a schemaless document into a typed record via JSON.
func decode(doc map[string]any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// AnalyticsFromDoc decodes a stored analytics document.
func AnalyticsFromDoc(doc map[string]any) (AnalyticsRecord, error) {
	var r AnalyticsRecord
	err := decode(doc, &r)
	return r, err
}

// SessionFromDoc decodes a stored session document.
func SessionFromDoc(doc map[string]any) (SessionRecord, error) {
	var r SessionRecord
	err := decode(doc, &r)
	return r, err
}

// TransactionFromDoc decodes a stored transaction document.
func TransactionFromDoc(doc map[string]any) (TransactionRecord, error) {
	var r TransactionRecord
	err := decode(doc, &r)
	return r, err
}
