package domain

import (
	"errors"
	"testing"
)

func TestSourceTypeImportance(t *testing.T) {
	cases := []struct {
		source SourceType
		want   int
	}{
		{SourceAnalytics, 7},
		{SourceSessions, 6},
		{SourceTransactions, 8},
		{SourceType("unknown"), 5},
	}
	for _, tc := range cases {
		if got := tc.source.Importance(); got != tc.want {
			t.Errorf("Importance(%s) = %d, want %d", tc.source, got, tc.want)
		}
	}
}

func TestSourceTypeDataType(t *testing.T) {
	cases := []struct {
		source SourceType
		want   string
	}{
		{SourceAnalytics, "analytics"},
		{SourceSessions, "session"},
		{SourceTransactions, "transaction"},
	}
	for _, tc := range cases {
		if got := tc.source.DataType(); got != tc.want {
			t.Errorf("DataType(%s) = %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestValidateAnalytics(t *testing.T) {
	valid := AnalyticsRecord{ID: "a1", SiteID: "site-1", TotalVisitors: 10}
	if err := ValidateAnalytics(valid); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*AnalyticsRecord)
		wantErr error
	}{
		{"missing id", func(r *AnalyticsRecord) { r.ID = "" }, ErrMissingID},
		{"missing site", func(r *AnalyticsRecord) { r.SiteID = "" }, ErrMissingSiteID},
		{"negative visitors", func(r *AnalyticsRecord) { r.TotalVisitors = -1 }, ErrNegativeCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid
			tc.mutate(&r)
			err := ValidateAnalytics(r)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := TransactionRecord{ID: "t1", TxHash: "0xabc", GasUsed: 21000}
	if err := ValidateTransaction(valid); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	noTx := valid
	noTx.TxHash = ""
	if err := ValidateTransaction(noTx); !errors.Is(err, ErrMissingTxHash) {
		t.Errorf("got %v, want ErrMissingTxHash", err)
	}
}

func TestValidateDispatch(t *testing.T) {
	doc := map[string]any{"_id": "s1", "siteId": "site-1", "userId": "u1", "duration": 12.5}
	if err := Validate(SourceSessions, doc); err != nil {
		t.Fatalf("valid session rejected: %v", err)
	}
	if err := Validate(SourceType("bogus"), doc); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("got %v, want ErrUnknownSource", err)
	}
}

func TestFromDocRoundTrip(t *testing.T) {
	doc := map[string]any{
		"_id":           "a1",
		"siteId":        "site-1",
		"totalVisitors": float64(42),
		"pageViews":     map[string]any{"/home": float64(30), "/docs": float64(12)},
	}
	r, err := AnalyticsFromDoc(doc)
	if err != nil {
		t.Fatalf("AnalyticsFromDoc: %v", err)
	}
	if r.ID != "a1" || r.SiteID != "site-1" || r.TotalVisitors != 42 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.PageViews["/home"] != 30 {
		t.Errorf("pageViews not decoded: %+v", r.PageViews)
	}
}
