package domain

import "fmt"

// ValidateAnalytics checks an analytics rollup before it is embedded.
func ValidateAnalytics(r AnalyticsRecord) error {
	if r.ID == "" {
		return NewValidationError("_id", "", ErrMissingID)
	}
	if r.SiteID == "" {
		return NewValidationError("siteId", "", ErrMissingSiteID)
	}
	if r.TotalVisitors < 0 {
		return NewValidationError("totalVisitors", fmt.Sprintf("%d", r.TotalVisitors), ErrNegativeCount)
	}
	if r.TotalPageViews < 0 {
		return NewValidationError("totalPageViews", fmt.Sprintf("%d", r.TotalPageViews), ErrNegativeCount)
	}
	return nil
}

// ValidateSession checks a session record before it is embedded.
func ValidateSession(r SessionRecord) error {
	if r.ID == "" {
		return NewValidationError("_id", "", ErrMissingID)
	}
	if r.SiteID == "" {
		return NewValidationError("siteId", "", ErrMissingSiteID)
	}
	if r.Duration < 0 {
		return NewValidationError("duration", fmt.Sprintf("%g", r.Duration), ErrNegativeCount)
	}
	if r.PagesViewed < 0 {
		return NewValidationError("pagesViewed", fmt.Sprintf("%d", r.PagesViewed), ErrNegativeCount)
	}
	return nil
}

// ValidateTransaction checks a transaction record before it is embedded.
func ValidateTransaction(r TransactionRecord) error {
	if r.ID == "" {
		return NewValidationError("_id", "", ErrMissingID)
	}
	if r.TxHash == "" {
		return NewValidationError("tx_hash", "", ErrMissingTxHash)
	}
	if r.GasUsed < 0 {
		return NewValidationError("gas_used", fmt.Sprintf("%d", r.GasUsed), ErrNegativeCount)
	}
	return nil
}

// Validate dispatches validation for a raw document by source type.
func Validate(source SourceType, doc map[string]any) error {
	switch source {
	case SourceAnalytics:
		r, err := AnalyticsFromDoc(doc)
		if err != nil {
			return err
		}
		return ValidateAnalytics(r)
	case SourceSessions:
		r, err := SessionFromDoc(doc)
		if err != nil {
			return err
		}
		return ValidateSession(r)
	case SourceTransactions:
		r, err := TransactionFromDoc(doc)
		if err != nil {
			return err
		}
		return ValidateTransaction(r)
	}
	return NewValidationError("source", string(source), ErrUnknownSource)
}
