package models

// OpportunitiesRequest filters the ranked opportunity listing.
type OpportunitiesRequest struct {
	Limit int `query:"limit" default:"15" validate:"gte=0,lte=100"`
}

// ConfirmationsRequest filters the tracked confirmation records.
type ConfirmationsRequest struct {
	Symbol string `query:"symbol"`
	State  string `query:"state" validate:"omitempty,oneof=PENDING CONFIRMED REJECTED"`
}

// HistoryRequest queries the archived records.
type HistoryRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}
