package report

// Summary is the headline figures over the whole expense collection.
type Summary struct {
	TotalCount    int     `json:"total_count"`
	TotalAmount   float64 `json:"total_amount"`
	PendingCount  int     `json:"pending_count"`
	ApprovedCount int     `json:"approved_count"`
	RejectedCount int     `json:"rejected_count"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

type DateTotal struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type PayerTotal struct {
	Payer  string  `json:"payer"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}
