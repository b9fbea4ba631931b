package jupiter

// SwapInfo describes a single AMM leg of a route.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// RoutePlanStep is one leg of the route plan with its percentage share
// of the trade.
type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// Quote is the aggregator's answer to a quote request. It is immutable
// once returned; a re-quote produces a new value, never mutates an old
// one.
type Quote struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`
	ContextSlot          uint64          `json:"contextSlot"`
	TimeTaken            float64         `json:"timeTaken"`
}

// swapRequest is the POST body for the swap-build endpoint.
type swapRequest struct {
	QuoteResponse *Quote `json:"quoteResponse"`
	UserPublicKey string `json:"userPublicKey"`
	FeeAccount    string `json:"feeAccount"`
	FeeBps        int    `json:"feeBps"`
}

// SwapTransaction carries the base64-encoded signable payload returned
// by the swap-build endpoint.
type SwapTransaction struct {
	SwapTransaction string `json:"swapTransaction"`
}
