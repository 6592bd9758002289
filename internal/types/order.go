package types

// OrderInput is one deposit leg of an order: amount of assetKey pulled from
// the caller into custody. Amount is a base-10 integer string in token base
// units.
type OrderInput struct {
	AssetKey string `json:"asset_key" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// OrderOutput is a desired output asset with a minimum-acceptable-amount
// hint, forwarded verbatim to the execution service.
type OrderOutput struct {
	AssetKey  string `json:"asset_key" binding:"required"`
	MinOutput string `json:"min_output" binding:"required"`
}

// RelayInstruction is an optional opaque call the execution service may
// perform after routing. Data is hex encoded.
type RelayInstruction struct {
	Target string `json:"target"`
	Value  string `json:"value"`
	Data   string `json:"data"`
}

// Order bundles deposit legs, desired outputs and an optional relay
// instruction. Recipient receives the execution output downstream.
type Order struct {
	Inputs    []OrderInput      `json:"inputs" binding:"required"`
	Outputs   []OrderOutput     `json:"outputs" binding:"required"`
	Relay     *RelayInstruction `json:"relay,omitempty"`
	Recipient string            `json:"recipient" binding:"required"`
}

// Route is the opaque routing-step list forwarded to the execution service
// alongside the order.
type Route struct {
	Steps []RouteStep `json:"steps"`
}

// RouteStep is a single opaque routing hop. The service does not interpret
// it.
type RouteStep struct {
	Venue string `json:"venue"`
	Data  string `json:"data"`
}
