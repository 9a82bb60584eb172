package domain

// PositionStatus is the lifecycle state of a position.
// Transitions OPEN -> CLOSED exactly once; no mutation after CLOSED.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// ExitReason tags why a position was closed.
type ExitReason string

const (
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitStopLoss   ExitReason = "STOP_LOSS"
)

// Position tracks a held asset from acquisition to exit.
// Owned exclusively by the position ledger.
type Position struct {
	PositionID      string // deterministic hash, see idhash
	Mint            string
	Units           float64
	CostBasisSOL    float64
	CurrentValueSOL *float64 // last sweep valuation (nullable before first sweep)
	PnLSOL          *float64 // currentValue - costBasis
	PnLPct          *float64 // pnlSOL / costBasis * 100
	Status          PositionStatus
	ExitReason      ExitReason // set when Status is CLOSED
	OpenedAt        int64      // Unix timestamp in milliseconds
	ClosedAt        *int64     // Unix timestamp in milliseconds (nullable while OPEN)
}

// IsOpen reports whether the position is still held.
func (p *Position) IsOpen() bool {
	return p.Status == PositionOpen
}
