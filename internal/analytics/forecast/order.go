package forecast

import (
	"errors"
	"fmt"
)

// WeeklyPeriod is the seasonal period used by the candidate grid.
const WeeklyPeriod = 7

// SarimaOrder identifies a SARIMA(p,d,q)(P,D,Q,s) model.
type SarimaOrder struct {
	P  int `json:"p"`
	D  int `json:"d"`
	Q  int `json:"q"`
	SP int `json:"seasonal_p"`
	SD int `json:"seasonal_d"`
	SQ int `json:"seasonal_q"`
	S  int `json:"period"`
}

// Validate rejects negative orders and a missing period when a seasonal term is set.
func (o SarimaOrder) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 {
		return fmt.Errorf("invalid order %s: negative component", o)
	}
	if (o.SP > 0 || o.SD > 0 || o.SQ > 0) && o.S < 1 {
		return errors.New("invalid order: seasonal terms require a period of at least 1")
	}
	return nil
}

// String renders the order as SARIMA(p,d,q)(P,D,Q,s).
func (o SarimaOrder) String() string {
	return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.S)
}

// MaxLag is the first residual index: max(p, q), or 1 when both are zero.
func (o SarimaOrder) MaxLag() int {
	lag := o.P
	if o.Q > lag {
		lag = o.Q
	}
	if lag == 0 {
		return 1
	}
	return lag
}

// ParameterCount is the k used by the information criteria.
func (o SarimaOrder) ParameterCount() int {
	return o.P + o.Q + o.SP + o.SQ + 1
}

// CandidateOrders returns the fixed grid searched by SelectBest, in search order.
// The returned slice is a fresh copy.
func CandidateOrders() []SarimaOrder {
	s := WeeklyPeriod
	return []SarimaOrder{
		{P: 1, D: 1, Q: 1, SP: 1, SD: 0, SQ: 1, S: s},
		{P: 1, D: 1, Q: 1, SP: 0, SD: 0, SQ: 0, S: s},
		{P: 2, D: 1, Q: 2, SP: 1, SD: 0, SQ: 1, S: s},
		{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, S: s},
		{P: 0, D: 1, Q: 1, SP: 0, SD: 0, SQ: 1, S: s},
		{P: 2, D: 1, Q: 1, SP: 1, SD: 0, SQ: 1, S: s},
		{P: 1, D: 1, Q: 2, SP: 1, SD: 0, SQ: 1, S: s},
		{P: 3, D: 1, Q: 1, SP: 1, SD: 0, SQ: 1, S: s},
		{P: 1, D: 1, Q: 3, SP: 1, SD: 0, SQ: 1, S: s},
		{P: 2, D: 1, Q: 2, SP: 0, SD: 0, SQ: 0, S: s},
		{P: 1, D: 1, Q: 1, SP: 2, SD: 0, SQ: 1, S: s},
		{P: 1, D: 1, Q: 1, SP: 1, SD: 0, SQ: 2, S: s},
		{P: 0, D: 1, Q: 2, SP: 0, SD: 0, SQ: 1, S: s},
		{P: 2, D: 1, Q: 0, SP: 1, SD: 0, SQ: 1, S: s},
		{P: 0, D: 1, Q: 3, SP: 0, SD: 0, SQ: 1, S: s},
	}
}
