// Package forecast estimates how likely a transaction is to end in a drain.
package forecast

import "github.com/opensource-finance/preflight/internal/domain"

// Simulate maps the transaction type, the interim contract-risk estimate and
// whether the transaction is linked to known scam activity onto a drain
// probability and attack window. It is deterministic.
func Simulate(txType domain.TxType, estimate int, scamLinked bool) domain.ForecastSignals {
	switch {
	case txType == domain.TxApprove:
		return approve(estimate, scamLinked)
	case txType == domain.TxSwap:
		return swap(estimate, scamLinked)
	case txType.IsSend():
		return send(estimate, scamLinked)
	default:
		return domain.ForecastSignals{}
	}
}

// An approval stays exploitable until revoked, so the window is long unless
// the spender is already known to be hostile.
func approve(estimate int, scamLinked bool) domain.ForecastSignals {
	switch {
	case scamLinked:
		return signals(0.85, 10)
	case estimate >= 70:
		return signals(0.70, 50)
	case estimate >= 50:
		return signals(0.45, 100)
	case estimate >= 30:
		return signals(0.25, 500)
	default:
		return signals(0.05, 1000)
	}
}

func swap(estimate int, scamLinked bool) domain.ForecastSignals {
	switch {
	case scamLinked:
		return signals(0.90, 1)
	case estimate > 60:
		return signals(0.60, 5)
	case estimate > 30:
		return signals(0.20, 50)
	default:
		return signals(0.03, 0)
	}
}

func send(estimate int, scamLinked bool) domain.ForecastSignals {
	switch {
	case scamLinked:
		return signals(0.95, 1)
	case estimate > 50:
		return signals(0.30, 10)
	default:
		return signals(0.01, 0)
	}
}

func signals(p float64, blocks int) domain.ForecastSignals {
	return domain.ForecastSignals{DrainProbability: p, AttackWindowBlocks: blocks}
}
