package query

import "context"

// EstimateFee forwards to the node's fee estimator for confTarget.
// Returns ok=false for an unrecognized target or if the node itself
// has no estimate (insufficient recent block history).
func (q *Query) EstimateFee(ctx context.Context, confTarget int) (rate float32, ok bool, err error) {
	if !isRecognizedConfTarget(confTarget) {
		return 0, false, nil
	}
	return q.node.EstimateSmartFee(ctx, confTarget)
}

// EstimateFeeTargets returns a fee-rate estimate for every recognized
// conf_target the node was able to estimate; targets the node couldn't
// estimate are simply absent from the result.
func (q *Query) EstimateFeeTargets(ctx context.Context) (map[int]float32, error) {
	out := make(map[int]float32, len(ConfTargets))
	for _, target := range ConfTargets {
		rate, ok, err := q.node.EstimateSmartFee(ctx, target)
		if err != nil {
			return nil, err
		}
		if ok {
			out[target] = rate
		}
	}
	return out, nil
}

func isRecognizedConfTarget(target int) bool {
	for _, t := range ConfTargets {
		if t == target {
			return true
		}
	}
	return false
}
