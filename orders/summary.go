package orders

import "math"

// StatusRules decides which order statuses count as approved and delivered.
type StatusRules struct {
	Approved  []string
	Delivered []string
}

// DefaultStatusRules returns the RetailCRM status sets.
func DefaultStatusRules() StatusRules {
	return StatusRules{
		Approved:  append([]string(nil), DefaultApprovedStatuses...),
		Delivered: append([]string(nil), DefaultDeliveredStatuses...),
	}
}

// Summarize counts approved and delivered orders. The approval rate is
// relative to all orders and the delivery rate to approved orders, both
// rounded to two decimals and zero when the denominator is zero.
func Summarize(list []Order, rules StatusRules) Summary {
	approved := toSet(rules.Approved)
	delivered := toSet(rules.Delivered)

	s := Summary{TotalOrders: len(list)}
	for _, o := range list {
		if _, ok := approved[o.Status]; ok {
			s.ApprovedOrders++
		}
		if _, ok := delivered[o.Status]; ok {
			s.DeliveredOrders++
		}
	}
	if s.TotalOrders > 0 {
		s.ApprovalRate = round2(float64(s.ApprovedOrders) / float64(s.TotalOrders) * 100)
	}
	if s.ApprovedOrders > 0 {
		s.DeliveryRate = round2(float64(s.DeliveredOrders) / float64(s.ApprovedOrders) * 100)
	}
	return s
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
