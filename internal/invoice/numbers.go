package invoice

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// roleSkip marks a numeric token that is deliberately left unassigned.
const roleSkip ColumnRole = -1

// maxVATPercent is the largest bare number read as a VAT rate.
const maxVATPercent = 20

// positional is the role of each numeric token by count of tokens on the row.
var positional = map[int][]ColumnRole{
	1: {RoleAmountExclVAT},
	2: {RoleQuantity, RoleAmountExclVAT},
	3: {RoleQuantity, RoleRate, RoleAmountExclVAT},
	4: {RoleQuantity, RoleRate, RoleAmountExclVAT, RoleAmountInclVAT},
	5: {RoleQuantity, RoleRate, RoleAmountExclVAT, RoleVATAmount, RoleAmountInclVAT},
	6: {RoleQuantity, RoleRate, RoleAmountExclVAT, RoleVATPercent, RoleVATAmount, RoleAmountInclVAT},
}

// alternatives are layouts tried when arithmetic scoring is enabled.
var alternatives = map[int][][]ColumnRole{
	3: {{RoleAmountExclVAT, RoleVATAmount, RoleAmountInclVAT}},
	4: {{RoleQuantity, RoleRate, RoleAmountExclVAT, RoleVATAmount}},
	5: {{RoleQuantity, RoleRate, RoleAmountExclVAT, RoleVATPercent, RoleAmountInclVAT}},
	6: {{RoleQuantity, RoleRate, RoleAmountExclVAT, RoleVATAmount, RoleVATPercent, RoleAmountInclVAT}},
}

// positionalBinding returns the fixed layout for k tokens. Beyond six tokens
// the fourth repeats the net amount and replaces the third, and everything
// between the VAT rate and the last two tokens is ignored.
func positionalBinding(k int) []ColumnRole {
	if b, ok := positional[k]; ok {
		return b
	}
	if k < 7 {
		return nil
	}
	b := make([]ColumnRole, k)
	for i := range b {
		b[i] = roleSkip
	}
	b[0], b[1], b[2], b[3], b[4] = RoleQuantity, RoleRate, RoleAmountExclVAT, RoleAmountExclVAT, RoleVATPercent
	b[k-2], b[k-1] = RoleVATAmount, RoleAmountInclVAT
	return b
}

// binding picks the layout for nums. The positional layout wins unless
// scoring is on and an alternative satisfies strictly more arithmetic checks.
func (p *RowParser) binding(nums []string) []ColumnRole {
	best := positionalBinding(len(nums))
	if !p.scoring {
		return best
	}
	bestScore := arithmeticScore(nums, best)
	for _, alt := range alternatives[len(nums)] {
		if s := arithmeticScore(nums, alt); s > bestScore {
			best, bestScore = alt, s
		}
	}
	return best
}

func applyBinding(item *LineItem, nums []string, roles []ColumnRole, explicitPct string) {
	for i, role := range roles {
		if i >= len(nums) {
			break
		}
		v := nums[i]
		switch role {
		case RoleQuantity:
			item.Quantity = v
		case RoleRate:
			item.UnitRate = v
		case RoleAmountExclVAT:
			item.AmountExclVAT = v
		case RoleVATAmount:
			item.VATAmount = v
		case RoleAmountInclVAT:
			item.AmountInclVAT = v
		case RoleVATPercent:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f <= maxVATPercent {
				item.VATPercent = v + "%"
			}
		}
	}
	if explicitPct != "" {
		item.VATPercent = explicitPct + "%"
	}
}

var (
	hundred      = decimal.NewFromInt(100)
	minTolerance = decimal.NewFromFloat(0.05)
	relTolerance = decimal.NewFromFloat(0.01)
)

// arithmeticScore counts the invoice identities a layout satisfies. A total
// smaller than its net amount costs a point.
func arithmeticScore(nums []string, roles []ColumnRole) int {
	vals := make(map[ColumnRole]decimal.Decimal, len(roles))
	for i, role := range roles {
		if i >= len(nums) || role == roleSkip {
			continue
		}
		d, err := decimal.NewFromString(nums[i])
		if err != nil {
			continue
		}
		vals[role] = d
	}
	q, hasQ := vals[RoleQuantity]
	r, hasR := vals[RoleRate]
	e, hasE := vals[RoleAmountExclVAT]
	pct, hasPct := vals[RoleVATPercent]
	va, hasVA := vals[RoleVATAmount]
	inc, hasInc := vals[RoleAmountInclVAT]

	score := 0
	if hasQ && hasR && hasE && approxEqual(q.Mul(r), e) {
		score++
	}
	if hasE && hasPct && hasInc && approxEqual(e.Add(e.Mul(pct).Div(hundred)), inc) {
		score++
	}
	if hasE && hasVA && hasInc && approxEqual(e.Add(va), inc) {
		score++
	}
	if hasE && hasPct && hasVA && approxEqual(e.Mul(pct).Div(hundred), va) {
		score++
	}
	if hasE && hasInc && inc.LessThan(e) {
		score--
	}
	return score
}

func approxEqual(a, b decimal.Decimal) bool {
	tol := decimal.Max(b.Abs().Mul(relTolerance), minTolerance)
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
