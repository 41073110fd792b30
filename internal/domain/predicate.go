package domain

// Field identifies a filterable donation attribute independently of any
// storage column name.
type Field string

// Filterable fields.
const (
	FieldDonatedAt     Field = "donated_at"
	FieldCampaignID    Field = "campaign_id"
	FieldFundID        Field = "fund_id"
	FieldDonorID       Field = "donor_id"
	FieldStatus        Field = "status"
	FieldPaymentMethod Field = "payment_method"
	FieldFrequency     Field = "frequency"
	FieldAmount        Field = "amount"
)

// Operator is a comparison used by a predicate clause.
type Operator string

// Supported operators.
const (
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpIn           Operator = "IN"
)

// Clause is a single condition. Value is set for comparison operators and
// Values for OpIn.
type Clause struct {
	Field    Field
	Operator Operator
	Value    any
	Values   []any
}

// Predicate is a conjunction of clauses. An empty predicate matches every row.
type Predicate struct {
	Clauses []Clause
}

// MatchesAll reports whether the predicate places no restriction.
func (p Predicate) MatchesAll() bool {
	return len(p.Clauses) == 0
}

// ClausesFor returns the clauses that constrain field, in order.
func (p Predicate) ClausesFor(field Field) []Clause {
	var out []Clause
	for _, c := range p.Clauses {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}
