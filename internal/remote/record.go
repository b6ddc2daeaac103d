package remote

// Values holds the field values of a write or create call.
type Values map[string]any

// Record is one row returned by a read call.
// Odoo sends false for empty fields, the accessors treat false and missing alike.
type Record map[string]any

// ID returns the record id or 0.
func (r Record) ID() int64 {
	id, _ := r.Int64("id")

	return id
}

// Int64 returns an integer field.
func (r Record) Int64(field string) (int64, bool) {
	return toInt64(r[field])
}

// String returns a text field, "" when empty.
func (r Record) String(field string) string {
	s, _ := r[field].(string)

	return s
}

// Many2One returns the id of a many2one field sent as [id, display name].
func (r Record) Many2One(field string) (int64, bool) {
	switch v := r[field].(type) {
	case []any:
		if len(v) == 0 {
			return 0, false
		}

		return toInt64(v[0])
	default:
		return toInt64(v)
	}
}

// Present reports whether field holds a value other than false or "".
func (r Record) Present(field string) bool {
	switch v := r[field].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case []byte:
		return len(v) > 0
	default:
		return true
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Condition is one (field, operator, value) term of a search domain.
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// Domain is an implicit AND of conditions.
type Domain []Condition

// Where starts a domain with a single condition.
func Where(field, operator string, value any) Domain {
	return Domain{{Field: field, Operator: operator, Value: value}}
}

// And appends a condition.
func (d Domain) And(field, operator string, value any) Domain {
	return append(d, Condition{Field: field, Operator: operator, Value: value})
}

// encode turns the domain into the nested list Odoo expects.
func (d Domain) encode() []any {
	out := make([]any, 0, len(d))
	for _, c := range d {
		out = append(out, []any{c.Field, c.Operator, c.Value})
	}

	return out
}
