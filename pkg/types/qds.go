// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// QDS is the Qualys Detection Score attached to a detection: a severity
// category and a numeric score. On the wire it is <QDS severity="HIGH">72</QDS>.
type QDS struct {
	// Severity is the score category (e.g. "LOW", "HIGH", "CRITICAL").
	Severity string `json:"severity" yaml:"severity"`

	// Score is the numeric detection score.
	Score int `json:"score" yaml:"score"`
}

// QDSFromMap builds a QDS from its parsed element. Both the severity
// attribute and the text score are required.
func QDSFromMap(m map[string]any) (QDS, error) {
	f, err := readFields("QDS", m, "@severity", "#text")
	if err != nil {
		return QDS{}, err
	}
	q := QDS{
		Severity: f.str("@severity"),
		Score:    f.int("#text"),
	}
	if f.err != nil {
		return QDS{}, f.err
	}
	return q, nil
}

// ToMap returns the element form of q.
func (q QDS) ToMap() map[string]any {
	return map[string]any{
		"@severity": q.Severity,
		"#text":     q.Score,
	}
}

// QDSFactor is one named input to a detection's QDS, e.g.
// <QDS_FACTOR name="epss">0.97</QDS_FACTOR>.
type QDSFactor struct {
	// Name identifies the factor (e.g. "CVSS", "epss", "RTI").
	Name string `json:"name" yaml:"name"`

	// Value is the factor's value as reported; its format depends on Name.
	Value string `json:"value" yaml:"value"`
}

// QDSFactorFromMap builds a QDSFactor from its parsed element. The name
// attribute is required; a factor without text has an empty Value.
func QDSFactorFromMap(m map[string]any) (QDSFactor, error) {
	f, err := readFields("QDSFactor", m, "@name")
	if err != nil {
		return QDSFactor{}, err
	}
	q := QDSFactor{Name: f.str("@name")}
	if v := f.optString("#text"); v != nil {
		q.Value = *v
	}
	if f.err != nil {
		return QDSFactor{}, f.err
	}
	return q, nil
}

// ToMap returns the element form of q.
func (q QDSFactor) ToMap() map[string]any {
	return map[string]any{
		"@name": q.Name,
		"#text": q.Value,
	}
}

// qdsFactorsFromMaps builds factors in input order.
func qdsFactorsFromMaps(items []map[string]any) ([]QDSFactor, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]QDSFactor, 0, len(items))
	for _, item := range items {
		factor, err := QDSFactorFromMap(item)
		if err != nil {
			return nil, err
		}
		out = append(out, factor)
	}
	return out, nil
}

// qdsFactorsToMap returns the QDS_FACTORS container element, or nil.
func qdsFactorsToMap(factors []QDSFactor) any {
	if len(factors) == 0 {
		return nil
	}
	items := make([]any, len(factors))
	for i, factor := range factors {
		items[i] = factor.ToMap()
	}
	return map[string]any{"QDS_FACTOR": items}
}
