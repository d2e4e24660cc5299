// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

// DetectionType classifies how certain Qualys is about a detection.
type DetectionType string

const (
	DetectionConfirmed DetectionType = "Confirmed"
	DetectionPotential DetectionType = "Potential"
	DetectionInfo      DetectionType = "Info"
)

// Known reports whether t is one of the documented detection types. Records
// keep unknown values as returned by the API.
func (t DetectionType) Known() bool {
	switch t {
	case DetectionConfirmed, DetectionPotential, DetectionInfo:
		return true
	}
	return false
}

// DetectionStatus is the lifecycle state of a detection on a host.
type DetectionStatus string

const (
	StatusNew      DetectionStatus = "New"
	StatusActive   DetectionStatus = "Active"
	StatusFixed    DetectionStatus = "Fixed"
	StatusReOpened DetectionStatus = "Re-Opened"
)

// Known reports whether s is one of the documented detection statuses.
func (s DetectionStatus) Known() bool {
	switch s {
	case StatusNew, StatusActive, StatusFixed, StatusReOpened:
		return true
	}
	return false
}

// Detection is a single QID detected on a host.
//
// Detections compare and order by (QID, Severity) only: two detections of
// the same QID at the same severity are the same finding for sorting and
// deduplication, whatever their timestamps, counts or result text.
type Detection struct {
	// UniqueVulnID is the unique ID of the detection.
	UniqueVulnID *int `json:"unique_vuln_id" yaml:"unique_vuln_id"`

	// QID identifies the vulnerability in the Qualys KnowledgeBase.
	QID int `json:"qid" yaml:"qid"`

	// Type is Confirmed, Potential or Info.
	Type DetectionType `json:"type" yaml:"type"`

	// Severity is the Qualys severity level, 1 through 5.
	Severity int `json:"severity" yaml:"severity"`

	// Status is New, Active, Fixed or Re-Opened.
	Status DetectionStatus `json:"status" yaml:"status"`

	SSL *bool `json:"ssl" yaml:"ssl"`

	// Results is the scanner output for the detection with markup removed.
	Results *string `json:"results" yaml:"results"`

	FirstFoundDatetime    *time.Time `json:"first_found_datetime" yaml:"first_found_datetime"`
	LastFoundDatetime     *time.Time `json:"last_found_datetime" yaml:"last_found_datetime"`
	LastTestDatetime      *time.Time `json:"last_test_datetime" yaml:"last_test_datetime"`
	LastUpdateDatetime    *time.Time `json:"last_update_datetime" yaml:"last_update_datetime"`
	LastProcessedDatetime *time.Time `json:"last_processed_datetime" yaml:"last_processed_datetime"`
	LastFixedDatetime     *time.Time `json:"last_fixed_datetime" yaml:"last_fixed_datetime"`

	// TimesFound counts the scans that found the detection.
	TimesFound *int `json:"times_found" yaml:"times_found"`

	IsIgnored  *bool `json:"is_ignored" yaml:"is_ignored"`
	IsDisabled *bool `json:"is_disabled" yaml:"is_disabled"`

	Port     *int    `json:"port" yaml:"port"`
	Protocol *string `json:"protocol" yaml:"protocol"`
	FQDN     *string `json:"fqdn" yaml:"fqdn"`

	// QDS is the detection score, when the request asked for it.
	QDS *QDS `json:"qds" yaml:"qds"`

	// QDSFactors lists the inputs to QDS in the order returned.
	QDSFactors []QDSFactor `json:"qds_factors" yaml:"qds_factors"`
}

// detectionRequired lists the keys a DETECTION element must carry.
var detectionRequired = []string{"QID", "SEVERITY", "STATUS", "TYPE"}

// DetectionFromMap builds a Detection from a parsed DETECTION element.
func DetectionFromMap(m map[string]any) (Detection, error) {
	f, err := readFields("Detection", m, detectionRequired...)
	if err != nil {
		return Detection{}, err
	}

	d := Detection{
		UniqueVulnID:          f.optInt("UNIQUE_VULN_ID"),
		QID:                   f.int("QID"),
		Type:                  DetectionType(f.str("TYPE")),
		Severity:              f.int("SEVERITY"),
		Status:                DetectionStatus(f.str("STATUS")),
		SSL:                   f.optBool("SSL"),
		Results:               f.optText("RESULTS"),
		FirstFoundDatetime:    f.optTime("FIRST_FOUND_DATETIME"),
		LastFoundDatetime:     f.optTime("LAST_FOUND_DATETIME"),
		LastTestDatetime:      f.optTime("LAST_TEST_DATETIME"),
		LastUpdateDatetime:    f.optTime("LAST_UPDATE_DATETIME"),
		LastProcessedDatetime: f.optTime("LAST_PROCESSED_DATETIME"),
		LastFixedDatetime:     f.optTime("LAST_FIXED_DATETIME"),
		TimesFound:            f.optInt("TIMES_FOUND"),
		IsIgnored:             f.optBool("IS_IGNORED"),
		IsDisabled:            f.optBool("IS_DISABLED"),
		Port:                  f.optInt("PORT"),
		Protocol:              f.optString("PROTOCOL"),
		FQDN:                  f.optString("FQDN"),
	}

	if qds := f.nested("QDS"); qds != nil {
		q, err := QDSFromMap(qds)
		f.wrap("QDS", err)
		if err == nil {
			d.QDS = &q
		}
	}

	factors, err := qdsFactorsFromMaps(f.repeated("QDS_FACTORS", "QDS_FACTOR"))
	f.wrap("QDS_FACTORS", err)
	d.QDSFactors = factors

	if f.err != nil {
		return Detection{}, f.err
	}
	return d, nil
}

// ToMap returns every field of d keyed by its element name. Absent optional
// fields map to nil. DetectionFromMap(d.ToMap()) reproduces d.
func (d Detection) ToMap() map[string]any {
	var qds any
	if d.QDS != nil {
		qds = d.QDS.ToMap()
	}
	return map[string]any{
		"UNIQUE_VULN_ID":          intOrNil(d.UniqueVulnID),
		"QID":                     d.QID,
		"TYPE":                    string(d.Type),
		"SEVERITY":                d.Severity,
		"STATUS":                  string(d.Status),
		"SSL":                     boolOrNil(d.SSL),
		"RESULTS":                 stringOrNil(d.Results),
		"FIRST_FOUND_DATETIME":    timeOrNil(d.FirstFoundDatetime),
		"LAST_FOUND_DATETIME":     timeOrNil(d.LastFoundDatetime),
		"LAST_TEST_DATETIME":      timeOrNil(d.LastTestDatetime),
		"LAST_UPDATE_DATETIME":    timeOrNil(d.LastUpdateDatetime),
		"LAST_PROCESSED_DATETIME": timeOrNil(d.LastProcessedDatetime),
		"LAST_FIXED_DATETIME":     timeOrNil(d.LastFixedDatetime),
		"TIMES_FOUND":             intOrNil(d.TimesFound),
		"IS_IGNORED":              boolOrNil(d.IsIgnored),
		"IS_DISABLED":             boolOrNil(d.IsDisabled),
		"PORT":                    intOrNil(d.Port),
		"PROTOCOL":                stringOrNil(d.Protocol),
		"FQDN":                    stringOrNil(d.FQDN),
		"QDS":                     qds,
		"QDS_FACTORS":             qdsFactorsToMap(d.QDSFactors),
	}
}

// String returns the QID.
func (d Detection) String() string { return strconv.Itoa(d.QID) }

// Compare orders detections by QID, then Severity. It returns a negative
// number, zero or a positive number like cmp.Compare.
func (d Detection) Compare(o Detection) int {
	if c := cmp.Compare(d.QID, o.QID); c != 0 {
		return c
	}
	return cmp.Compare(d.Severity, o.Severity)
}

// Equal reports whether d and o share QID and Severity.
func (d Detection) Equal(o Detection) bool { return d.Compare(o) == 0 }

// Copy returns an independent deep copy of d, including every optional field.
func (d Detection) Copy() Detection {
	c := d
	c.UniqueVulnID = clonePtr(d.UniqueVulnID)
	c.SSL = clonePtr(d.SSL)
	c.Results = clonePtr(d.Results)
	c.FirstFoundDatetime = clonePtr(d.FirstFoundDatetime)
	c.LastFoundDatetime = clonePtr(d.LastFoundDatetime)
	c.LastTestDatetime = clonePtr(d.LastTestDatetime)
	c.LastUpdateDatetime = clonePtr(d.LastUpdateDatetime)
	c.LastProcessedDatetime = clonePtr(d.LastProcessedDatetime)
	c.LastFixedDatetime = clonePtr(d.LastFixedDatetime)
	c.TimesFound = clonePtr(d.TimesFound)
	c.IsIgnored = clonePtr(d.IsIgnored)
	c.IsDisabled = clonePtr(d.IsDisabled)
	c.Port = clonePtr(d.Port)
	c.Protocol = clonePtr(d.Protocol)
	c.FQDN = clonePtr(d.FQDN)
	c.QDS = clonePtr(d.QDS)
	c.QDSFactors = slices.Clone(d.QDSFactors)
	return c
}

// SortDetections sorts ds in place by (QID, Severity). The sort is stable so
// equal detections keep their response order.
func SortDetections(ds []Detection) {
	slices.SortStableFunc(ds, Detection.Compare)
}

// DedupeDetections returns ds sorted with detections of equal (QID, Severity)
// collapsed to the first occurrence. ds is not modified.
func DedupeDetections(ds []Detection) []Detection {
	out := slices.Clone(ds)
	SortDetections(out)
	return slices.CompactFunc(out, Detection.Equal)
}

// detectionsFromMaps builds detections in input order.
func detectionsFromMaps(items []map[string]any) ([]Detection, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]Detection, 0, len(items))
	for _, item := range items {
		d, err := DetectionFromMap(item)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
