// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReportType is the kind of report a template produces.
type ReportType string

const (
	ReportMap         ReportType = "Map"
	ReportScan        ReportType = "Scan"
	ReportPatch       ReportType = "Patch"
	ReportRemediation ReportType = "Remediation"
	ReportCompliance  ReportType = "Compliance"
	ReportPolicy      ReportType = "Policy"
)

// ReportTypes lists the documented report types in display order.
var ReportTypes = []ReportType{ReportMap, ReportScan, ReportPatch, ReportRemediation, ReportCompliance, ReportPolicy}

// Known reports whether t is a documented report type.
func (t ReportType) Known() bool {
	for _, known := range ReportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ReportState is the processing state of a launched report.
type ReportState string

const (
	StateSubmitted ReportState = "Submitted"
	StateRunning   ReportState = "Running"
	StateFinished  ReportState = "Finished"
	StateCanceled  ReportState = "Canceled"
	StateErrors    ReportState = "Errors"
)

// Known reports whether s is a documented report state.
func (s ReportState) Known() bool {
	switch s {
	case StateSubmitted, StateRunning, StateFinished, StateCanceled, StateErrors:
		return true
	}
	return false
}

// Report is one entry of the report list: a report that was launched in the
// subscription and is still stored in the Report Share.
type Report struct {
	// ID identifies the report for fetch, cancel and delete.
	ID int `json:"id" yaml:"id"`

	// Title is the user-supplied or generated report title.
	Title *string `json:"title" yaml:"title"`

	// Type is the report type (Scan, Map, Patch, ...).
	Type ReportType `json:"type" yaml:"type"`

	// UserLogin is the login of the user who launched the report.
	UserLogin *string `json:"user_login" yaml:"user_login"`

	LaunchDatetime *time.Time `json:"launch_datetime" yaml:"launch_datetime"`

	// OutputFormat is the rendered format (PDF, CSV, XML, ...).
	OutputFormat *string `json:"output_format" yaml:"output_format"`

	// Size is the human-readable size reported by Qualys (e.g. "1.2 MB").
	Size *string `json:"size" yaml:"size"`

	Status *ReportStatus `json:"status" yaml:"status"`

	ExpirationDatetime *time.Time `json:"expiration_datetime" yaml:"expiration_datetime"`

	// Client is set for consultant subscriptions only.
	Client *ReportClient `json:"client" yaml:"client"`
}

// ReportStatus is the STATUS element of a report.
type ReportStatus struct {
	State   ReportState `json:"state" yaml:"state"`
	Message *string     `json:"message" yaml:"message"`
	Percent *float64    `json:"percent" yaml:"percent"`
}

// ReportClient is the CLIENT element of a report in a consultant subscription.
type ReportClient struct {
	ID   int     `json:"id" yaml:"id"`
	Name *string `json:"name" yaml:"name"`
}

// ReportFromMap builds a Report from a parsed REPORT element.
func ReportFromMap(m map[string]any) (Report, error) {
	f, err := readFields("Report", m, "ID", "TYPE")
	if err != nil {
		return Report{}, err
	}

	r := Report{
		ID:                 f.int("ID"),
		Title:              f.optString("TITLE"),
		Type:               ReportType(f.str("TYPE")),
		UserLogin:          f.optString("USER_LOGIN"),
		LaunchDatetime:     f.optTime("LAUNCH_DATETIME"),
		OutputFormat:       f.optString("OUTPUT_FORMAT"),
		Size:               f.optString("SIZE"),
		ExpirationDatetime: f.optTime("EXPIRATION_DATETIME"),
	}

	if status := f.nested("STATUS"); status != nil {
		s, err := reportStatusFromMap(status)
		f.wrap("STATUS", err)
		if err == nil {
			r.Status = &s
		}
	}
	if client := f.nested("CLIENT"); client != nil {
		c, err := reportClientFromMap(client)
		f.wrap("CLIENT", err)
		if err == nil {
			r.Client = &c
		}
	}

	if f.err != nil {
		return Report{}, f.err
	}
	return r, nil
}

func reportStatusFromMap(m map[string]any) (ReportStatus, error) {
	f, err := readFields("ReportStatus", m, "STATE")
	if err != nil {
		return ReportStatus{}, err
	}
	s := ReportStatus{
		State:   ReportState(f.str("STATE")),
		Message: f.optString("MESSAGE"),
		Percent: f.optFloat("PERCENT"),
	}
	if f.err != nil {
		return ReportStatus{}, f.err
	}
	return s, nil
}

func reportClientFromMap(m map[string]any) (ReportClient, error) {
	f, err := readFields("ReportClient", m, "ID")
	if err != nil {
		return ReportClient{}, err
	}
	c := ReportClient{
		ID:   f.int("ID"),
		Name: f.optString("NAME"),
	}
	if f.err != nil {
		return ReportClient{}, f.err
	}
	return c, nil
}

// ToMap returns every field of r keyed by its element name.
func (r Report) ToMap() map[string]any {
	var status, client any
	if r.Status != nil {
		status = map[string]any{
			"STATE":   string(r.Status.State),
			"MESSAGE": stringOrNil(r.Status.Message),
			"PERCENT": floatOrNil(r.Status.Percent),
		}
	}
	if r.Client != nil {
		client = map[string]any{
			"ID":   r.Client.ID,
			"NAME": stringOrNil(r.Client.Name),
		}
	}
	return map[string]any{
		"ID":                  r.ID,
		"TITLE":               stringOrNil(r.Title),
		"TYPE":                string(r.Type),
		"USER_LOGIN":          stringOrNil(r.UserLogin),
		"LAUNCH_DATETIME":     timeOrNil(r.LaunchDatetime),
		"OUTPUT_FORMAT":       stringOrNil(r.OutputFormat),
		"SIZE":                stringOrNil(r.Size),
		"STATUS":              status,
		"EXPIRATION_DATETIME": timeOrNil(r.ExpirationDatetime),
		"CLIENT":              client,
	}
}

// ReportTemplate is one entry of the report template list.
type ReportTemplate struct {
	ID int `json:"id" yaml:"id"`

	// Type is "Auto" or "Manual".
	Type string `json:"type" yaml:"type"`

	// TemplateType is the report type the template produces.
	TemplateType ReportType `json:"template_type" yaml:"template_type"`

	Title *string `json:"title" yaml:"title"`

	// User is the template owner.
	User *TemplateUser `json:"user" yaml:"user"`

	LastUpdate *time.Time `json:"last_update" yaml:"last_update"`

	// Global is true when the template is shared with all users.
	Global *bool `json:"global" yaml:"global"`

	// Default is true for the subscription's default template of its type.
	Default *bool `json:"default" yaml:"default"`
}

// TemplateUser is the USER element of a report template.
type TemplateUser struct {
	Login     *string `json:"login" yaml:"login"`
	FirstName *string `json:"first_name" yaml:"first_name"`
	LastName  *string `json:"last_name" yaml:"last_name"`
}

// ReportTemplateFromMap builds a ReportTemplate from a parsed REPORT_TEMPLATE element.
func ReportTemplateFromMap(m map[string]any) (ReportTemplate, error) {
	f, err := readFields("ReportTemplate", m, "ID", "TYPE", "TEMPLATE_TYPE")
	if err != nil {
		return ReportTemplate{}, err
	}

	t := ReportTemplate{
		ID:           f.int("ID"),
		Type:         f.str("TYPE"),
		TemplateType: ReportType(f.str("TEMPLATE_TYPE")),
		Title:        f.optString("TITLE"),
		LastUpdate:   f.optTime("LAST_UPDATE"),
		Global:       f.optBool("GLOBAL"),
		Default:      f.optBool("DEFAULT"),
	}

	if user := f.nested("USER"); user != nil {
		u := &fields{record: "TemplateUser", m: user}
		t.User = &TemplateUser{
			Login:     u.optString("LOGIN"),
			FirstName: u.optString("FIRSTNAME"),
			LastName:  u.optString("LASTNAME"),
		}
		f.wrap("USER", u.err)
	}

	if f.err != nil {
		return ReportTemplate{}, f.err
	}
	return t, nil
}

// ToMap returns every field of t keyed by its element name.
func (t ReportTemplate) ToMap() map[string]any {
	var user any
	if t.User != nil {
		user = map[string]any{
			"LOGIN":     stringOrNil(t.User.Login),
			"FIRSTNAME": stringOrNil(t.User.FirstName),
			"LASTNAME":  stringOrNil(t.User.LastName),
		}
	}
	return map[string]any{
		"ID":            t.ID,
		"TYPE":          t.Type,
		"TEMPLATE_TYPE": string(t.TemplateType),
		"TITLE":         stringOrNil(t.Title),
		"USER":          user,
		"LAST_UPDATE":   timeOrNil(t.LastUpdate),
		"GLOBAL":        boolOrNil(t.Global),
		"DEFAULT":       boolOrNil(t.Default),
	}
}
