// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"time"
)

// Host is one HOST element of the host list detection output: an asset and
// the detections currently recorded against it.
type Host struct {
	// ID is the Qualys host ID.
	ID int `json:"id" yaml:"id"`

	IP   *string `json:"ip" yaml:"ip"`
	IPv6 *string `json:"ipv6" yaml:"ipv6"`

	// TrackingMethod is how the host is tracked (IP, DNS, NETBIOS, AGENT, ...).
	TrackingMethod *string `json:"tracking_method" yaml:"tracking_method"`

	OS      *string `json:"os" yaml:"os"`
	DNS     *string `json:"dns" yaml:"dns"`
	NetBIOS *string `json:"netbios" yaml:"netbios"`

	// QGHostID is the agent-assigned host ID, when the host runs a cloud agent.
	QGHostID *string `json:"qg_hostid" yaml:"qg_hostid"`

	LastScanDatetime      *time.Time `json:"last_scan_datetime" yaml:"last_scan_datetime"`
	LastVMScannedDate     *time.Time `json:"last_vm_scanned_date" yaml:"last_vm_scanned_date"`
	LastVMAuthScannedDate *time.Time `json:"last_vm_auth_scanned_date" yaml:"last_vm_auth_scanned_date"`

	// Detections lists the host's detections in response order.
	Detections []Detection `json:"detections" yaml:"detections"`
}

// HostFromMap builds a Host and its detections from a parsed HOST element.
func HostFromMap(m map[string]any) (Host, error) {
	f, err := readFields("Host", m, "ID")
	if err != nil {
		return Host{}, err
	}

	h := Host{
		ID:                    f.int("ID"),
		IP:                    f.optString("IP"),
		IPv6:                  f.optString("IPV6"),
		TrackingMethod:        f.optString("TRACKING_METHOD"),
		OS:                    f.optString("OS"),
		DNS:                   f.optString("DNS"),
		NetBIOS:               f.optString("NETBIOS"),
		QGHostID:              f.optString("QG_HOSTID"),
		LastScanDatetime:      f.optTime("LAST_SCAN_DATETIME"),
		LastVMScannedDate:     f.optTime("LAST_VM_SCANNED_DATE"),
		LastVMAuthScannedDate: f.optTime("LAST_VM_AUTH_SCANNED_DATE"),
	}

	detections, err := detectionsFromMaps(f.repeated("DETECTION_LIST", "DETECTION"))
	f.wrap("DETECTION_LIST", err)
	h.Detections = detections

	if f.err != nil {
		return Host{}, f.err
	}
	return h, nil
}

// ToMap returns every field of h keyed by its element name, with detections
// nested as DETECTION_LIST/DETECTION.
func (h Host) ToMap() map[string]any {
	var detections any
	if len(h.Detections) > 0 {
		items := make([]any, len(h.Detections))
		for i, d := range h.Detections {
			items[i] = d.ToMap()
		}
		detections = map[string]any{"DETECTION": items}
	}
	return map[string]any{
		"ID":                        h.ID,
		"IP":                        stringOrNil(h.IP),
		"IPV6":                      stringOrNil(h.IPv6),
		"TRACKING_METHOD":           stringOrNil(h.TrackingMethod),
		"OS":                        stringOrNil(h.OS),
		"DNS":                       stringOrNil(h.DNS),
		"NETBIOS":                   stringOrNil(h.NetBIOS),
		"QG_HOSTID":                 stringOrNil(h.QGHostID),
		"LAST_SCAN_DATETIME":        timeOrNil(h.LastScanDatetime),
		"LAST_VM_SCANNED_DATE":      timeOrNil(h.LastVMScannedDate),
		"LAST_VM_AUTH_SCANNED_DATE": timeOrNil(h.LastVMAuthScannedDate),
		"DETECTION_LIST":            detections,
	}
}

// String returns the host ID.
func (h Host) String() string { return strconv.Itoa(h.ID) }
