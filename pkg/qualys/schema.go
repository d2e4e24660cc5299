// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qualys

import (
	"fmt"
	"net/http"
)

// Placement says where an endpoint expects its parameters.
type Placement int

const (
	// InQuery sends parameters in the URL query string.
	InQuery Placement = iota

	// InBody sends parameters as an application/x-www-form-urlencoded body.
	InBody
)

func (p Placement) String() string {
	if p == InBody {
		return "body"
	}
	return "query"
}

// Endpoint is the fixed HTTP shape of one API call.
type Endpoint struct {
	Method    string
	Path      string
	Placement Placement
}

const reportPath = "/api/2.0/fo/report/"

// endpoints maps module → endpoint name → call shape.
var endpoints = map[string]map[string]Endpoint{
	"vmdr": {
		"get_report_list":   {Method: http.MethodGet, Path: reportPath, Placement: InQuery},
		"launch_report":     {Method: http.MethodPost, Path: reportPath, Placement: InBody},
		"cancel_report":     {Method: http.MethodPost, Path: reportPath, Placement: InBody},
		"fetch_report":      {Method: http.MethodGet, Path: reportPath, Placement: InQuery},
		"delete_report":     {Method: http.MethodPost, Path: reportPath, Placement: InBody},
		"get_template_list": {Method: http.MethodGet, Path: "/msp/report_template_list.php", Placement: InQuery},
		"get_hld":           {Method: http.MethodGet, Path: "/api/2.0/fo/asset/host/vm/detection/", Placement: InQuery},
	},
}

// LookupEndpoint returns the call shape registered for module/endpoint.
func LookupEndpoint(module, endpoint string) (Endpoint, error) {
	ep, ok := endpoints[module][endpoint]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s/%s", ErrUnknownEndpoint, module, endpoint)
	}
	return ep, nil
}
