// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vmdr exposes the Qualys VMDR resources: reports, report templates
// and host list detections. Each function turns one logical operation into
// a single API call and normalizes the XML answer into typed records.
// Vendor soft failures come back as *qualys.APIError.
package vmdr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// module is the endpoint table module every call here belongs to.
const module = "vmdr"

// RequestedWith is the X-Requested-With value sent on every call.
const RequestedWith = "qualys-vmdr SDK"

func sdkHeaders() http.Header {
	return http.Header{"X-Requested-With": {RequestedWith}}
}

func call(ctx context.Context, auth *qualys.BasicAuth, endpoint string, params url.Values) ([]byte, error) {
	return auth.Call(ctx, qualys.Request{
		Module:   module,
		Endpoint: endpoint,
		Params:   params,
		Headers:  sdkHeaders(),
	})
}

// parseEnvelope parses raw and checks its root is root.
func parseEnvelope(raw []byte, root string) (*qualys.Envelope, error) {
	env, err := qualys.ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if err := env.Expect(root); err != nil {
		return nil, err
	}
	return env, nil
}

// buildList normalizes the one-or-many records under path. The first record
// that fails to build fails the whole list.
func buildList[T any](env *qualys.Envelope, element string, build func(map[string]any) (T, error), path ...string) (types.List[T], error) {
	items, err := env.Items(path...)
	if err != nil {
		return nil, fmt.Errorf("reading %s list: %w", element, err)
	}
	out := make(types.List[T], 0, len(items))
	for i, item := range items {
		rec, err := build(item)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", element, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// cloneValues copies v so forced parameters never leak into the caller's map.
func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
