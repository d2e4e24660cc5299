// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vmdr

import (
	"context"

	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// GetTemplateList returns the report templates visible to the user.
func GetTemplateList(ctx context.Context, auth *qualys.BasicAuth) (types.List[types.ReportTemplate], error) {
	raw, err := call(ctx, auth, "get_template_list", nil)
	if err != nil {
		return nil, err
	}
	env, err := parseEnvelope(raw, "REPORT_TEMPLATE_LIST")
	if err != nil {
		return nil, err
	}
	return buildList(env, "REPORT_TEMPLATE", types.ReportTemplateFromMap, "REPORT_TEMPLATE_LIST", "REPORT_TEMPLATE")
}
