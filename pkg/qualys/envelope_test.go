// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qualys

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeExpect(t *testing.T) {
	env, err := ParseEnvelope([]byte(`<REPORT_TEMPLATE_LIST><REPORT_TEMPLATE><ID>1</ID></REPORT_TEMPLATE></REPORT_TEMPLATE_LIST>`))
	require.NoError(t, err)
	assert.NoError(t, env.Expect("REPORT_TEMPLATE_LIST"))

	items, err := env.Items("REPORT_TEMPLATE_LIST", "REPORT_TEMPLATE")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0]["ID"])

	items, err = env.Items("REPORT_TEMPLATE_LIST", "MISSING")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEnvelopeSimpleReturn(t *testing.T) {
	env, err := ParseEnvelope([]byte(`<?xml version="1.0" encoding="UTF-8" ?>
<SIMPLE_RETURN>
  <RESPONSE>
    <DATETIME>2024-05-01T12:00:00Z</DATETIME>
    <CODE>1905</CODE>
    <TEXT>parameter id has invalid value: abc</TEXT>
  </RESPONSE>
</SIMPLE_RETURN>`))
	require.NoError(t, err)

	err = env.Expect("REPORT_LIST_OUTPUT")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1905, apiErr.Code)
	assert.Equal(t, "parameter id has invalid value: abc", err.Error())
	assert.False(t, errors.Is(err, ErrUnexpectedResponse))
}

func TestEnvelopeUnexpectedRoot(t *testing.T) {
	env, err := ParseEnvelope([]byte(`<GENERIC_RETURN><X/></GENERIC_RETURN>`))
	require.NoError(t, err)

	err = env.Expect("REPORT_LIST_OUTPUT")
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Contains(t, err.Error(), "GENERIC_RETURN")
}

func TestSimpleReturnFromBody(t *testing.T) {
	assert.Nil(t, simpleReturnFromBody([]byte("%PDF-1.7 binary")))
	assert.Nil(t, simpleReturnFromBody([]byte("<HTML><BODY>502</BODY></HTML>")))

	apiErr := simpleReturnFromBody([]byte(`<SIMPLE_RETURN><RESPONSE><TEXT>busy</TEXT></RESPONSE></SIMPLE_RETURN>`))
	require.NotNil(t, apiErr)
	assert.Equal(t, "busy", apiErr.Message)
	assert.Zero(t, apiErr.Code)
}
