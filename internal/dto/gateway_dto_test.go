package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayEnvelope_WireShape(t *testing.T) {
	env := GatewayEnvelope{
		Hdrs:   EnvelopeHeader{Name: MsgPayBill, Version: "v1.3.0", Timestamp: "2023-11-29T16:38:00+06:00", NodeID: "NS5981", RefID: "REF"},
		Trx:    EnvelopeTrx{TrxID: "TRX", TrxTms: "2023-11-29T16:38:00+06:00", RefnoAck: "ACK"},
		PydInf: &PaymentInfo{PydTrxnRefID: "P1", PydTms: "2023-11-29T16:38:00+06:00", PydAmnt: decimal.RequireFromString("120.50")},
		UsrInf: &UserInfo{SyndicateID: "s572"},
	}
	b, err := json.Marshal(env)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "UPDT_BLL_PYMNT_REQ", m["hdrs"].(map[string]any)["nm"])
	assert.Equal(t, "ACK", m["trx"].(map[string]any)["refno_ack"])
	assert.Equal(t, "120.5", m["pyd_inf"].(map[string]any)["pyd_amnt"])
	assert.NotContains(t, m, "bll_inf")
	assert.NotContains(t, m, "bllr_inf")
}

func TestGatewayEnvelope_OmitsOptionalHeaderFields(t *testing.T) {
	b, err := json.Marshal(GatewayEnvelope{Hdrs: EnvelopeHeader{Name: MsgFetchBillers}})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ref_id")
	assert.NotContains(t, string(b), "refno_ack")
}

func TestParseGatewayResponse(t *testing.T) {
	raw := map[string]any{
		"hdrs":        map[string]any{"ref_id": "REF"},
		"trx":         map[string]any{"trx_id": "TRX"},
		"bllr_inf":    map[string]any{"is_bll_pd": "Y"},
		"resp_status": map[string]any{"sts": "FAILED", "rspns_cd": json.Number("401"), "rspns_msg": "invalid biller", "refno_ack": "ACK"},
	}
	resp, err := ParseGatewayResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "REF", string(resp.Hdrs.RefID))
	assert.Equal(t, "TRX", string(resp.Trx.TrxID))
	assert.True(t, resp.IsBillPaid())
	assert.True(t, resp.Failed())
	assert.Equal(t, "401", string(resp.RespStatus.Code))
	assert.Equal(t, "invalid biller", resp.RespStatus.Message.Text)
	assert.Equal(t, "ACK", string(resp.RespStatus.RefnoAck))
	assert.Equal(t, "ACK", resp.RefnoAck())
}

func TestParseGatewayResponse_NumericIdentifiers(t *testing.T) {
	raw := map[string]any{
		"hdrs":        map[string]any{"ref_id": json.Number("20231129001"), "nm": "FETCH_BLL_RES"},
		"trx":         map[string]any{"trx_id": float64(778812), "refno_ack": json.Number("99001")},
		"resp_status": map[string]any{"sts": "SUCCESS"},
	}
	resp, err := ParseGatewayResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "20231129001", string(resp.Hdrs.RefID))
	assert.Equal(t, "778812", string(resp.Trx.TrxID))
	assert.Equal(t, "99001", resp.RefnoAck())
	assert.False(t, resp.Failed())
}

func TestGatewayResponse_Defaults(t *testing.T) {
	resp, err := ParseGatewayResponse(map[string]any{})
	require.NoError(t, err)
	assert.False(t, resp.IsBillPaid())
	assert.False(t, resp.Failed())
}
