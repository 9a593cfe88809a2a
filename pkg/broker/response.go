package broker

import (
	"github.com/tidwall/gjson"
)

// ErrCodeTradeDoesntExist is returned by the broker when a close is attempted
// against a trade it has already closed on its side.
const ErrCodeTradeDoesntExist = "TRADE_DOESNT_EXIST"

// Response is a broker reply. Errors that arrive inside the response body
// (errorCode/errorMessage) are part of the contract and are not Go errors;
// absent fields read as zero values.
type Response struct {
	raw gjson.Result
}

func ParseResponse(body []byte) Response {
	return Response{raw: gjson.ParseBytes(body)}
}

func (r Response) IsError() bool {
	return r.raw.Get("errorCode").Exists() || r.raw.Get("errorMessage").Exists()
}

func (r Response) ErrorCode() string {
	return r.raw.Get("errorCode").String()
}

func (r Response) ErrorMessage() string {
	return r.raw.Get("errorMessage").String()
}

// OpenedTradeID extracts the id of a newly opened trade from the fill
// confirmation. Zero when the fill opened no trade, for example on a close.
func (r Response) OpenedTradeID() int64 {
	return r.raw.Get("orderFillTransaction.tradeOpened.tradeID").Int()
}

func (r Response) Raw() gjson.Result {
	return r.raw
}
