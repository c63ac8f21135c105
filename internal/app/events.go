package app

import (
	"sort"

	abci "github.com/cometbft/cometbft/abci/types"
)

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	res := &abci.ExecTxResult{Code: 0}
	appendEvent(res, typ, attrs)
	return res
}

func appendEvent(res *abci.ExecTxResult, typ string, attrs map[string]string) {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	res.Events = append(res.Events, ev)
}
