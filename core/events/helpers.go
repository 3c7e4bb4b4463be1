package events

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func boolToString(v bool) string {
	return strconv.FormatBool(v)
}

func joinPoolIDs(pids []uint64) string {
	parts := make([]string, len(pids))
	for i, pid := range pids {
		parts[i] = strconv.FormatUint(pid, 10)
	}
	return strings.Join(parts, ",")
}
