package state

import "strings"

// Reserved key namespace. Only core operation handlers may write
// these; contract logic writing them is a bug, not adversarial input.
var (
	reservedKeys = map[string]struct{}{
		"admin":            {},
		"admin_set":        {},
		"wlst":             {},
		"chat_status":      {},
		"auto_add_writers": {},
		"txen":             {},
		"msgl":             {},
		"txl":              {},
		"delml":            {},
		"pnl":              {},
	}

	reservedPrefixes = []string{
		"mod/", "mtd/", "nick/", "kcin/", "wl/",
		"sh/", "msg/", "umsg/", "umsgl/",
		"tx/", "txi/", "utxi/", "utxl/",
		"delm/", "pni/", "wrt/", "ban/",
	}
)

// IsReserved reports whether the key belongs to the core handler
// namespace.
func IsReserved(key string) bool {
	if _, ok := reservedKeys[key]; ok {
		return true
	}
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
