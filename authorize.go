package guardian

import "github.com/MrEthical07/guardian/permission"

// Authorize reports whether p holds bit. It depends only on the aggregated
// role mask; anonymous principals never pass.
func Authorize(p Principal, bit permission.Mask) bool {
	if p.IsAnonymous() {
		return false
	}
	return p.Has(bit)
}

// AdminOnly reports whether p is an authenticated administrator. The admin
// flag lives on the user and is not a permission bit.
func AdminOnly(p Principal) bool {
	return p.IsAdmin()
}
