package auth

import "github.com/matthieukhl/freshmart/internal/models"

// Capability is a single permission checked by route middleware
type Capability int

const (
	CapManageCatalog Capability = iota + 1
	CapManageStaff
	CapViewAnalytics
	CapViewOrders
	CapUpdateOrders
)

func (c Capability) String() string {
	switch c {
	case CapManageCatalog:
		return "manage_catalog"
	case CapManageStaff:
		return "manage_staff"
	case CapViewAnalytics:
		return "view_analytics"
	case CapViewOrders:
		return "view_orders"
	case CapUpdateOrders:
		return "update_orders"
	default:
		return "unknown"
	}
}

var roleCapabilities = map[string][]Capability{
	models.RoleAdmin: {CapManageCatalog, CapManageStaff, CapViewAnalytics, CapViewOrders, CapUpdateOrders},
	models.RoleStaff: {CapViewOrders, CapUpdateOrders},
}

// Allows reports whether role grants capability
func Allows(role string, c Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == c {
			return true
		}
	}
	return false
}

// Capabilities lists what role may do
func Capabilities(role string) []Capability {
	return append([]Capability(nil), roleCapabilities[role]...)
}
