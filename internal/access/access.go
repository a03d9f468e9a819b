// Package access decides which application modules a role may use.
package access

import "farmacia-bermat/backend/internal/domain"

const (
	ModuleBilling   = "billing"
	ModuleProforma  = "proforma"
	ModuleProducts  = "products"
	ModuleBatches   = "batches"
	ModuleStock     = "stock"
	ModuleCustomers = "customers"
	ModuleEmployees = "employees"
	ModuleReports   = "reports"
)

var allModules = []string{
	ModuleBilling,
	ModuleProforma,
	ModuleProducts,
	ModuleBatches,
	ModuleStock,
	ModuleCustomers,
	ModuleEmployees,
	ModuleReports,
}

var operatorModules = map[string]bool{
	ModuleBilling:   true,
	ModuleProforma:  true,
	ModuleBatches:   true,
	ModuleCustomers: true,
}

// RoleAllows reports whether role may use module. Admins may use every known
// module; unknown roles and modules are always refused.
func RoleAllows(role string, module string) bool {
	switch role {
	case domain.RoleAdmin:
		return isKnownModule(module)
	case domain.RoleOperator:
		return operatorModules[module]
	default:
		return false
	}
}

// ModulesFor lists the modules role may use, in menu order.
func ModulesFor(role string) []string {
	modules := make([]string, 0, len(allModules))
	for _, module := range allModules {
		if RoleAllows(role, module) {
			modules = append(modules, module)
		}
	}
	return modules
}

func isKnownModule(module string) bool {
	for _, known := range allModules {
		if known == module {
			return true
		}
	}
	return false
}
