package access

import (
	"slices"
	"testing"

	"farmacia-bermat/backend/internal/domain"
)

func TestRoleAllows(t *testing.T) {
	cases := []struct {
		role   string
		module string
		want   bool
	}{
		{domain.RoleAdmin, ModuleProducts, true},
		{domain.RoleAdmin, ModuleReports, true},
		{domain.RoleAdmin, "payroll", false},
		{domain.RoleOperator, ModuleBilling, true},
		{domain.RoleOperator, ModuleProforma, true},
		{domain.RoleOperator, ModuleBatches, true},
		{domain.RoleOperator, ModuleCustomers, true},
		{domain.RoleOperator, ModuleProducts, false},
		{domain.RoleOperator, ModuleStock, false},
		{domain.RoleOperator, ModuleEmployees, false},
		{domain.RoleOperator, ModuleReports, false},
		{"guest", ModuleBilling, false},
	}
	for _, tc := range cases {
		if got := RoleAllows(tc.role, tc.module); got != tc.want {
			t.Errorf("RoleAllows(%q, %q) = %v, want %v", tc.role, tc.module, got, tc.want)
		}
	}
}

func TestModulesForOperator(t *testing.T) {
	got := ModulesFor(domain.RoleOperator)
	want := []string{ModuleBilling, ModuleProforma, ModuleBatches, ModuleCustomers}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(ModulesFor(domain.RoleAdmin)) != len(allModules) {
		t.Fatalf("admin should see every module")
	}
}
