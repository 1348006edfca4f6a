package access

import (
	"testing"

	"predpraznik_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestParseRole(t *testing.T) {
	for _, name := range []string{"salesperson", "inventory", "admin", " ADMIN "} {
		if _, err := ParseRole(name); err != nil {
			t.Fatalf("expected %q to parse, got %v", name, err)
		}
	}
	if _, err := ParseRole("driver"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
}

func TestRoleStringRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleSalesperson, RoleInventory, RoleAdmin} {
		parsed, err := ParseRole(role.String())
		if err != nil || parsed != role {
			t.Fatalf("round trip failed for %v: %v, %v", role, parsed, err)
		}
	}
}

func TestCanGenerateCodes(t *testing.T) {
	sales := Actor{UserID: uuid.New(), Role: RoleSalesperson, CodePrefix: "GEO"}

	if err := CanGenerateCodes(sales, "GEO"); err != nil {
		t.Fatalf("salesperson should generate for own prefix: %v", err)
	}
	if err := CanGenerateCodes(sales, "ABC"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for foreign prefix, got %v", err)
	}
	if err := CanGenerateCodes(Actor{Role: RoleInventory}, "ABC"); err != nil {
		t.Fatalf("inventory should generate any prefix: %v", err)
	}
	if err := CanGenerateCodes(Actor{}, "ABC"); err == nil {
		t.Fatal("zero actor must be denied")
	}
}

func TestCanOperateCycle(t *testing.T) {
	owner := uuid.New()
	if err := CanOperateCycle(Actor{UserID: owner, Role: RoleSalesperson}, owner); err != nil {
		t.Fatalf("owner should operate own cycle: %v", err)
	}
	err := CanOperateCycle(Actor{UserID: uuid.New(), Role: RoleSalesperson}, owner)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if apperr.IsRecoverable(err) {
		t.Fatal("permission denial must not be recoverable")
	}
	if err := CanOperateCycle(Actor{Role: RoleInventory}, owner); err != nil {
		t.Fatalf("inventory should operate any cycle: %v", err)
	}
}

func TestAdminOnlyGates(t *testing.T) {
	for _, role := range []Role{RoleSalesperson, RoleInventory} {
		if CanDeleteCodes(Actor{Role: role}) == nil {
			t.Errorf("%s must not delete codes", role)
		}
		if CanManageAccounts(Actor{Role: role}) == nil {
			t.Errorf("%s must not manage accounts", role)
		}
	}
	if CanDeleteCodes(Actor{Role: RoleAdmin}) != nil || CanManageAccounts(Actor{Role: RoleAdmin}) != nil {
		t.Fatal("admin should pass admin gates")
	}
}

func TestScopeSalesperson(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	got := ScopeSalesperson(Actor{UserID: me, Role: RoleSalesperson}, &other)
	if got == nil || *got != me {
		t.Fatalf("salesperson must be pinned to self, got %v", got)
	}
	if ScopeSalesperson(Actor{Role: RoleAdmin}, nil) != nil {
		t.Fatal("admin without filter should see everyone")
	}
	got = ScopeSalesperson(Actor{Role: RoleInventory}, &other)
	if got == nil || *got != other {
		t.Fatalf("inventory filter should pass through, got %v", got)
	}
}

func TestCanManageReminder(t *testing.T) {
	owner := uuid.New()
	if err := CanManageReminder(Actor{UserID: owner, Role: RoleInventory}, owner); err != nil {
		t.Fatalf("owner should manage own reminder: %v", err)
	}
	if err := CanManageReminder(Actor{UserID: uuid.New(), Role: RoleSalesperson}, owner); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := CanManageReminder(Actor{Role: RoleAdmin}, owner); err != nil {
		t.Fatalf("admin should manage any reminder: %v", err)
	}
}
