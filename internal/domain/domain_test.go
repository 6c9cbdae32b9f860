package domain

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw    string
		want   Role
		wantOK bool
	}{
		{"user", RoleUser, true},
		{"agent", RoleAgent, true},
		{"admin", RoleAdmin, true},
		{"Admin", "", false},
		{"", "", false},
		{"superuser", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRole_Registrable(t *testing.T) {
	if !RoleUser.Registrable() || !RoleAgent.Registrable() {
		t.Error("user and agent must be registrable")
	}
	if RoleAdmin.Registrable() {
		t.Error("admin must not be registrable")
	}
	if Role("ghost").Registrable() {
		t.Error("unknown role must not be registrable")
	}
}

func TestRole_IsStaff(t *testing.T) {
	if RoleUser.IsStaff() {
		t.Error("user is not staff")
	}
	if !RoleAgent.IsStaff() || !RoleAdmin.IsStaff() {
		t.Error("agent and admin are staff")
	}
}

func TestParseTicketStatus(t *testing.T) {
	for _, s := range TicketStatuses {
		if got, ok := ParseTicketStatus(string(s)); !ok || got != s {
			t.Errorf("ParseTicketStatus(%q) = (%q, %v)", s, got, ok)
		}
	}
	for _, raw := range []string{"open", "Closed", "in progress", ""} {
		if _, ok := ParseTicketStatus(raw); ok {
			t.Errorf("ParseTicketStatus(%q) unexpectedly accepted", raw)
		}
	}
}
