package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestRole_IsValid(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{"Valid Role: Admin", RoleAdmin, true},
		{"Valid Role: Student", RoleStudent, true},
		{"Invalid Role: Unknown", Role("staff"), false},
		{"Invalid Role: Empty String", Role(""), false},
		{"Invalid Role: Wrong Case", Role("Admin"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.want {
				t.Errorf("Role.IsValid() for role '%s' = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestListRoles(t *testing.T) {
	got := ListRoles()
	if strings.Join(got, ",") != "admin,student" {
		t.Errorf("ListRoles() = %v, want [admin student]", got)
	}
}

func TestRole_UnmarshalText(t *testing.T) {
	type TestStruct struct {
		MyRole Role `json:"my_role"`
	}

	tests := []struct {
		name        string
		input       []byte
		wantRole    Role
		wantErr     bool
		errContains string
		viaJSON     bool
	}{
		{"Valid Role: Student", []byte(`student`), RoleStudent, false, "", false},
		{"Valid Role: Admin", []byte(`admin`), RoleAdmin, false, "", false},
		{"Invalid Role: Typo", []byte(`adminn`), "", true, "invalid role", false},
		{"Invalid Role: Empty String", []byte(``), "", true, "invalid role", false},
		{"Valid Role from JSON object", []byte(`{"my_role": "student"}`), RoleStudent, false, "", true},
		{"Invalid Role from JSON object", []byte(`{"my_role": "guest"}`), "", true, "invalid role", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Role
			var err error
			if tt.viaJSON {
				var ts TestStruct
				err = json.Unmarshal(tt.input, &ts)
				r = ts.MyRole
			} else {
				err = r.UnmarshalText(tt.input)
			}

			if (err != nil) != tt.wantErr {
				t.Fatalf("Role.UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Role.UnmarshalText() error = %v, want error containing '%s'", err, tt.errContains)
				}
				return
			}
			if r != tt.wantRole {
				t.Errorf("Role.UnmarshalText() got = %s, want %s", r, tt.wantRole)
			}
		})
	}
}

func TestRole_MarshalText(t *testing.T) {
	type TestStruct struct {
		MyRole Role `json:"my_role"`
	}

	for _, role := range []Role{RoleAdmin, RoleStudent} {
		t.Run(role.String(), func(t *testing.T) {
			jsonBytes, err := json.Marshal(TestStruct{MyRole: role})
			if err != nil {
				t.Fatalf("json.Marshal() returned an unexpected error: %v", err)
			}
			expected := fmt.Sprintf(`{"my_role":"%s"}`, role)
			if string(jsonBytes) != expected {
				t.Errorf("json.Marshal() got = %s, want %s", jsonBytes, expected)
			}
		})
	}
}
