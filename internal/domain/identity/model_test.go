package identity

import (
	"testing"
	"time"

	"github.com/hms/hms/pkg/date"
)

func strPtr(s string) *string { return &s }

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleDoctor, RolePatient} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	for _, r := range []Role{"", "nurse", "Admin"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}

func TestUserUpdate_ApplyMergesOnlyProvidedFields(t *testing.T) {
	info := &UserInfo{
		NumDocument: "1001",
		Name:        strPtr("Ana"),
		Surname:     strPtr("Diaz"),
		Phone:       strPtr("555-0100"),
	}
	upd := UserUpdate{Phone: strPtr("555-0199"), Address: strPtr("Calle 1")}

	if !upd.Apply(info) {
		t.Fatal("expected a change")
	}
	if *info.Phone != "555-0199" {
		t.Errorf("phone not updated: %s", *info.Phone)
	}
	if info.Address == nil || *info.Address != "Calle 1" {
		t.Error("address not set")
	}
	if *info.Name != "Ana" || *info.Surname != "Diaz" {
		t.Error("untouched fields were modified")
	}
}

func TestUserUpdate_ApplyNoChange(t *testing.T) {
	bday := date.New(time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC))
	info := &UserInfo{NumDocument: "1001", Name: strPtr("Ana"), Birthday: &bday}

	same := date.New(time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC))
	upd := UserUpdate{Name: strPtr("Ana"), Birthday: &same}
	if upd.Apply(info) {
		t.Error("identical values should not count as a change")
	}
}

func TestUserUpdate_ApplyDoesNotAlias(t *testing.T) {
	info := &UserInfo{NumDocument: "1001"}
	name := "Ana"
	upd := UserUpdate{Name: &name}
	upd.Apply(info)
	name = "Other"
	if *info.Name != "Ana" {
		t.Error("applied value should be copied, not aliased")
	}
}

func TestUserUpdate_IsEmpty(t *testing.T) {
	if !(UserUpdate{}).IsEmpty() {
		t.Error("zero update should be empty")
	}
	if (UserUpdate{Email: strPtr("a@b.c")}).IsEmpty() {
		t.Error("update with email should not be empty")
	}
}
