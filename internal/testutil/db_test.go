package testutil

import (
	"strings"
	"testing"
)

func TestDatabaseName(t *testing.T) {
	a := DatabaseName("TestPages/Get_missing")
	if !strings.HasPrefix(a, "sst_TestPages_Get_missing_") {
		t.Errorf("DatabaseName = %q", a)
	}
	if a != DatabaseName("TestPages/Get_missing") {
		t.Error("DatabaseName is not stable")
	}
	if a == DatabaseName("TestPages/Get missing") {
		t.Error("names differing only in punctuation must not collide")
	}

	long := DatabaseName(strings.Repeat("TestVeryLongName", 10))
	if len(long) > 63 {
		t.Errorf("len = %d, want <= 63", len(long))
	}
}
