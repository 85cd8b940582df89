package util

import "testing"

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("KG_TEST_STRING", "neo4j")
	t.Setenv("KG_TEST_BLANK", "  ")
	t.Setenv("KG_TEST_INT", " 512 ")
	t.Setenv("KG_TEST_BAD_INT", "five")
	t.Setenv("KG_TEST_FLOAT", "0.0")
	t.Setenv("KG_TEST_BOOL", "false")
	t.Setenv("KG_TEST_BAD_BOOL", "yes")

	if got := GetEnvString("KG_TEST_STRING", "x"); got != "neo4j" {
		t.Fatalf("GetEnvString = %q", got)
	}
	if got := GetEnvString("KG_TEST_BLANK", "files"); got != "files" {
		t.Fatalf("GetEnvString blank = %q, want default", got)
	}
	if got := GetEnvString("KG_TEST_MISSING", "files"); got != "files" {
		t.Fatalf("GetEnvString missing = %q, want default", got)
	}
	if got := GetEnvInt("KG_TEST_INT", 1); got != 512 {
		t.Fatalf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("KG_TEST_BAD_INT", 24); got != 24 {
		t.Fatalf("GetEnvInt bad = %d, want default", got)
	}
	if got := GetEnvNumeric("KG_TEST_FLOAT", 0.7); got != 0 {
		t.Fatalf("GetEnvNumeric = %v", got)
	}
	if got := GetEnvBool("KG_TEST_BOOL", true); got {
		t.Fatal("GetEnvBool = true, want false")
	}
	if got := GetEnvBool("KG_TEST_BAD_BOOL", true); !got {
		t.Fatal("GetEnvBool bad = false, want default true")
	}
	if got := GetEnv("KG_TEST_MISSING"); got != "" {
		t.Fatalf("GetEnv missing = %q", got)
	}
}
