package env

import "testing"

func TestGetString(t *testing.T) {
	t.Setenv("CHATKIT_TEST_STRING", "abc")
	t.Setenv("CHATKIT_TEST_EMPTY", "")

	if got := GetString("CHATKIT_TEST_STRING", "x"); got != "abc" {
		t.Errorf("GetString = %q", got)
	}
	if got := GetString("CHATKIT_TEST_UNSET", "x"); got != "x" {
		t.Errorf("GetString fallback = %q", got)
	}
	if got := GetString("CHATKIT_TEST_EMPTY", "x"); got != "" {
		t.Errorf("a set but empty variable should win, got %q", got)
	}
}
