package vault

import (
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	path, key, err := ParseRef("vault:secret/hostcat/db#password")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if path != "secret/hostcat/db" || key != "password" {
		t.Fatalf("got %q %q", path, key)
	}
	if m, rel := splitMount(path); m != "secret" || rel != "hostcat/db" {
		t.Fatalf("splitMount = %q %q", m, rel)
	}

	for _, bad := range []string{
		"secret/hostcat#password",
		"vault:secret/hostcat",
		"vault:secret/hostcat#",
		"vault:hostcat#password",
		"vault:/secret#password",
	} {
		if _, _, err := ParseRef(bad); !errors.Is(err, ErrBadRef) {
			t.Errorf("ParseRef(%q) err = %v, want ErrBadRef", bad, err)
		}
	}
}
