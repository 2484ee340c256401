package protocol

import "testing"

func TestWireValues(t *testing.T) {
	tests := []struct {
		code Code
		want uint8
	}{
		{Flash, 0},
		{Sync, 1},
		{Desync, 2},
		{SyncOn, 3},
		{SyncOff, 4},
		{DesyncSyncOff, 5},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if uint8(tt.code) != tt.want {
				t.Errorf("got %d, want %d", uint8(tt.code), tt.want)
			}
			if !tt.code.Valid() {
				t.Error("expected code to be valid")
			}
		})
	}
}

func TestValid_OutOfRange(t *testing.T) {
	for _, c := range []Code{6, 42, 255} {
		if c.Valid() {
			t.Errorf("code %d should be invalid", c)
		}
	}
}

func TestParse(t *testing.T) {
	t.Run("round trips every name", func(t *testing.T) {
		for _, name := range Names() {
			c, err := Parse(name)
			if err != nil {
				t.Fatalf("Parse(%q): %v", name, err)
			}
			if c.String() != name {
				t.Errorf("Parse(%q) = %v", name, c)
			}
		}
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		c, err := Parse("  Sync-On ")
		if err != nil {
			t.Fatal(err)
		}
		if c != SyncOn {
			t.Errorf("got %v, want sync-on", c)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, err := Parse("dance"); err == nil {
			t.Error("expected error for unknown code")
		}
	})
}

func TestString_Unknown(t *testing.T) {
	if got := Code(9).String(); got != "code(9)" {
		t.Errorf("got %q", got)
	}
}
