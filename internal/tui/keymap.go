package tui

// GlobalKeyBindings lists the keys that are always handled by the root model
// before dispatching to focused panels.
var GlobalKeyBindings = []string{
	"tab", "shift+tab", "1", "2", "3", "4", "q", "ctrl+c",
	"a", "b", "A", "B", "s", "d", "o", "x", "!",
}

// panelKeys maps each FocusTarget to the keys that panel handles internally.
var panelKeys = map[FocusTarget][]string{
	FocusSwarm:     {"h", "j", "k", "l", "left", "right", "up", "down"},
	FocusNodes:     {"j", "k", "up", "down"},
	FocusEvents:    {"f", "[", "]", "ctrl+u", "ctrl+d", "j", "k"},
	FocusSecondary: {"[", "]", "j", "k"},
}

// IsGlobalKey reports whether key is a global keybinding (handled before panel dispatch).
func IsGlobalKey(key string) bool {
	for _, k := range GlobalKeyBindings {
		if k == key {
			return true
		}
	}
	return false
}

// PanelKeys returns the list of keys handled by the given focused panel.
func PanelKeys(focus FocusTarget) []string {
	return panelKeys[focus]
}
