package panels

import (
	"strings"
	"testing"
)

func TestRenderFooter_EachFocusTarget(t *testing.T) {
	tests := []struct {
		focus string
		hints []string
	}{
		{"swarm", []string{"h/j/k/l:select"}},
		{"nodes", []string{"j/k:select"}},
		{"events", []string{"f:follow", "[/]:tab", "ctrl+u/d:scroll"}},
		{"secondary", []string{"[/]:tab", "j/k:scroll"}},
		{"unknown", []string{"tab:next panel"}},
	}

	for _, tt := range tests {
		t.Run(tt.focus, func(t *testing.T) {
			rendered := RenderFooter(FooterProps{Focus: tt.focus, Selected: -1}, 200)
			for _, hint := range tt.hints {
				if !strings.Contains(rendered, hint) {
					t.Errorf("RenderFooter(focus=%q) missing hint %q; got %q", tt.focus, hint, rendered)
				}
			}
		})
	}
}

func TestRenderFooter_GlobalHintsAlwaysShown(t *testing.T) {
	rendered := RenderFooter(FooterProps{Focus: "events"}, 200)
	for _, global := range []string{"q:quit", "1-4:panel"} {
		if !strings.Contains(rendered, global) {
			t.Errorf("global hint %q missing; got %q", global, rendered)
		}
	}
}

func TestRenderFooter_Controls(t *testing.T) {
	off := RenderFooter(FooterProps{Focus: "swarm"}, 200)
	if strings.Contains(off, "A/B:remote") {
		t.Errorf("control hints shown without a controller; got %q", off)
	}
	on := RenderFooter(FooterProps{Focus: "swarm", ControlsEnabled: true}, 200)
	for _, hint := range []string{"a/b:node", "A/B:remote", "s/d/o/x/!:send"} {
		if !strings.Contains(on, hint) {
			t.Errorf("control hint %q missing; got %q", hint, on)
		}
	}
}

func TestRenderFooter_SelectionAndAction(t *testing.T) {
	rendered := RenderFooter(FooterProps{Selected: 3, LastAction: "remote sync-off"}, 200)
	for _, want := range []string{"node #3", "last: remote sync-off"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("footer missing %q; got %q", want, rendered)
		}
	}
}

func TestRenderFooter_EmptyActionFallback(t *testing.T) {
	rendered := RenderFooter(FooterProps{Selected: -1}, 200)
	if !strings.Contains(rendered, "last: —") {
		t.Errorf("expected fallback action; got %q", rendered)
	}
	if strings.Contains(rendered, "node #") {
		t.Errorf("no selection should omit node; got %q", rendered)
	}
}
