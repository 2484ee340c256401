// Package notify sends fire-and-forget HTTP notifications when a swarm
// synchronizes or scatters. The primary use case is ntfy.sh, but any HTTP
// webhook works.
package notify

import (
	"net/http"
	"strings"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/swarm"
)

// Notifier posts plain-text HTTP notifications for selected transitions.
type Notifier struct {
	url      string
	title    string
	onSync   bool
	onDesync bool
	client   *http.Client
}

// New creates a Notifier. title is used as the X-Title header; if empty,
// "Luciole" is used instead.
func New(notifURL, title string, onSync, onDesync bool) *Notifier {
	if title == "" {
		title = "Luciole"
	}
	return &Notifier{
		url:      notifURL,
		title:    title,
		onSync:   onSync,
		onDesync: onDesync,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Hook is a swarm.Options.OnTransition-compatible function. It fires
// asynchronous POSTs for transitions that match the configured flags.
func (n *Notifier) Hook(tr swarm.Transition) {
	switch tr.Kind {
	case swarm.TransitionSynced:
		if n.onSync {
			go n.post(tr.Message())
		}
	case swarm.TransitionScattered:
		if n.onDesync {
			go n.post(tr.Message())
		}
	}
}

// post sends a plain-text POST to the configured URL. Errors are silently
// discarded so notification failures never interrupt the swarm.
func (n *Notifier) post(message string) {
	req, err := http.NewRequest(http.MethodPost, n.url, strings.NewReader(message))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Title", n.title)
	resp, err := n.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
