package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/overland/internal/pkg/metrics"
)

// allPlansSubject matches every trip-planned event.
const allPlansSubject = "trips.planned.>"

const maxPlanIDLen = 64

var errBadPlanID = errors.New("plan_id may only contain letters, digits, '-' and '_'")

// wsMessage is sent from client to narrow or widen the event feed.
type wsMessage struct {
	Action string `json:"action"`  // "subscribe" | "unsubscribe"
	PlanID string `json:"plan_id"` // optional, "" = all plans
}

// planSubject maps a plan id to its NATS subject. Ids are a single subject
// token, so wildcards and separators are rejected.
func planSubject(planID string) (string, error) {
	if planID == "" {
		return allPlansSubject, nil
	}
	if len(planID) > maxPlanIDLen {
		return "", errBadPlanID
	}
	for _, r := range planID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", errBadPlanID
		}
	}
	return "trips.planned." + planID, nil
}

// supersededBy lists the current subjects a new subscription replaces. The
// global feed and per-plan feeds are exclusive so no event arrives twice.
func supersededBy(subject string, current []string) []string {
	var out []string
	for _, s := range current {
		if s == subject {
			continue
		}
		if subject == allPlansSubject || s == allPlansSubject {
			out = append(out, s)
		}
	}
	return out
}

// WebSocketHandler relays trip-planned events from NATS to connected
// clients. Every connection starts on the global feed. Sending
// {"action":"subscribe","plan_id":"..."} switches to per-plan feeds (several
// may be held at once); subscribing without a plan_id switches back to the
// global feed. {"action":"unsubscribe"} drops a feed.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription)

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		sub, err := nc.Subscribe(allPlansSubject, relay)
		if err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[allPlansSubject] = sub

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			subject, err := planSubject(m.PlanID)
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				current := make([]string, 0, len(subs))
				for k := range subs {
					current = append(current, k)
				}
				for _, old := range supersededBy(subject, current) {
					_ = subs[old].Unsubscribe()
					delete(subs, old)
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				s, exists := subs[subject]
				if !exists {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, subject)
				_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}
