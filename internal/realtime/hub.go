package realtime

import (
	"log"
)

// Hub routes outbound events to the registry's live connections.
// Delivery is best effort: offline users and full queues are skipped silently.
type Hub struct {
	registry *Registry
}

// NewHub creates a hub on top of an injected registry
func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

// Registry exposes the hub's registry for the transport handler
func (h *Hub) Registry() *Registry {
	return h.registry
}

// PushToUser sends an event to every live connection of the user and returns
// how many connections accepted it. Zero connections is not an error.
func (h *Hub) PushToUser(userID, event string, payload any) int {
	clients := h.registry.UserClients(userID)
	if len(clients) == 0 {
		return 0
	}
	return h.send(clients, event, payload)
}

// PushToCompany sends an event to every live connection in a company
func (h *Hub) PushToCompany(companyID, event string, payload any) int {
	clients := h.registry.CompanyClients(companyID)
	if len(clients) == 0 {
		return 0
	}
	return h.send(clients, event, payload)
}

// IsOnline reports whether the user has a live connection
func (h *Hub) IsOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

func (h *Hub) send(clients []*Client, event string, payload any) int {
	data, err := EncodeFrame(event, payload)
	if err != nil {
		log.Printf("[SOCKET] Failed to encode %s: %v", event, err)
		return 0
	}

	delivered := 0
	for _, c := range clients {
		if c.enqueue(data) {
			delivered++
		} else {
			log.Printf("[SOCKET] Dropped %s for connection_id=%s user=%s (queue full or closed)", event, c.ID, c.UserID)
		}
	}
	return delivered
}

// Close disconnects every registered client
func (h *Hub) Close() {
	for _, c := range h.registry.All() {
		h.registry.Remove(c)
	}
}
