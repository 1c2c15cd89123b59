package realtime

// Event names pushed to connected clients. Both carry a full incident record
// as the payload.
const (
	EventNewIncident    = "new_incident"
	EventUpdateIncident = "update_incident"
)

// Message is the wire envelope for all server-to-client events.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
