package model

// MonitorResponse aggregates hub statistics for the monitor endpoint.
type MonitorResponse struct {
	Status      string          `json:"status"`
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats summarizes live WebSocket connections.
type ConnectionStats struct {
	TotalConnected  int `json:"totalConnected"`
	TotalIdentities int `json:"totalIdentities"`
}

// RoomStats summarizes room occupancy.
type RoomStats struct {
	TotalRooms int            `json:"totalRooms"`
	Occupancy  map[string]int `json:"occupancy"`
}

// ClientInfo describes one live connection.
type ClientInfo struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}
