package hub

import (
	"github.com/nmanikumar5/Swappio-BE/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	occupancy := make(map[string]int)
	clients := make([]model.ClientInfo, 0)
	totalConnected := 0

	for _, shard := range ms.hub.shards {
		shard.RLock()
		for userID, room := range shard.rooms {
			occupancy[userID] = len(room)
			totalConnected += len(room)
			for _, c := range room {
				clients = append(clients, model.ClientInfo{
					ID:     c.ID,
					UserID: c.userID,
				})
			}
		}
		shard.RUnlock()
	}

	status := "healthy"
	if totalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			TotalConnected:  totalConnected,
			TotalIdentities: len(occupancy),
		},
		Rooms: model.RoomStats{
			TotalRooms: len(occupancy),
			Occupancy:  occupancy,
		},
		Clients: clients,
	}
}
