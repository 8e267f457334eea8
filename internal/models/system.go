package models

// SystemStatus is the persisted availability flag of the portal
type SystemStatus struct {
	IsActive bool `json:"isActive"`
}

// DefaultSystemStatus is written the first time the status document is read
func DefaultSystemStatus() SystemStatus {
	return SystemStatus{IsActive: true}
}
