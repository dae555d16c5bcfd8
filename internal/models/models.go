// Package models holds the gorm models persisted by the panel.
package models

// All returns every model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Website{},
		&Database{},
		&FirewallRule{},
		&IPWhitelist{},
		&OperationLog{},
		&File{},
		&ServerConnection{},
		&DeploymentHistory{},
		&Notification{},
		&NotificationProvider{},
	}
}
