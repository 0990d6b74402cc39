package models

import (
	"time"
)

// Action is an entry of the event log. Target and action object are stored
// as content type / id pairs so any model can be referenced.
type Action struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Verb             string    `gorm:"size:128;not null;index" json:"verb"`
	Actor            string    `gorm:"size:64;index" json:"actor"`
	TargetType       string    `gorm:"size:64" json:"target_type"`
	TargetID         uint64    `gorm:"index" json:"target_id"`
	ActionObjectType string    `gorm:"size:64" json:"action_object_type,omitempty"`
	ActionObjectID   uint64    `json:"action_object_id,omitempty"`
	Timestamp        time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	Data             JSONMap   `json:"data,omitempty"`
}

// TableName overrides the table name for Action
func (Action) TableName() string {
	return "events_actions"
}
