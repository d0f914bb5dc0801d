package event

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

const (
	EventCategoryCreated         = "CREATED"
	EventCategoryDeleted         = "DELETED"
	EventCategoryPropertyUpdated = "PROPERTY_UPDATED"
	EventCategoryStatusChanged   = "STATUS_CHANGED"
)

type EventCategory string

type Event struct {
	SourceId   types.ID `json:"sourceId"`
	SourceType string   `json:"sourceType"`
	SourceDesc string   `json:"sourceDesc"`

	CreatorId   types.ID `json:"creatorId"`
	CreatorName string   `json:"creatorName"`

	EventCategory     EventCategory     `json:"eventCategory"`
	UpdatedProperties []UpdatedProperty `json:"updatedProperties"`

	Timestamp time.Time `json:"timestamp"`
}

type UpdatedProperty struct {
	PropertyName string `json:"propertyName"`
	OldValue     string `json:"oldValue"`
	NewValue     string `json:"newValue"`
}

func NewEvent(sourceType string, sourceId types.ID, sourceDesc string, category EventCategory,
	updatedProperties []UpdatedProperty, creatorId types.ID, creatorName string, timestamp time.Time) *Event {
	return &Event{
		SourceType: sourceType,
		SourceId:   sourceId,
		SourceDesc: sourceDesc,

		EventCategory:     category,
		UpdatedProperties: updatedProperties,

		CreatorId:   creatorId,
		CreatorName: creatorName,
		Timestamp:   timestamp,
	}
}
