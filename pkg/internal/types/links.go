package types

import "time"

// LinkInfo 文件与外部实体的引用视图.
type LinkInfo struct {
	ID               uint      `json:"id"`
	FileUID          string    `json:"file_uid"`
	LinkedEntityType string    `json:"linked_entity_type"`
	LinkedEntityUID  string    `json:"linked_entity_uid"`
	LinkedField      string    `json:"linked_field"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateLinkRequest 建立引用.
type CreateLinkRequest struct {
	FileUID          string `json:"file_uid"           rule:"required"`
	LinkedEntityType string `json:"linked_entity_type" rule:"required,max=128"`
	LinkedEntityUID  string `json:"linked_entity_uid"  rule:"required,max=64"`
	LinkedField      string `json:"linked_field"       rule:"required,max=128"`
}
