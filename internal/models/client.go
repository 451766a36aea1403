package models

import (
	"time"
)

// Client represents the buyer of record for one or more sales
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"not null" json:"full_name"`
	Phone     string    `json:"phone"`
	Identity  string    `gorm:"index" json:"identity"`
	Note      *string   `gorm:"type:text" json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Sales []Sale `gorm:"foreignKey:ClientID" json:"sales,omitempty"`
}

// TableName specifies the table name for Client
func (Client) TableName() string {
	return "clients"
}

// ClientResponse is the JSON response format for clients
type ClientResponse struct {
	ID       uint    `json:"id"`
	FullName string  `json:"full_name"`
	Phone    string  `json:"phone"`
	Identity string  `json:"identity"`
	Note     *string `json:"note"`
}

// ToResponse converts Client to ClientResponse, masking the identity
func (c *Client) ToResponse() ClientResponse {
	return ClientResponse{
		ID:       c.ID,
		FullName: c.FullName,
		Phone:    c.Phone,
		Identity: maskIdentity(c.Identity),
		Note:     c.Note,
	}
}

// maskIdentity masks an identity string for privacy
func maskIdentity(identity string) string {
	if len(identity) <= 4 {
		masked := ""
		for range identity {
			masked += "*"
		}
		return masked
	}
	masked := identity[:4]
	for i := 4; i < len(identity)-3; i++ {
		masked += "*"
	}
	masked += identity[len(identity)-3:]
	return masked
}
