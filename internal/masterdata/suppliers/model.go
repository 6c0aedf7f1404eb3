package suppliers

import (
	"time"
)

// Supplier represents a supplier entity
type Supplier struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Address         string    `json:"address,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	OrderContactURL string    `json:"order_contact_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Input is the editable part of a supplier.
type Input struct {
	Code            string `json:"code" validate:"required,max=32"`
	Name            string `json:"name" validate:"required,max=200"`
	Address         string `json:"address" validate:"max=500"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" validate:"max=32"`
	OrderContactURL string `json:"order_contact_url" validate:"omitempty,url"`
}

func (in Input) apply(s Supplier) Supplier {
	s.Code = in.Code
	s.Name = in.Name
	s.Address = in.Address
	s.Email = in.Email
	s.Phone = in.Phone
	s.OrderContactURL = in.OrderContactURL
	return s
}
