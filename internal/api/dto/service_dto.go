package dto

import (
	"time"

	"github.com/spec-kit/booking-service/internal/domain"
)

// CreateServiceRequest payload. Field checks happen in the booking service
// so that an existing active request is reported first.
type CreateServiceRequest struct {
	Package      string  `json:"package"`
	Address      string  `json:"address"`
	AddressExtra *string `json:"address_extra"`
	Phone        *string `json:"phone"`
}

// UpdateServiceRequest is a partial admin update.
type UpdateServiceRequest struct {
	Package      *string `json:"package" validate:"omitempty,max=50"`
	Status       *string `json:"status" validate:"omitempty,max=50"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	AddressExtra *string `json:"address_extra" validate:"omitempty,max=500"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
}

// ServiceResponse is the wire shape of a service request.
type ServiceResponse struct {
	ID           string                `json:"_id"`
	UserID       string                `json:"user_id"`
	Package      domain.ServicePackage `json:"package"`
	Status       domain.ServiceStatus  `json:"status"`
	Address      string                `json:"address"`
	AddressExtra *string               `json:"address_extra,omitempty"`
	Phone        *string               `json:"phone,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// UserRefResponse is the owner summary attached to admin listings.
type UserRefResponse struct {
	ID       string  `json:"_id"`
	FullName string  `json:"full_name"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// AdminServiceResponse replaces user_id with the owner summary.
type AdminServiceResponse struct {
	ServiceResponse
	User *UserRefResponse `json:"user_id"`
}

// NewServiceResponse maps a domain request.
func NewServiceResponse(r *domain.ServiceRequest) ServiceResponse {
	return ServiceResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		Package:      r.Package,
		Status:       r.Status,
		Address:      r.Address,
		AddressExtra: r.AddressExtra,
		Phone:        r.Phone,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// NewServiceList maps a slice of requests.
func NewServiceList(requests []domain.ServiceRequest) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(requests))
	for i := range requests {
		out = append(out, NewServiceResponse(&requests[i]))
	}
	return out
}

// NewAdminServiceResponse maps a request joined with its owner.
func NewAdminServiceResponse(r *domain.ServiceRequestWithUser) AdminServiceResponse {
	resp := AdminServiceResponse{ServiceResponse: NewServiceResponse(&r.ServiceRequest)}
	if r.User != nil {
		resp.User = &UserRefResponse{
			ID:       r.User.ID,
			FullName: r.User.FullName,
			Email:    r.User.Email,
			Phone:    r.User.Phone,
		}
	}
	return resp
}

// NewAdminServiceList maps joined requests.
func NewAdminServiceList(requests []domain.ServiceRequestWithUser) []AdminServiceResponse {
	out := make([]AdminServiceResponse, 0, len(requests))
	for i := range requests {
		out = append(out, NewAdminServiceResponse(&requests[i]))
	}
	return out
}
