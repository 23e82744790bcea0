package domain

import "time"

// ServicePackage enumerates the bookable offerings.
type ServicePackage string

const (
	PackagePackUp      ServicePackage = "PackUp"
	PackageSecureStore ServicePackage = "Secure Store"
	PackageFullMove    ServicePackage = "Full Move"
	PackageCustomPlan  ServicePackage = "Custom Plan"
)

// ServicePackages lists every valid package in display order.
var ServicePackages = []ServicePackage{
	PackagePackUp,
	PackageSecureStore,
	PackageFullMove,
	PackageCustomPlan,
}

// Valid reports enum membership.
func (p ServicePackage) Valid() bool {
	for _, known := range ServicePackages {
		if p == known {
			return true
		}
	}
	return false
}

// ServiceStatus enumerates lifecycle states for a service request.
type ServiceStatus string

const (
	StatusCreated   ServiceStatus = "Created"
	StatusChecked   ServiceStatus = "Checked"
	StatusConfirmed ServiceStatus = "Confirmed"
	StatusCompleted ServiceStatus = "Completed"
)

// ServiceStatuses lists every status in lifecycle order.
var ServiceStatuses = []ServiceStatus{
	StatusCreated,
	StatusChecked,
	StatusConfirmed,
	StatusCompleted,
}

// ActiveStatuses is the set that counts toward the one-active-request limit.
var ActiveStatuses = []ServiceStatus{
	StatusCreated,
	StatusChecked,
	StatusConfirmed,
}

// Valid reports enum membership.
func (s ServiceStatus) Valid() bool {
	for _, known := range ServiceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsActive reports whether the status is in the active set.
func (s ServiceStatus) IsActive() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// ServiceRequest is a booking owned by exactly one user.
type ServiceRequest struct {
	ID           string
	UserID       string
	Package      ServicePackage
	Status       ServiceStatus
	Address      string
	AddressExtra *string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is the owner summary attached to admin listings.
type UserRef struct {
	ID       string
	FullName string
	Email    *string
	Phone    *string
}

// ServiceRequestWithUser pairs a request with its owner for admin views.
type ServiceRequestWithUser struct {
	ServiceRequest
	User *UserRef
}
