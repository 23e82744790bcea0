package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/booking-service/internal/domain"
)

const activeRequestIndex = "service_requests_one_active_per_user"

// ServiceRequestRepository encapsulates service request persistence.
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	Update(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	FindActiveByUser(ctx context.Context, userID string) (*domain.ServiceRequest, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ServiceRequest, error)
	ListWithUsers(ctx context.Context) ([]domain.ServiceRequestWithUser, error)
	Delete(ctx context.Context, id string) (*domain.ServiceRequest, error)
	DeleteActiveOwned(ctx context.Context, id, userID string) (*domain.ServiceRequest, error)
}

type serviceRequestRepository struct {
	db DB
}

// NewServiceRequestRepository instantiates repository.
func NewServiceRequestRepository(db DB) ServiceRequestRepository {
	return &serviceRequestRepository{db: db}
}

const serviceRequestColumns = `id, user_id, package, status, address, address_extra, phone, created_at, updated_at`

func activeStatusArgs() []string {
	statuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

func (r *serviceRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (user_id, package, status, address, address_extra, phone)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		req.UserID,
		req.Package,
		req.Status,
		req.Address,
		req.AddressExtra,
		req.Phone,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	return translateWriteError(err)
}

func (r *serviceRequestRepository) Update(ctx context.Context, req *domain.ServiceRequest) error {
	const query = `
        UPDATE service_requests SET package=$1, status=$2, address=$3, address_extra=$4, phone=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		req.Package,
		req.Status,
		req.Address,
		req.AddressExtra,
		req.Phone,
		req.ID,
	).Scan(&req.UpdatedAt)
	return translateWriteError(err)
}

func (r *serviceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests WHERE id=$1`
	return scanServiceRequest(r.db.QueryRow(ctx, query, id))
}

// FindActiveByUser returns the oldest active request of the user.
func (r *serviceRequestRepository) FindActiveByUser(ctx context.Context, userID string) (*domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests
        WHERE user_id=$1 AND status = ANY($2)
        ORDER BY created_at ASC LIMIT 1`
	return scanServiceRequest(r.db.QueryRow(ctx, query, userID, activeStatusArgs()))
}

func (r *serviceRequestRepository) ListByUser(ctx context.Context, userID string) ([]domain.ServiceRequest, error) {
	query := `SELECT ` + serviceRequestColumns + ` FROM service_requests
        WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ServiceRequest, 0)
	for rows.Next() {
		req, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *serviceRequestRepository) ListWithUsers(ctx context.Context) ([]domain.ServiceRequestWithUser, error) {
	const query = `
        SELECT s.id, s.user_id, s.package, s.status, s.address, s.address_extra, s.phone, s.created_at, s.updated_at,
               u.full_name, u.email, u.phone
        FROM service_requests s
        JOIN users u ON u.id = s.user_id
        ORDER BY s.created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ServiceRequestWithUser, 0)
	for rows.Next() {
		var item domain.ServiceRequestWithUser
		ref := &domain.UserRef{}
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Package,
			&item.Status,
			&item.Address,
			&item.AddressExtra,
			&item.Phone,
			&item.CreatedAt,
			&item.UpdatedAt,
			&ref.FullName,
			&ref.Email,
			&ref.Phone,
		); err != nil {
			return nil, err
		}
		ref.ID = item.UserID
		item.User = ref
		result = append(result, item)
	}
	return result, rows.Err()
}

// Delete removes the request and returns the removed row.
func (r *serviceRequestRepository) Delete(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	query := `DELETE FROM service_requests WHERE id=$1 RETURNING ` + serviceRequestColumns
	return scanServiceRequest(r.db.QueryRow(ctx, query, id))
}

// DeleteActiveOwned removes the request only when it belongs to userID and is
// still active, in a single statement.
func (r *serviceRequestRepository) DeleteActiveOwned(ctx context.Context, id, userID string) (*domain.ServiceRequest, error) {
	query := `DELETE FROM service_requests WHERE id=$1 AND user_id=$2 AND status = ANY($3) RETURNING ` + serviceRequestColumns
	return scanServiceRequest(r.db.QueryRow(ctx, query, id, userID, activeStatusArgs()))
}

func translateWriteError(err error) error {
	switch code, constraint := pgErrorCode(err); {
	case code == pgUniqueViolation && constraint == activeRequestIndex:
		return ErrActiveRequestExists
	case code == pgForeignKeyViolation:
		return ErrOwnerNotFound
	}
	return err
}

func scanServiceRequest(row pgx.Row) (*domain.ServiceRequest, error) {
	var req domain.ServiceRequest
	if err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Package,
		&req.Status,
		&req.Address,
		&req.AddressExtra,
		&req.Phone,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
