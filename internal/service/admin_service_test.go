package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/internal/events"
	apperrors "github.com/spec-kit/booking-service/pkg/util/errorutil"
)

func TestAdminService_Lists(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	ada := f.store.addUser("Ada", false)
	bob := f.store.addUser("Bob", false)
	first, err := f.booking.CreateRequest(ctx, ada.ID, CreateRequestInput{Package: domain.PackagePackUp, Address: "A"})
	require.NoError(t, err)
	second, err := f.booking.CreateRequest(ctx, bob.ID, CreateRequestInput{Package: domain.PackageFullMove, Address: "B"})
	require.NoError(t, err)

	t.Run("Should list users newest first", func(t *testing.T) {
		users, err := f.admin.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, bob.ID, users[0].ID)
	})

	t.Run("Should annotate requests with their owner", func(t *testing.T) {
		list, err := f.admin.ListServiceRequests(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
		require.NotNil(t, list[1].User)
		assert.Equal(t, "Ada", list[1].User.FullName)
		assert.Equal(t, ada.Email, list[1].User.Email)
	})
}

func TestAdminService_UpdateServiceRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Should accept any status regardless of the current one", func(t *testing.T) {
		f := newBookingFixture()
		user := f.store.addUser("Ada", false)
		admin := f.store.addUser("Root", true)
		req, err := f.booking.CreateRequest(ctx, user.ID, CreateRequestInput{Package: domain.PackagePackUp, Address: "A"})
		require.NoError(t, err)

		for _, status := range []domain.ServiceStatus{domain.StatusConfirmed, domain.StatusCreated, domain.StatusCompleted} {
			s := status
			updated, err := f.admin.UpdateServiceRequest(ctx, admin.ID, req.ID, UpdateRequestInput{Status: &s})
			require.NoError(t, err)
			assert.Equal(t, status, updated.Status)
			require.NotNil(t, updated.User)
			assert.Equal(t, user.ID, updated.User.ID)
		}
	})

	t.Run("Should only touch provided fields", func(t *testing.T) {
		f := newBookingFixture()
		user := f.store.addUser("Ada", false)
		phone := "+14045550100"
		req, err := f.booking.CreateRequest(ctx, user.ID, CreateRequestInput{Package: domain.PackagePackUp, Address: "A", Phone: &phone})
		require.NoError(t, err)

		pkg := domain.PackageCustomPlan
		empty := ""
		updated, err := f.admin.UpdateServiceRequest(ctx, "admin", req.ID, UpdateRequestInput{Package: &pkg, Phone: &empty})
		require.NoError(t, err)
		assert.Equal(t, domain.PackageCustomPlan, updated.Package)
		assert.Equal(t, "A", updated.Address)
		assert.Equal(t, domain.StatusCreated, updated.Status)
		assert.Nil(t, updated.Phone)
	})

	t.Run("Should carry the previous status in the event", func(t *testing.T) {
		f := newBookingFixture()
		user := f.store.addUser("Ada", false)
		req, err := f.booking.CreateRequest(ctx, user.ID, CreateRequestInput{Package: domain.PackagePackUp, Address: "A"})
		require.NoError(t, err)
		checked := domain.StatusChecked
		_, err = f.admin.UpdateServiceRequest(ctx, "admin", req.ID, UpdateRequestInput{Status: &checked})
		require.NoError(t, err)

		last := f.events.events[len(f.events.events)-1]
		assert.Equal(t, events.EventServiceRequestUpdated, last.Type)
		assert.Equal(t, events.ActorAdmin, last.Actor.Role)
		payload, ok := last.Payload.(events.ServiceRequestPayload)
		require.True(t, ok)
		assert.Equal(t, domain.StatusCreated, payload.OldStatus)
		assert.Equal(t, domain.StatusChecked, payload.Status)
	})

	t.Run("Should reject values outside the enums", func(t *testing.T) {
		f := newBookingFixture()
		user := f.store.addUser("Ada", false)
		req, err := f.booking.CreateRequest(ctx, user.ID, CreateRequestInput{Package: domain.PackagePackUp, Address: "A"})
		require.NoError(t, err)

		bogusStatus := domain.ServiceStatus("Lost")
		_, err = f.admin.UpdateServiceRequest(ctx, "admin", req.ID, UpdateRequestInput{Status: &bogusStatus})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

		bogusPkg := domain.ServicePackage("Teleport")
		_, err = f.admin.UpdateServiceRequest(ctx, "admin", req.ID, UpdateRequestInput{Package: &bogusPkg})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	})

	t.Run("Should refuse to reactivate when another request is active", func(t *testing.T) {
		f := newBookingFixture()
		user := f.store.addUser("Ada", false)
		old := &domain.ServiceRequest{UserID: user.ID, Package: domain.PackagePackUp, Status: domain.StatusCompleted, Address: "A"}
		require.NoError(t, f.requests.Create(ctx, old))
		current, err := f.booking.CreateRequest(ctx, user.ID, CreateRequestInput{Package: domain.PackageFullMove, Address: "B"})
		require.NoError(t, err)

		created := domain.StatusCreated
		_, err = f.admin.UpdateServiceRequest(ctx, "admin", old.ID, UpdateRequestInput{Status: &created})
		var conflict *ActiveRequestError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, current.ID, conflict.Active.ID)
	})

	t.Run("Should keep the owner id when the owner cannot be loaded", func(t *testing.T) {
		f := newBookingFixture()
		user := f.store.addUser("Ada", false)
		req, err := f.booking.CreateRequest(ctx, user.ID, CreateRequestInput{Package: domain.PackagePackUp, Address: "A"})
		require.NoError(t, err)

		admin := NewAdminService(AdminDependencies{
			UserRepo:    brokenUsers{fakeUsers{f.store}},
			RequestRepo: f.requests,
		})
		checked := domain.StatusChecked
		updated, err := admin.UpdateServiceRequest(ctx, "admin", req.ID, UpdateRequestInput{Status: &checked})
		require.NoError(t, err)
		require.NotNil(t, updated.User)
		assert.Equal(t, user.ID, updated.User.ID)
		assert.Empty(t, updated.User.FullName)

		f.store.mu.Lock()
		delete(f.store.users, user.ID)
		f.store.mu.Unlock()
		updated, err = f.admin.UpdateServiceRequest(ctx, "admin", req.ID, UpdateRequestInput{Status: &checked})
		require.NoError(t, err)
		require.NotNil(t, updated.User)
		assert.Equal(t, user.ID, updated.User.ID)
	})

	t.Run("Should answer NotFound for unknown ids", func(t *testing.T) {
		f := newBookingFixture()
		_, err := f.admin.UpdateServiceRequest(ctx, "admin", uuid.NewString(), UpdateRequestInput{})
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
		_, err = f.admin.UpdateServiceRequest(ctx, "admin", "nope", UpdateRequestInput{})
		assert.Equal(t, "Service not found", apperrors.ToDomainError(err).Message)
	})
}

func TestAdminService_DeleteServiceRequest(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	user := f.store.addUser("Ada", false)
	done := &domain.ServiceRequest{UserID: user.ID, Package: domain.PackagePackUp, Status: domain.StatusCompleted, Address: "A"}
	require.NoError(t, f.requests.Create(ctx, done))

	t.Run("Should delete requests in any status", func(t *testing.T) {
		require.NoError(t, f.admin.DeleteServiceRequest(ctx, "admin", done.ID))
		assert.Empty(t, f.store.requests)
		assert.Contains(t, f.events.types(), events.EventServiceRequestDeleted)
	})

	t.Run("Should answer NotFound twice over", func(t *testing.T) {
		err := f.admin.DeleteServiceRequest(ctx, "admin", done.ID)
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
		err = f.admin.DeleteServiceRequest(ctx, "admin", "garbage")
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	})
}

func TestAdminService_SetUserBan(t *testing.T) {
	ctx := context.Background()

	t.Run("Should ban and unban a regular user", func(t *testing.T) {
		f := newBookingFixture()
		user := f.store.addUser("Ada", false)
		banned, err := f.admin.SetUserBan(ctx, "admin", user.ID, true)
		require.NoError(t, err)
		assert.True(t, banned.IsBanned)

		unbanned, err := f.admin.SetUserBan(ctx, "admin", user.ID, false)
		require.NoError(t, err)
		assert.False(t, unbanned.IsBanned)
		assert.Equal(t, []events.EventType{events.EventUserBanChanged, events.EventUserBanChanged}, f.events.types())
	})

	t.Run("Should refuse to ban an admin", func(t *testing.T) {
		f := newBookingFixture()
		admin := f.store.addUser("Root", true)
		_, err := f.admin.SetUserBan(ctx, "admin", admin.ID, true)
		require.Error(t, err)
		de := apperrors.ToDomainError(err)
		assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
		assert.Equal(t, "Cannot ban an admin user", de.Message)
		assert.False(t, f.store.users[admin.ID].IsBanned)
	})

	t.Run("Should answer NotFound for unknown users", func(t *testing.T) {
		f := newBookingFixture()
		_, err := f.admin.SetUserBan(ctx, "admin", uuid.NewString(), true)
		assert.Equal(t, "User not found", apperrors.ToDomainError(err).Message)
	})
}

// brokenUsers fails owner lookups while the rest of the store works.
type brokenUsers struct{ fakeUsers }

func (brokenUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("users table unavailable")
}
