package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/repository/memory"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockVaultRepository is a mock implementation of VaultRepository
type MockVaultRepository struct {
	mock.Mock
}

func (m *MockVaultRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vault, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vault), args.Error(1)
}

func (m *MockVaultRepository) GetByOwnerAndType(ctx context.Context, ownerID uuid.UUID, vaultType domain.VaultType) (*domain.Vault, error) {
	args := m.Called(ctx, ownerID, vaultType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vault), args.Error(1)
}

func (m *MockVaultRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Vault, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Vault), args.Error(1)
}

func (m *MockVaultRepository) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Vault, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*domain.Vault), args.Error(1)
}

func (m *MockVaultRepository) Create(ctx context.Context, vault *domain.Vault) error {
	args := m.Called(ctx, vault)
	return args.Error(0)
}

func (m *MockVaultRepository) Update(ctx context.Context, vault *domain.Vault) error {
	args := m.Called(ctx, vault)
	return args.Error(0)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OwnerProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OwnerProfile), args.Error(1)
}

func (m *MockProfileRepository) FindByPublicID(ctx context.Context, publicID int) ([]*domain.OwnerProfile, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OwnerProfile), args.Error(1)
}

func (m *MockProfileRepository) FindByEmail(ctx context.Context, email string) ([]*domain.OwnerProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OwnerProfile), args.Error(1)
}

func (m *MockProfileRepository) SetPensionTargetYear(ctx context.Context, ownerID uuid.UUID, year int) error {
	args := m.Called(ctx, ownerID, year)
	return args.Error(0)
}

// txStore runs units of work directly against the mocked repositories
type txStore struct {
	repos domain.Repositories
}

func (s *txStore) Repositories() domain.Repositories { return s.repos }

func (s *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return fn(ctx, s.repos)
}

func TestOpenAccount_VaultsMissing(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	vaultRepo := new(MockVaultRepository)
	profileRepo := new(MockProfileRepository)
	service := NewAccountService(&txStore{repos: domain.Repositories{Vaults: vaultRepo, Profiles: profileRepo}})

	profileRepo.On("GetByID", ctx, ownerID).Return(&domain.OwnerProfile{ID: ownerID}, nil)
	for _, vt := range domain.AllVaultTypes {
		vaultRepo.On("GetByOwnerAndType", ctx, ownerID, vt).Return(nil, domain.ErrVaultNotFound)
	}
	vaultRepo.On("Create", ctx, mock.MatchedBy(func(v *domain.Vault) bool {
		return v.OwnerID == ownerID && v.Balance.IsZero() && v.VestingStartDate == nil
	})).Return(nil).Times(3)

	vaults, err := service.OpenAccount(ctx, ownerID)

	require.NoError(t, err)
	require.Len(t, vaults, 3)
	assert.Equal(t, domain.VaultTypeGeneral, vaults[0].VaultType)
	assert.Equal(t, domain.VaultTypeEmergency, vaults[1].VaultType)
	assert.Equal(t, domain.VaultTypePension, vaults[2].VaultType)
	vaultRepo.AssertExpectations(t)
}

func TestOpenAccount_VaultsExist(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	vaultRepo := new(MockVaultRepository)
	profileRepo := new(MockProfileRepository)
	service := NewAccountService(&txStore{repos: domain.Repositories{Vaults: vaultRepo, Profiles: profileRepo}})

	profileRepo.On("GetByID", ctx, ownerID).Return(&domain.OwnerProfile{ID: ownerID}, nil)
	for _, vt := range domain.AllVaultTypes {
		vaultRepo.On("GetByOwnerAndType", ctx, ownerID, vt).Return(&domain.Vault{ID: uuid.New(), OwnerID: ownerID, VaultType: vt}, nil)
	}

	vaults, err := service.OpenAccount(ctx, ownerID)

	require.NoError(t, err)
	assert.Len(t, vaults, 3)
	vaultRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOpenAccount_CreateError(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	vaultRepo := new(MockVaultRepository)
	profileRepo := new(MockProfileRepository)
	service := NewAccountService(&txStore{repos: domain.Repositories{Vaults: vaultRepo, Profiles: profileRepo}})

	profileRepo.On("GetByID", ctx, ownerID).Return(&domain.OwnerProfile{ID: ownerID}, nil)
	vaultRepo.On("GetByOwnerAndType", ctx, ownerID, domain.VaultTypeGeneral).Return(nil, domain.ErrVaultNotFound)
	vaultRepo.On("Create", ctx, mock.Anything).Return(errors.New("database error"))

	_, err := service.OpenAccount(ctx, ownerID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create general vault")
}

func TestOpenAccount_UnknownOwner(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	profileRepo := new(MockProfileRepository)
	service := NewAccountService(&txStore{repos: domain.Repositories{Vaults: new(MockVaultRepository), Profiles: profileRepo}})

	profileRepo.On("GetByID", ctx, ownerID).Return(nil, domain.ErrProfileNotFound)

	_, err := service.OpenAccount(ctx, ownerID)

	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestOpenAccount_IdempotentWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ownerID := uuid.New()
	store.AddProfile(&domain.OwnerProfile{ID: ownerID, DisplayName: "Ana", Email: "ana@example.com", PublicID: 123456})
	service := NewAccountService(store)

	first, err := service.OpenAccount(ctx, ownerID)
	require.NoError(t, err)
	second, err := service.OpenAccount(ctx, ownerID)
	require.NoError(t, err)

	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	vaults, err := store.Repositories().Vaults.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, vaults, 3)
}

func TestSetPensionTargetYear(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	profileRepo := new(MockProfileRepository)
	service := NewAccountService(&txStore{repos: domain.Repositories{Profiles: profileRepo}})
	service.Now = func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }

	profileRepo.On("SetPensionTargetYear", ctx, ownerID, 2050).Return(nil)

	require.NoError(t, service.SetPensionTargetYear(ctx, ownerID, 2050))

	err := service.SetPensionTargetYear(ctx, ownerID, 2030)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)

	profileRepo.AssertNumberOfCalls(t, "SetPensionTargetYear", 1)
}

func TestSetPensionTargetYear_UnknownOwner(t *testing.T) {
	ctx := context.Background()
	profileRepo := new(MockProfileRepository)
	service := NewAccountService(&txStore{repos: domain.Repositories{Profiles: profileRepo}})

	profileRepo.On("SetPensionTargetYear", ctx, mock.Anything, mock.Anything).Return(domain.ErrProfileNotFound)

	err := service.SetPensionTargetYear(ctx, uuid.New(), time.Now().Year()+20)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
