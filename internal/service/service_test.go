package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/EduardoVBF/frota-mirim-sub000/internal/domain"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/repository"
)

// Mock repositories for testing
type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) WithTx(tx *gorm.DB) repository.VehicleRepository {
	return m
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) GetByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) FindAllActive(ctx context.Context) ([]*model.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

// Mock UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) WithTx(tx *gorm.DB) repository.UserRepository {
	return m
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindAllActive(ctx context.Context) ([]*model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

// Mock UsageEventRepository for testing
type MockUsageEventRepository struct {
	mock.Mock
}

func (m *MockUsageEventRepository) WithTx(tx *gorm.DB) repository.UsageEventRepository {
	return m
}

func (m *MockUsageEventRepository) Create(ctx context.Context, event *model.UsageEvent) (*model.UsageEvent, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageEvent), args.Error(1)
}

func (m *MockUsageEventRepository) LatestByVehicle(ctx context.Context, vehicleID string) (*model.UsageEvent, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageEvent), args.Error(1)
}

func (m *MockUsageEventRepository) LatestByUser(ctx context.Context, userID string) (*model.UsageEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageEvent), args.Error(1)
}

func (m *MockUsageEventRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]model.UsageEvent, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UsageEvent), args.Error(1)
}

// Mock FuelSupplyRepository for testing
type MockFuelSupplyRepository struct {
	mock.Mock
}

func (m *MockFuelSupplyRepository) WithTx(tx *gorm.DB) repository.FuelSupplyRepository {
	return m
}

func (m *MockFuelSupplyRepository) Create(ctx context.Context, supply *model.FuelSupply) (*model.FuelSupply, error) {
	args := m.Called(ctx, supply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FuelSupply), args.Error(1)
}

func (m *MockFuelSupplyRepository) GetByID(ctx context.Context, id string) (*model.FuelSupply, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FuelSupply), args.Error(1)
}

func (m *MockFuelSupplyRepository) ListByVehicle(ctx context.Context, vehicleID string) ([]model.FuelSupply, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FuelSupply), args.Error(1)
}

func (m *MockFuelSupplyRepository) Save(ctx context.Context, supply *model.FuelSupply) error {
	args := m.Called(ctx, supply)
	return args.Error(0)
}

func (m *MockFuelSupplyRepository) SetAverage(ctx context.Context, id string, average *float64) error {
	args := m.Called(ctx, id, average)
	return args.Error(0)
}

func (m *MockFuelSupplyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// stubCache is a cache that always misses
type stubCache struct{}

func (stubCache) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	return nil, errors.New("cache miss")
}
func (stubCache) SetVehicle(ctx context.Context, vehicle *model.Vehicle) error { return nil }
func (stubCache) DeleteVehicle(ctx context.Context, id string) error           { return nil }
func (stubCache) GetLatestUsageByUser(ctx context.Context, userID string) (*model.UsageEvent, error) {
	return nil, errors.New("cache miss")
}
func (stubCache) SetLatestUsageByUser(ctx context.Context, userID string, event *model.UsageEvent) error {
	return nil
}
func (stubCache) DeleteLatestUsageByUser(ctx context.Context, userID string) error { return nil }
func (stubCache) FlushAll(ctx context.Context) error                               { return nil }

func TestRegisterVehicleNormalizesPlate(t *testing.T) {
	var created *model.Vehicle
	mockVehicleRepo := new(MockVehicleRepository)
	mockVehicleRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Vehicle")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Vehicle)
		}).
		Return(&model.Vehicle{}, nil)

	service := &vehicleService{vehicleRepo: mockVehicleRepo, cache: stubCache{}}

	_, err := service.Register(context.Background(), &RegisterVehicleRequest{
		Plate: "abc-1234",
		Model: "VW Gol",
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, "ABC1234", created.Plate)
	require.True(t, created.Active)
	mockVehicleRepo.AssertExpectations(t)
}

func TestRegisterVehicleDuplicatePlate(t *testing.T) {
	mockVehicleRepo := new(MockVehicleRepository)
	mockVehicleRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Vehicle")).
		Return(nil, repository.ErrDuplicateKey)

	service := &vehicleService{vehicleRepo: mockVehicleRepo, cache: stubCache{}}

	_, err := service.Register(context.Background(), &RegisterVehicleRequest{
		Plate: "ABC1234",
		Model: "VW Gol",
	})

	require.Error(t, err)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestCreateUserDuplicate(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
		Return(nil, repository.ErrDuplicateKey)

	service := &userService{userRepo: mockUserRepo}

	_, err := service.Create(context.Background(), &CreateUserRequest{
		Name:  "Ana",
		Email: "ana@example.com",
		Phone: "11999990000",
	})

	require.Error(t, err)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestLastTripBuildsFromHistory(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)

	mockVehicleRepo := new(MockVehicleRepository)
	mockVehicleRepo.On("GetByID", mock.Anything, "veh-1").
		Return(&model.Vehicle{Base: model.Base{UUID: "veh-1"}, Plate: "ABC1234", Active: true}, nil)

	mockUsageRepo := new(MockUsageEventRepository)
	mockUsageRepo.On("ListByVehicle", mock.Anything, "veh-1").Return([]model.UsageEvent{
		{VehicleID: "veh-1", UserID: "usr-1", Type: model.UsageEntry, OccurredAt: t1, Km: 100},
		{VehicleID: "veh-1", UserID: "usr-1", Type: model.UsageExit, OccurredAt: t2, Km: 150},
	}, nil)

	service := &usageService{
		vehicleRepo: mockVehicleRepo,
		usageRepo:   mockUsageRepo,
		cache:       stubCache{},
	}

	trip, err := service.LastTrip(context.Background(), "veh-1")

	require.NoError(t, err)
	require.NotNil(t, trip)
	require.Equal(t, "usr-1", trip.UserID)
	require.Equal(t, 50.0, trip.KmDriven)
	mockUsageRepo.AssertExpectations(t)
}

func TestLastTripUnknownVehicle(t *testing.T) {
	mockVehicleRepo := new(MockVehicleRepository)
	mockVehicleRepo.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	service := &usageService{
		vehicleRepo: mockVehicleRepo,
		usageRepo:   new(MockUsageEventRepository),
		cache:       stubCache{},
	}

	_, err := service.LastTrip(context.Background(), "missing")

	require.Error(t, err)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestVehiclesInUseFiltersOpenEntries(t *testing.T) {
	now := time.Now()
	busy := &model.Vehicle{Base: model.Base{UUID: "veh-busy"}, Plate: "AAA1111", Active: true}
	free := &model.Vehicle{Base: model.Base{UUID: "veh-free"}, Plate: "BBB2222", Active: true}

	mockVehicleRepo := new(MockVehicleRepository)
	mockVehicleRepo.On("FindAllActive", mock.Anything).Return([]*model.Vehicle{busy, free}, nil)

	mockUsageRepo := new(MockUsageEventRepository)
	mockUsageRepo.On("LatestByVehicle", mock.Anything, "veh-busy").
		Return(&model.UsageEvent{VehicleID: "veh-busy", UserID: "usr-1", Type: model.UsageEntry, OccurredAt: now, Km: 200}, nil)
	mockUsageRepo.On("LatestByVehicle", mock.Anything, "veh-free").
		Return(&model.UsageEvent{VehicleID: "veh-free", UserID: "usr-2", Type: model.UsageExit, OccurredAt: now, Km: 300}, nil)

	service := &usageService{
		vehicleRepo: mockVehicleRepo,
		usageRepo:   mockUsageRepo,
		cache:       stubCache{},
	}

	occupancies, err := service.VehiclesInUse(context.Background())

	require.NoError(t, err)
	require.Len(t, occupancies, 1)
	require.Equal(t, "veh-busy", occupancies[0].Vehicle.UUID)
	require.Equal(t, "usr-1", occupancies[0].UserID)
}

func TestCurrentVehicleByUserFree(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("GetByID", mock.Anything, "usr-1").
		Return(&model.User{Base: model.Base{UUID: "usr-1"}, Active: true}, nil)

	mockUsageRepo := new(MockUsageEventRepository)
	mockUsageRepo.On("LatestByUser", mock.Anything, "usr-1").
		Return(&model.UsageEvent{UserID: "usr-1", Type: model.UsageExit, OccurredAt: time.Now()}, nil)

	service := &usageService{
		userRepo:  mockUserRepo,
		usageRepo: mockUsageRepo,
		cache:     stubCache{},
	}

	occupancy, err := service.CurrentVehicleByUser(context.Background(), "usr-1")

	require.NoError(t, err)
	require.Nil(t, occupancy)
}

func TestCurrentVehicleByUserInUse(t *testing.T) {
	now := time.Now()

	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("GetByID", mock.Anything, "usr-1").
		Return(&model.User{Base: model.Base{UUID: "usr-1"}, Active: true}, nil)

	mockUsageRepo := new(MockUsageEventRepository)
	mockUsageRepo.On("LatestByUser", mock.Anything, "usr-1").
		Return(&model.UsageEvent{VehicleID: "veh-1", UserID: "usr-1", Type: model.UsageEntry, OccurredAt: now, Km: 120}, nil)

	mockVehicleRepo := new(MockVehicleRepository)
	mockVehicleRepo.On("GetByID", mock.Anything, "veh-1").
		Return(&model.Vehicle{Base: model.Base{UUID: "veh-1"}, Plate: "ABC1234", Active: true}, nil)

	service := &usageService{
		vehicleRepo: mockVehicleRepo,
		userRepo:    mockUserRepo,
		usageRepo:   mockUsageRepo,
		cache:       stubCache{},
	}

	occupancy, err := service.CurrentVehicleByUser(context.Background(), "usr-1")

	require.NoError(t, err)
	require.NotNil(t, occupancy)
	require.Equal(t, "veh-1", occupancy.Vehicle.UUID)
	require.Equal(t, 120.0, occupancy.Km)
}

func TestFuelSupplyGetByIDNotFound(t *testing.T) {
	mockFuelRepo := new(MockFuelSupplyRepository)
	mockFuelRepo.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	service := &fuelSupplyService{fuelRepo: mockFuelRepo}

	_, err := service.GetByID(context.Background(), "missing")

	require.Error(t, err)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
