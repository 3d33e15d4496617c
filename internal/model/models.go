package model

import (
	"regexp"
	"strings"
	"time"
)

// Base model fields shared by all models
type Base struct {
	UUID      string    `json:"uuid" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vehicle represents a fleet vehicle
type Vehicle struct {
	Base
	Plate      string  `json:"plate" gorm:"column:plate;uniqueIndex"`
	Model      string  `json:"model"`
	CurrentKm  float64 `json:"current_km" gorm:"column:current_km"`
	LastFuelKm float64 `json:"last_fuel_km" gorm:"column:last_fuel_km"`
	Active     bool    `json:"active" gorm:"default:true"`
}

// User represents a fleet operator
type User struct {
	Base
	Name   string `json:"name"`
	Email  string `json:"email" gorm:"uniqueIndex"`
	Phone  string `json:"phone" gorm:"uniqueIndex"`
	Active bool   `json:"active" gorm:"default:true"`
}

// FuelType defines the fuel of a supply record
type FuelType string

const (
	// FuelTypeGasoline represents gasoline
	FuelTypeGasoline FuelType = "GASOLINE"
	// FuelTypeEthanol represents ethanol
	FuelTypeEthanol FuelType = "ETHANOL"
	// FuelTypeDiesel represents diesel
	FuelTypeDiesel FuelType = "DIESEL"
)

// StationKind defines where a supply happened
type StationKind string

const (
	// StationInternal represents the fleet's own pump
	StationInternal StationKind = "INTERNAL"
	// StationExternal represents a third-party station
	StationExternal StationKind = "EXTERNAL"
)

// FuelSupply represents a single fill-up record.
// AverageKmPerLiter is owned by the recalculation engine and is never
// accepted from callers.
type FuelSupply struct {
	Base
	VehicleID         string      `json:"vehicle_id" gorm:"column:vehicle_id;type:uuid;index"`
	Vehicle           *Vehicle    `json:"-" gorm:"foreignKey:VehicleID"`
	UserID            *string     `json:"user_id" gorm:"column:user_id;type:uuid"`
	User              *User       `json:"-" gorm:"foreignKey:UserID"`
	SuppliedAt        time.Time   `json:"supplied_at" gorm:"column:supplied_at;index"`
	Km                float64     `json:"km"`
	Liters            float64     `json:"liters"`
	PricePerLiter     float64     `json:"price_per_liter"`
	TotalPrice        float64     `json:"total_price"`
	FuelType          FuelType    `json:"fuel_type"`
	StationKind       StationKind `json:"station_kind"`
	StationName       *string     `json:"station_name"`
	FullTank          bool        `json:"full_tank"`
	AverageKmPerLiter *float64    `json:"average_km_per_liter"`
}

// UsageEventType defines the type of usage event
type UsageEventType string

const (
	// UsageEntry represents a vehicle check-out (operator takes the vehicle)
	UsageEntry UsageEventType = "ENTRY"
	// UsageExit represents a vehicle check-in (operator returns the vehicle)
	UsageExit UsageEventType = "EXIT"
)

// UsageEvent represents a check-in/check-out event. Events are immutable
// once created; occupancy and trips are derived by replaying them.
type UsageEvent struct {
	Base
	VehicleID  string         `json:"vehicle_id" gorm:"column:vehicle_id;type:uuid;index"`
	Vehicle    *Vehicle       `json:"-" gorm:"foreignKey:VehicleID"`
	UserID     string         `json:"user_id" gorm:"column:user_id;type:uuid;index"`
	User       *User          `json:"-" gorm:"foreignKey:UserID"`
	Type       UsageEventType `json:"type"`
	OccurredAt time.Time      `json:"occurred_at" gorm:"column:occurred_at;index"`
	Km         float64        `json:"km"`
	Notes      string         `json:"notes"`
}

// FuelTypeFromString converts a string to a FuelType
func FuelTypeFromString(s string) FuelType {
	switch strings.ToUpper(s) {
	case "GASOLINE":
		return FuelTypeGasoline
	case "ETHANOL":
		return FuelTypeEthanol
	case "DIESEL":
		return FuelTypeDiesel
	default:
		return ""
	}
}

// StationKindFromString converts a string to a StationKind
func StationKindFromString(s string) StationKind {
	switch strings.ToUpper(s) {
	case "INTERNAL":
		return StationInternal
	case "EXTERNAL":
		return StationExternal
	default:
		return ""
	}
}

// UsageEventTypeFromString converts a string to a UsageEventType
func UsageEventTypeFromString(s string) UsageEventType {
	switch strings.ToUpper(s) {
	case "ENTRY":
		return UsageEntry
	case "EXIT":
		return UsageExit
	default:
		return ""
	}
}

var plateStrip = regexp.MustCompile(`[^A-Z0-9]`)

// NormalizePlate uppercases a plate and strips everything that is not
// alphanumeric, so "abc-1d23" and "ABC1D23" store identically.
func NormalizePlate(plate string) string {
	return plateStrip.ReplaceAllString(strings.ToUpper(plate), "")
}
