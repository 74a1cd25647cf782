package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Coordinates is a point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Validate rejects NaN, infinities and out-of-range values.
func (c Coordinates) Validate() error {
	return validate.Struct(c)
}

// CoordinatesFrom builds a location from nullable columns. It returns nil
// when either component is absent.
func CoordinatesFrom(lat, lng *float64) (*Coordinates, error) {
	if lat == nil || lng == nil {
		return nil, nil
	}
	c := &Coordinates{Latitude: *lat, Longitude: *lng}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
