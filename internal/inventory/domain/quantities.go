package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
)

const MessageBrokenExceedsActual = "broken cannot exceed actual"

// QuantityInput is one submitted material count.
type QuantityInput struct {
	ID     string              `json:"id"`
	Actual *int                `json:"actual"`
	Broken *int                `json:"broken"`
	Units  []UnitQuantityInput `json:"units,omitempty"`
}

type UnitQuantityInput struct {
	ID       string `json:"id"`
	IsLost   bool   `json:"isLost"`
	IsBroken bool   `json:"isBroken"`
	State    string `json:"state"`
}

// Count is a validated material count ready to be stored on a draft.
type Count struct {
	Material *materialdomain.Material
	Actual   *int
	Broken   *int
	Units    []UnitCount
}

type UnitCount struct {
	Unit     materialdomain.MaterialUnit
	IsLost   bool
	IsBroken bool
	State    string
}

// Catalog is the live data a submission is checked against.
type Catalog struct {
	ParkID     snowflake.ID
	Materials  map[snowflake.ID]*materialdomain.Material
	Units      map[snowflake.ID][]materialdomain.MaterialUnit
	ValidState func(string) bool
}

// ParseIDs returns the well-formed material ids of a submission.
func ParseIDs(inputs []QuantityInput) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(inputs))
	for _, in := range inputs {
		if id, err := snowflake.ParseString(strings.TrimSpace(in.ID)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ValidateQuantities checks a whole submission and reports every problem, keyed
// by material id.
func ValidateQuantities(inputs []QuantityInput, catalog Catalog) ([]Count, validation.Errors) {
	var errs validation.Errors
	counts := make([]Count, 0, len(inputs))
	seen := make(map[snowflake.ID]bool, len(inputs))

	for i, in := range inputs {
		id, err := snowflake.ParseString(strings.TrimSpace(in.ID))
		if err != nil {
			errs.Add(validation.Join(i, "id"), validation.CodeInvalid, "id is not a valid material id")
			continue
		}
		row := id.String()

		if seen[id] {
			errs.Add(validation.Join(row, "id"), validation.CodeAlreadyExists, "material submitted twice")
			continue
		}
		seen[id] = true

		material, ok := catalog.Materials[id]
		if !ok || material == nil {
			errs.Add(validation.Join(row, "id"), validation.CodeNotFound, "material does not exist")
			continue
		}
		if material.ParkID != catalog.ParkID {
			errs.Add(validation.Join(row, "id"), validation.CodeInvalid, "material does not belong to the inventory park")
			continue
		}

		count := Count{Material: material}
		if material.IsUnitary {
			count.Units = validateUnits(&errs, row, in.Units, catalog.Units[id], catalog.ValidState)
		} else {
			count.Actual, count.Broken = validateQuantity(&errs, row, in)
		}
		counts = append(counts, count)
	}
	return counts, errs
}

func validateQuantity(errs *validation.Errors, row string, in QuantityInput) (*int, *int) {
	if len(in.Units) > 0 {
		errs.Add(validation.Join(row, "units"), validation.CodeInvalid, "only unitary materials have units")
	}
	if in.Actual == nil {
		errs.Add(validation.Join(row, "actual"), validation.CodeRequired, "actual is required")
		return nil, nil
	}

	actual := *in.Actual
	broken := 0
	if in.Broken != nil {
		broken = *in.Broken
	}

	if actual < 0 {
		errs.Add(validation.Join(row, "actual"), validation.CodeOutOfRange, "actual cannot be negative")
	}
	if broken < 0 {
		errs.Add(validation.Join(row, "broken"), validation.CodeOutOfRange, "broken cannot be negative")
	} else if broken > actual {
		errs.Add(validation.Join(row, "broken"), validation.CodeOutOfRange, MessageBrokenExceedsActual)
	}
	return &actual, &broken
}

func validateUnits(errs *validation.Errors, row string, inputs []UnitQuantityInput, units []materialdomain.MaterialUnit, validState func(string) bool) []UnitCount {
	byID := make(map[snowflake.ID]materialdomain.MaterialUnit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}

	counts := make([]UnitCount, 0, len(inputs))
	submitted := make(map[snowflake.ID]bool, len(inputs))
	for i, in := range inputs {
		raw := strings.TrimSpace(in.ID)
		unitID, err := snowflake.ParseString(raw)
		if err != nil {
			errs.Add(validation.Join(row, "units", i, "id"), validation.CodeInvalid, "id is not a valid unit id")
			continue
		}
		unitRow := validation.Join(row, "units", unitID.String())

		unit, ok := byID[unitID]
		if !ok {
			errs.Add(validation.Join(unitRow, "id"), validation.CodeNotFound, "unit does not belong to the material")
			continue
		}
		if submitted[unitID] {
			errs.Add(validation.Join(unitRow, "id"), validation.CodeAlreadyExists, "unit submitted twice")
			continue
		}
		submitted[unitID] = true

		state := strings.TrimSpace(in.State)
		if in.IsLost && in.IsBroken {
			errs.Add(validation.Join(unitRow, "is_broken"), validation.CodeInvalid, "a unit cannot be both lost and broken")
		}
		if !validState(state) {
			errs.Add(validation.Join(unitRow, "state"), validation.CodeInvalid, "unknown unit state")
		}
		counts = append(counts, UnitCount{Unit: unit, IsLost: in.IsLost, IsBroken: in.IsBroken, State: state})
	}

	for _, u := range units {
		if !submitted[u.ID] {
			errs.Add(validation.Join(row, "units", u.ID.String()), validation.CodeRequired, "unit missing from submission")
		}
	}
	return counts
}
