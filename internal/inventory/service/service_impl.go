package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/internal/clock"
	"github.com/smallbiznis/rentalops/internal/config"
	inventorydomain "github.com/smallbiznis/rentalops/internal/inventory/domain"
	materialdomain "github.com/smallbiznis/rentalops/internal/material/domain"
	"github.com/smallbiznis/rentalops/internal/observability/metrics"
	parkdomain "github.com/smallbiznis/rentalops/internal/park/domain"
	"github.com/smallbiznis/rentalops/internal/validation"
	"github.com/smallbiznis/rentalops/pkg/db"
	"github.com/smallbiznis/rentalops/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MessageMissingMaterial = "not present in submitted inventory"

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	RentalCfg    *config.RentalConfigHolder
	Metrics      *metrics.Metrics `optional:"true"`
	Repo         inventorydomain.Repository
	ParkRepo     parkdomain.Repository
	MaterialRepo materialdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	rentalCfg *config.RentalConfigHolder
	metrics   *metrics.Metrics

	repo         inventorydomain.Repository
	parkRepo     parkdomain.Repository
	materialRepo materialdomain.Repository
}

func NewService(p ServiceParam) inventorydomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("inventory.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		rentalCfg:    p.RentalCfg,
		metrics:      p.Metrics,
		repo:         p.Repo,
		parkRepo:     p.ParkRepo,
		materialRepo: p.MaterialRepo,
	}
}

func (s *Service) GetOrCreateDraft(ctx context.Context, req inventorydomain.DraftRequest) (*inventorydomain.Response, error) {
	parkID, err := snowflake.ParseString(strings.TrimSpace(req.ParkID))
	if err != nil {
		return nil, inventorydomain.ErrInvalidID
	}
	park, err := s.parkRepo.FindByID(ctx, parkID)
	if err != nil {
		return nil, err
	}
	if park == nil {
		return nil, inventorydomain.ErrParkNotFound
	}

	draft, err := s.repo.FindDraft(ctx, s.db, park.ID)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		return s.toDetail(ctx, draft)
	}
	if park.IsArchived() {
		return nil, inventorydomain.ErrParkArchived
	}

	now := s.clock.Now()
	inv := &inventorydomain.Inventory{
		ID:          s.genID.Generate(),
		ParkID:      park.ID,
		DraftParkID: &park.ID,
		IsTmp:       true,
		AuthorID:    req.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, inv); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		// Another request opened the draft first.
		draft, err := s.repo.FindDraft(ctx, s.db, park.ID)
		if err != nil {
			return nil, err
		}
		if draft == nil {
			return nil, inventorydomain.ErrNotDraft
		}
		return s.toDetail(ctx, draft)
	}

	s.log.Info("draft inventory opened",
		zap.String("inventory_id", inv.ID.String()),
		zap.String("park_id", park.ID.String()),
	)
	resp := toResponse(inv, nil)
	return &resp, nil
}

// UpdateQuantities replaces the counts of a draft with the submission. Nothing
// is stored when any entry is invalid.
func (s *Service) UpdateQuantities(ctx context.Context, req inventorydomain.UpdateQuantitiesRequest) (*inventorydomain.Response, error) {
	invID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, inventorydomain.ErrInvalidID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.findDraft(ctx, tx, invID)
		if err != nil {
			return err
		}

		catalog, err := s.loadCatalog(ctx, tx, inv.ParkID, inventorydomain.ParseIDs(req.Quantities))
		if err != nil {
			return err
		}
		counts, errs := inventorydomain.ValidateQuantities(req.Quantities, catalog)
		if err := errs.Err(); err != nil {
			return err
		}

		existing, err := s.repo.ListMaterials(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		byMaterial := make(map[snowflake.ID]*inventorydomain.InventoryMaterial, len(existing))
		for i := range existing {
			byMaterial[existing[i].MaterialID] = &existing[i]
		}

		kept := make(map[snowflake.ID]bool, len(counts))
		for _, count := range counts {
			if err := s.storeCount(ctx, tx, inv, byMaterial[count.Material.ID], count); err != nil {
				return err
			}
			kept[count.Material.ID] = true
		}

		stale := make([]snowflake.ID, 0)
		for _, row := range existing {
			if !kept[row.MaterialID] {
				stale = append(stale, row.ID)
			}
		}
		if err := s.repo.DeleteMaterials(ctx, tx, stale); err != nil {
			return err
		}
		return s.repo.Touch(ctx, tx, inv.ID, s.clock.Now())
	})
	if err != nil {
		if _, ok := validation.As(err); ok {
			s.metrics.RecordInventoryRejected(ctx, "update_quantities", "validation")
		}
		return nil, err
	}

	s.log.Info("draft inventory updated",
		zap.String("inventory_id", invID.String()),
		zap.Int("materials", len(req.Quantities)),
	)
	return s.Get(ctx, invID.String())
}

func (s *Service) storeCount(ctx context.Context, tx *gorm.DB, inv *inventorydomain.Inventory, row *inventorydomain.InventoryMaterial, count inventorydomain.Count) error {
	create := row == nil
	if create {
		row = &inventorydomain.InventoryMaterial{
			ID:          s.genID.Generate(),
			InventoryID: inv.ID,
			MaterialID:  count.Material.ID,
		}
	}
	row.Name = count.Material.Name
	row.Reference = count.Material.Reference
	row.IsUnitary = count.Material.IsUnitary
	row.IsNew = count.Material.CreatedAt.After(inv.CreatedAt)
	row.StockQuantityCurrent = count.Actual
	row.OutOfOrderQuantityCurrent = count.Broken

	var err error
	if create {
		err = s.repo.CreateMaterial(ctx, tx, row)
	} else {
		err = s.repo.UpdateMaterial(ctx, tx, row)
	}
	if err != nil {
		return err
	}

	units := make([]inventorydomain.InventoryMaterialUnit, 0, len(count.Units))
	for _, u := range count.Units {
		units = append(units, inventorydomain.InventoryMaterialUnit{
			ID:                  s.genID.Generate(),
			InventoryMaterialID: row.ID,
			MaterialUnitID:      u.Unit.ID,
			Reference:           u.Unit.Reference,
			IsNew:               row.IsNew || u.Unit.CreatedAt.After(inv.CreatedAt),
			IsLostCurrent:       u.IsLost,
			IsBrokenCurrent:     u.IsBroken,
			StateCurrent:        u.State,
		})
	}
	return s.repo.ReplaceUnits(ctx, tx, row.ID, units)
}

// Terminate commits a draft onto the live materials and freezes it. Every
// active material of the park must have been counted.
func (s *Service) Terminate(ctx context.Context, id string) (*inventorydomain.Response, error) {
	invID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, inventorydomain.ErrInvalidID
	}

	var parkID snowflake.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.findDraft(ctx, tx, invID)
		if err != nil {
			return err
		}
		parkID = inv.ParkID

		rows, err := s.repo.ListMaterials(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		active, err := s.materialRepo.ListActiveByPark(ctx, tx, inv.ParkID)
		if err != nil {
			return err
		}

		counted := make(map[snowflake.ID]bool, len(rows))
		for _, row := range rows {
			counted[row.MaterialID] = true
		}
		var errs validation.Errors
		for _, m := range active {
			if !counted[m.ID] {
				errs.Add(m.ID.String(), validation.CodeRequired, MessageMissingMaterial)
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}

		materials := make(map[snowflake.ID]*materialdomain.Material, len(active))
		for i := range active {
			materials[active[i].ID] = &active[i]
		}
		now := s.clock.Now()
		for i := range rows {
			if err := s.commitRow(ctx, tx, inv, &rows[i], materials, now); err != nil {
				return err
			}
		}

		finalized, err := s.repo.Finalize(ctx, tx, inv.ID, now)
		if err != nil {
			return err
		}
		if !finalized {
			return inventorydomain.ErrNotDraft
		}
		return nil
	})
	if err != nil {
		if _, ok := validation.As(err); ok {
			s.metrics.RecordInventoryRejected(ctx, "terminate", "missing_material")
		}
		return nil, err
	}

	s.metrics.RecordInventoryTerminated(ctx, parkID.String())
	s.log.Info("inventory terminated",
		zap.String("inventory_id", invID.String()),
		zap.String("park_id", parkID.String()),
	)
	return s.Get(ctx, invID.String())
}

// commitRow records the replaced live values as previous ones, unless the
// material appeared after the inventory was opened, then writes the counted
// values onto the live material.
func (s *Service) commitRow(ctx context.Context, tx *gorm.DB, inv *inventorydomain.Inventory, row *inventorydomain.InventoryMaterial, materials map[snowflake.ID]*materialdomain.Material, now time.Time) error {
	material, ok := materials[row.MaterialID]
	if !ok {
		found, err := s.materialRepo.FindByID(ctx, tx, row.MaterialID)
		if err != nil {
			return err
		}
		if found == nil {
			s.log.Warn("counted material no longer exists", zap.String("material_id", row.MaterialID.String()))
			return nil
		}
		material = found
	}

	row.IsNew = material.CreatedAt.After(inv.CreatedAt)
	if material.IsUnitary {
		if err := s.commitUnits(ctx, tx, inv, row, material, now); err != nil {
			return err
		}
	} else {
		row.StockQuantityPrevious = nil
		row.OutOfOrderQuantityPrevious = nil
		if !row.IsNew {
			stock, outOfOrder := material.StockQuantity, material.OutOfOrderQuantity
			row.StockQuantityPrevious = &stock
			row.OutOfOrderQuantityPrevious = &outOfOrder
		}
		if row.StockQuantityCurrent != nil && row.OutOfOrderQuantityCurrent != nil {
			err := s.materialRepo.UpdateStock(ctx, tx, material.ID, *row.StockQuantityCurrent, *row.OutOfOrderQuantityCurrent, now)
			if err != nil {
				return err
			}
		}
	}
	return s.repo.UpdateMaterial(ctx, tx, row)
}

func (s *Service) commitUnits(ctx context.Context, tx *gorm.DB, inv *inventorydomain.Inventory, row *inventorydomain.InventoryMaterial, material *materialdomain.Material, now time.Time) error {
	live, err := s.materialRepo.ListUnits(ctx, tx, []snowflake.ID{material.ID})
	if err != nil {
		return err
	}
	index := make(map[snowflake.ID]int, len(live))
	for i, u := range live {
		index[u.ID] = i
	}

	for i := range row.Units {
		counted := &row.Units[i]
		j, ok := index[counted.MaterialUnitID]
		if !ok {
			continue
		}
		unit := &live[j]

		counted.IsNew = row.IsNew || unit.CreatedAt.After(inv.CreatedAt)
		counted.IsLostPrevious, counted.IsBrokenPrevious, counted.StatePrevious = nil, nil, nil
		if !counted.IsNew {
			lost, broken, state := unit.IsLost, unit.IsBroken, unit.State
			counted.IsLostPrevious = &lost
			counted.IsBrokenPrevious = &broken
			counted.StatePrevious = &state
		}
		if err := s.repo.UpdateUnit(ctx, tx, counted); err != nil {
			return err
		}

		unit.IsLost = counted.IsLostCurrent
		unit.IsBroken = counted.IsBrokenCurrent
		unit.State = counted.StateCurrent
		unit.UpdatedAt = now
		if err := s.materialRepo.UpdateUnitState(ctx, tx, unit); err != nil {
			return err
		}
	}

	stock, outOfOrder := materialdomain.DeriveUnitQuantities(live)
	return s.materialRepo.UpdateStock(ctx, tx, material.ID, stock, outOfOrder, now)
}

func (s *Service) Get(ctx context.Context, id string) (*inventorydomain.Response, error) {
	invID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, inventorydomain.ErrInvalidID
	}
	inv, err := s.repo.FindByID(ctx, s.db, invID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, inventorydomain.ErrNotFound
	}
	return s.toDetail(ctx, inv)
}

func (s *Service) ListByPark(ctx context.Context, req inventorydomain.ListRequest) (*inventorydomain.ListResponse, error) {
	parkID, err := snowflake.ParseString(strings.TrimSpace(req.ParkID))
	if err != nil {
		return nil, inventorydomain.ErrInvalidID
	}
	after, err := pagination.DecodeCursor(strings.TrimSpace(req.PageToken))
	if err != nil {
		return nil, validation.New("page_token", validation.CodeInvalid, "page_token is invalid")
	}

	size := req.Size()
	items, err := s.repo.ListFinalized(ctx, s.db, parkID, after, size+1)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			return nil, validation.New("page_token", validation.CodeInvalid, "page_token is invalid")
		}
		return nil, err
	}

	items, pageInfo, err := pagination.Page(items, size, func(inv inventorydomain.Inventory) pagination.Cursor {
		c := pagination.Cursor{ID: inv.ID.String()}
		if inv.Date != nil {
			c.At = *inv.Date
		}
		return c
	})
	if err != nil {
		return nil, err
	}

	resp := &inventorydomain.ListResponse{
		Inventories: make([]inventorydomain.Response, 0, len(items)),
		PageInfo:    pageInfo,
	}
	for i := range items {
		resp.Inventories = append(resp.Inventories, toResponse(&items[i], nil))
	}
	return resp, nil
}

// DeleteDraft cancels a counting session. Finalized inventories are kept forever.
func (s *Service) DeleteDraft(ctx context.Context, id string) error {
	invID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return inventorydomain.ErrInvalidID
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.findDraft(ctx, tx, invID)
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, inv.ID)
	})
	if err != nil {
		return err
	}
	s.log.Info("draft inventory deleted", zap.String("inventory_id", invID.String()))
	return nil
}

func (s *Service) findDraft(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*inventorydomain.Inventory, error) {
	inv, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, inventorydomain.ErrNotFound
	}
	if !inv.IsTmp {
		return nil, inventorydomain.ErrNotDraft
	}
	return inv, nil
}

func (s *Service) loadCatalog(ctx context.Context, tx *gorm.DB, parkID snowflake.ID, ids []snowflake.ID) (inventorydomain.Catalog, error) {
	catalog := inventorydomain.Catalog{
		ParkID:     parkID,
		Materials:  make(map[snowflake.ID]*materialdomain.Material, len(ids)),
		Units:      make(map[snowflake.ID][]materialdomain.MaterialUnit),
		ValidState: s.rentalCfg.Get().HasUnitState,
	}

	unitary := make([]snowflake.ID, 0)
	for _, id := range ids {
		material, err := s.materialRepo.FindByID(ctx, tx, id)
		if err != nil {
			return catalog, err
		}
		if material == nil {
			continue
		}
		catalog.Materials[id] = material
		if material.IsUnitary {
			unitary = append(unitary, id)
		}
	}

	units, err := s.materialRepo.ListUnits(ctx, tx, unitary)
	if err != nil {
		return catalog, err
	}
	for _, u := range units {
		catalog.Units[u.MaterialID] = append(catalog.Units[u.MaterialID], u)
	}
	return catalog, nil
}

func (s *Service) toDetail(ctx context.Context, inv *inventorydomain.Inventory) (*inventorydomain.Response, error) {
	rows, err := s.repo.ListMaterials(ctx, s.db, inv.ID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(inv, rows)
	return &resp, nil
}

func toResponse(inv *inventorydomain.Inventory, rows []inventorydomain.InventoryMaterial) inventorydomain.Response {
	resp := inventorydomain.Response{
		ID:        inv.ID.String(),
		ParkID:    inv.ParkID.String(),
		IsTmp:     inv.IsTmp,
		Date:      inv.Date,
		AuthorID:  inv.AuthorID,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
	for _, row := range rows {
		m := inventorydomain.MaterialResponse{
			ID:                         row.ID.String(),
			MaterialID:                 row.MaterialID.String(),
			Name:                       row.Name,
			Reference:                  row.Reference,
			IsUnitary:                  row.IsUnitary,
			IsNew:                      row.IsNew,
			StockQuantityPrevious:      row.StockQuantityPrevious,
			StockQuantityCurrent:       row.StockQuantityCurrent,
			OutOfOrderQuantityPrevious: row.OutOfOrderQuantityPrevious,
			OutOfOrderQuantityCurrent:  row.OutOfOrderQuantityCurrent,
		}
		for _, u := range row.Units {
			m.Units = append(m.Units, inventorydomain.UnitResponse{
				ID:               u.ID.String(),
				MaterialUnitID:   u.MaterialUnitID.String(),
				Reference:        u.Reference,
				IsNew:            u.IsNew,
				IsLostPrevious:   u.IsLostPrevious,
				IsLostCurrent:    u.IsLostCurrent,
				IsBrokenPrevious: u.IsBrokenPrevious,
				IsBrokenCurrent:  u.IsBrokenCurrent,
				StatePrevious:    u.StatePrevious,
				StateCurrent:     u.StateCurrent,
			})
		}
		resp.Materials = append(resp.Materials, m)
	}
	return resp
}
