package tracking

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

// resolveOrder maps a tag UID to the order it currently travels with.
// An open bind record wins; otherwise the tag registry points at an
// equipment whose most recently touched active order is taken.
func (s *Service) resolveOrder(ctx context.Context, tx *gorm.DB, sc orderSchema, uid string) (int64, error) {
	if sc.hasBindings {
		orderID, found, err := s.openBindOrder(tx, uid)
		if err != nil {
			return 0, err
		}
		if found {
			return orderID, nil
		}
	}
	return s.orderViaTagRegistry(tx, sc, uid)
}

func (s *Service) openBindOrder(tx *gorm.DB, uid string) (int64, bool, error) {
	query := fmt.Sprintf(`
		SELECT id_os FROM %s
		WHERE uid = ? AND tipo = ? AND desvinculado_em IS NULL
		ORDER BY COALESCE(vinculado_em, evento_em) DESC
		LIMIT 1`, bindingTableName)
	var orderID sql.NullInt64
	row := tx.Raw(query, uid, "bind").Row()
	if err := row.Scan(&orderID); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(errors.CodeDependency, err, "tracking: resolving bind")
	}
	return orderID.Int64, orderID.Valid, nil
}

func (s *Service) orderViaTagRegistry(tx *gorm.DB, sc orderSchema, uid string) (int64, error) {
	var equipmentID sql.NullInt64
	row := tx.Raw(
		fmt.Sprintf("SELECT id_equipamento FROM %s WHERE uid_hex = ?", equipmentTagTableName),
		uid,
	).Row()
	if err := row.Scan(&equipmentID); err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.New(errors.CodePrecondition,
				fmt.Sprintf("tag %s is not bound to any order", uid))
		}
		return 0, errors.Wrap(errors.CodeDependency, err, "tracking: resolving tag")
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id_equipamento = ?", sc.pk, sc.table)
	args := []any{equipmentID.Int64}
	if sc.activeCol != "" {
		query += fmt.Sprintf(" AND %s = ?", sc.activeCol)
		args = append(args, "ativo")
	}
	query += orderByRecency(sc) + " LIMIT 1"

	var orderID sql.NullInt64
	if err := tx.Raw(query, args...).Row().Scan(&orderID); err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.New(errors.CodePrecondition,
				fmt.Sprintf("tag %s has no active order", uid))
		}
		return 0, errors.Wrap(errors.CodeDependency, err, "tracking: resolving order for tag")
	}
	return orderID.Int64, nil
}

func orderByRecency(sc orderSchema) string {
	switch {
	case sc.updatedCol != "" && sc.createdCol != "":
		return fmt.Sprintf(" ORDER BY %s DESC, %s DESC", sc.updatedCol, sc.createdCol)
	case sc.updatedCol != "":
		return fmt.Sprintf(" ORDER BY %s DESC", sc.updatedCol)
	case sc.createdCol != "":
		return fmt.Sprintf(" ORDER BY %s DESC", sc.createdCol)
	default:
		return fmt.Sprintf(" ORDER BY %s DESC", sc.pk)
	}
}
