package storage

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/staff"
)

// CatalogRepository reads employees, services and who performs what.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetEmployee(ctx context.Context, employeeID string) (model.Employee, error) {
	var e model.Employee
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, business_id::text, name, is_active
		FROM employees
		WHERE id = $1::uuid
	`, employeeID).Scan(&e.ID, &e.BusinessID, &e.Name, &e.IsActive)
	if err != nil {
		return model.Employee{}, notFound("storage.GetEmployee", "employee", err)
	}
	return e, nil
}

func (r *CatalogRepository) GetServices(ctx context.Context, businessID string, serviceIDs []string) ([]model.Service, error) {
	if len(serviceIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, business_id::text, name, duration_minutes, price_cents, is_active
		FROM services
		WHERE business_id = $1::uuid AND id = ANY($2::uuid[])
	`, businessID, serviceIDs)
	if err != nil {
		return nil, translate("storage.GetServices", err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *CatalogRepository) EmployeeServiceIDs(ctx context.Context, employeeID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT service_id::text
		FROM employee_services
		WHERE employee_id = $1::uuid
	`, employeeID)
	if err != nil {
		return nil, translate("storage.EmployeeServiceIDs", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

// ServiceStaffing lists the employee's services with how many other active
// employees are assigned to each.
func (r *CatalogRepository) ServiceStaffing(ctx context.Context, employeeID string) ([]staff.ServiceStaffing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.business_id::text, s.name, s.duration_minutes, s.price_cents, s.is_active,
			(
				SELECT count(*)
				FROM employee_services other
				JOIN employees e ON e.id = other.employee_id
				WHERE other.service_id = s.id
					AND other.employee_id <> es.employee_id
					AND e.is_active
			) AS other_active
		FROM employee_services es
		JOIN services s ON s.id = es.service_id
		WHERE es.employee_id = $1::uuid
		ORDER BY s.name
	`, employeeID)
	if err != nil {
		return nil, translate("storage.ServiceStaffing", err)
	}
	defer rows.Close()

	var out []staff.ServiceStaffing
	for rows.Next() {
		var st staff.ServiceStaffing
		s := &st.Service
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.IsActive, &st.OtherActiveStaff); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// DeleteEmployee removes the employee; assignments cascade and appointments
// keep their row with employee_id cleared.
func (r *CatalogRepository) DeleteEmployee(ctx context.Context, employeeID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id = $1::uuid`, employeeID)
	if err != nil {
		return translate("storage.DeleteEmployee", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("storage.DeleteEmployee", "employee")
	}
	return nil
}
