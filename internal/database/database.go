package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"steelprice/server/internal/models"
)

const dateLayout = "2006-01-02"

// priceQuery joins price positions with their article and purchase order.
// Results come back in the natural order of the data source.
const priceQuery = `
        SELECT
            pp.unit_price,
            pp.quantity,
            pp.article_no,
            pp.order_no,
            a.weight,
            a.material_group,
            COALESCE(a.description, '') as description,
            COALESCE(a.size_class, '') as size_class,
            COALESCE(po.supplier_no, '') as supplier_no,
            po.order_date
        FROM price_positions pp
        JOIN articles a ON pp.article_no = a.article_no
        JOIN purchase_orders po ON pp.order_no = po.order_no
        WHERE po.order_date BETWEEN ? AND ?
        AND a.material_group BETWEEN ? AND ?
        AND LOWER(a.description) LIKE LOWER(?)
        AND a.weight <> 0
        AND pp.quantity <> 0
        AND a.size_class LIKE 'D%x%'
        AND po.supplier_no LIKE ?
    `

type Database struct {
	db     *sql.DB
	driver string
}

// NewDatabase opens a handle for driver (sqlite3, postgres or mysql).
// Idle connections are not retained; every query acquires its own.
func NewDatabase(driver, dsn string) (*Database, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(0)

	return &Database{db: db, driver: driver}, nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.db.Close()
}

// FetchPriceRecords returns the purchase history matching q. Material and
// supplier are matched as substrings; an empty supplier matches everything.
func (d *Database) FetchPriceRecords(ctx context.Context, q models.PriceQuery) ([]models.PriceRecord, error) {
	args := []interface{}{
		q.StartDate, q.EndDate,
		q.MaterialGroupMin, q.MaterialGroupMax,
		"%" + q.Material + "%",
		"%" + q.Supplier + "%",
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, d.rebind(priceQuery), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price records: %w", err)
	}
	defer rows.Close()

	var records []models.PriceRecord
	for rows.Next() {
		var r models.PriceRecord
		var orderDate sql.NullString
		var weight, quantity, unitPrice sql.NullFloat64

		err := rows.Scan(
			&unitPrice,
			&quantity,
			&r.ArticleNo,
			&r.OrderNo,
			&weight,
			&r.MaterialGroup,
			&r.Description,
			&r.SizeClass,
			&r.SupplierNo,
			&orderDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}

		// NULL numbers stay zero and are dropped by the aggregation guards
		if unitPrice.Valid {
			r.UnitPrice = unitPrice.Float64
		}
		if quantity.Valid {
			r.Quantity = quantity.Float64
		}
		if weight.Valid {
			r.Weight = weight.Float64
		}

		// Drivers hand dates back as "2006-01-02" or as RFC3339 timestamps
		if orderDate.Valid && len(orderDate.String) >= len(dateLayout) {
			if t, err := time.Parse(dateLayout, orderDate.String[:len(dateLayout)]); err == nil {
				r.OrderDate = t
			}
		}

		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price records: %w", err)
	}
	return records, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (d *Database) rebind(query string) string {
	if d.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
