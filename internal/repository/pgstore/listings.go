package pgstore

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"unimart/internal/ids"
	"unimart/internal/models"
	"unimart/internal/repository"
)

const foreignKeyViolation = "23503"

const listingColumns = `
	l.id, l.owner_id, l.name, l.price, l.rollno, l.collegename, l.googledrivelink,
	l.description, l.dept, l.phoneno, l.approved_status, l.approved_string, l.photo_key,
	l.created_at, l.updated_at
`

// ListingRepository keeps listings in their own table keyed by owner, so
// each listing is updated independently of its owner's other listings.
type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func (r *ListingRepository) Append(ctx context.Context, listing models.Listing) (models.Listing, error) {
	const query = `
		INSERT INTO listings (
			id, owner_id, name, price, rollno, collegename, googledrivelink,
			description, dept, phoneno, approved_status, approved_string, photo_key,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	listing.ID = ids.New()
	err := r.pool.QueryRow(ctx, query,
		listing.ID,
		listing.OwnerID,
		listing.Name,
		listing.Price,
		listing.RollNo,
		listing.CollegeName,
		listing.GoogleDriveLink,
		listing.Description,
		listing.Dept,
		listing.PhoneNo,
		listing.ApprovedStatus,
		string(listing.ApprovedString),
		listing.PhotoKey,
	).Scan(&listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return models.Listing{}, repository.ErrAccountNotFound
		}
		return models.Listing{}, err
	}
	return listing, nil
}

func (r *ListingRepository) Get(ctx context.Context, listingID string) (models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings l WHERE l.id = $1`

	listing, err := scanListing(r.pool.QueryRow(ctx, query, listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Listing{}, repository.ErrListingNotFound
		}
		return models.Listing{}, err
	}
	return listing, nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings l
		WHERE l.owner_id = $1
		ORDER BY l.created_at, l.id
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]models.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func (r *ListingRepository) Replace(ctx context.Context, listing models.Listing) error {
	const query = `
		UPDATE listings
		SET name = $3,
		    price = $4,
		    rollno = $5,
		    collegename = $6,
		    googledrivelink = $7,
		    description = $8,
		    dept = $9,
		    phoneno = $10,
		    approved_status = $11,
		    approved_string = $12,
		    photo_key = $13,
		    updated_at = $14
		WHERE id = $1 AND owner_id = $2
	`

	updatedAt := listing.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = models.Timestamp()
	}

	cmd, err := r.pool.Exec(ctx, query,
		listing.ID,
		listing.OwnerID,
		listing.Name,
		listing.Price,
		listing.RollNo,
		listing.CollegeName,
		listing.GoogleDriveLink,
		listing.Description,
		listing.Dept,
		listing.PhoneNo,
		listing.ApprovedStatus,
		string(listing.ApprovedString),
		listing.PhotoKey,
		updatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, ownerID string, listingID string) error {
	const query = `DELETE FROM listings WHERE id = $1 AND owner_id = $2`
	cmd, err := r.pool.Exec(ctx, query, listingID, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return repository.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, q repository.ListingQuery) ([]models.OwnedListing, error) {
	query := `SELECT ` + listingColumns + `, u.email
		FROM listings l
		JOIN users u ON u.id = l.owner_id
		WHERE ($1 = FALSE OR l.approved_status)
		  AND ($2 = '' OR l.approved_string = $2)
		  AND ($3 = '' OR l.name ILIKE '%' || $3 || '%' ESCAPE '\')
		ORDER BY l.created_at, l.id
	`

	rows, err := r.pool.Query(ctx, query, q.ApprovedOnly, string(q.State), escapeLike(q.NameContains))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.OwnedListing, 0)
	for rows.Next() {
		var owned models.OwnedListing
		l := &owned.Listing
		var state string
		if err := rows.Scan(
			&l.ID, &l.OwnerID, &l.Name, &l.Price, &l.RollNo, &l.CollegeName, &l.GoogleDriveLink,
			&l.Description, &l.Dept, &l.PhoneNo, &l.ApprovedStatus, &state, &l.PhotoKey,
			&l.CreatedAt, &l.UpdatedAt,
			&owned.OwnerEmail,
		); err != nil {
			return nil, err
		}
		l.ApprovedString = models.ApprovalState(state)
		out = append(out, owned)
	}
	return out, rows.Err()
}

func scanListing(row pgx.Row) (models.Listing, error) {
	var l models.Listing
	var state string
	if err := row.Scan(
		&l.ID, &l.OwnerID, &l.Name, &l.Price, &l.RollNo, &l.CollegeName, &l.GoogleDriveLink,
		&l.Description, &l.Dept, &l.PhoneNo, &l.ApprovedStatus, &state, &l.PhotoKey,
		&l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return models.Listing{}, err
	}
	l.ApprovedString = models.ApprovalState(state)
	return l, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
