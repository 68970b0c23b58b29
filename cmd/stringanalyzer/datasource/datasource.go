package datasource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
)

var (
	ErrNotFound  = errors.New("string does not exist in the system")
	ErrDuplicate = errors.New("string already exists in the system")
)

const uniqueViolation = "23505"

const selectColumns = `
	SELECT id, value, length, is_palindrome, unique_characters, word_count,
	       sha256_hash, character_frequency_map, created_at
	FROM string_analyses`

// FrequencyMap is the JSONB character frequency column.
type FrequencyMap map[string]int

func (m FrequencyMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *FrequencyMap) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*m = FrequencyMap{}
		return nil
	default:
		return fmt.Errorf("unsupported type %T for character_frequency_map", src)
	}
	return json.Unmarshal(data, m)
}

// row is the string_analyses table layout.
type row struct {
	ID                    string       `db:"id"`
	Value                 string       `db:"value"`
	Length                int          `db:"length"`
	IsPalindrome          bool         `db:"is_palindrome"`
	UniqueCharacters      int          `db:"unique_characters"`
	WordCount             int          `db:"word_count"`
	SHA256Hash            string       `db:"sha256_hash"`
	CharacterFrequencyMap FrequencyMap `db:"character_frequency_map"`
	CreatedAt             time.Time    `db:"created_at"`
}

func (r row) record() types.StringRecord {
	return types.StringRecord{
		ID:    r.ID,
		Value: r.Value,
		Properties: types.StringProperties{
			Length:                r.Length,
			IsPalindrome:          r.IsPalindrome,
			UniqueCharacters:      r.UniqueCharacters,
			WordCount:             r.WordCount,
			SHA256Hash:            r.SHA256Hash,
			CharacterFrequencyMap: map[string]int(r.CharacterFrequencyMap),
		},
		CreatedAt: r.CreatedAt,
	}
}

// DataSourceService handles the string_analyses table
type DataSourceService struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewDataSourceService creates a new DataSourceService
func NewDataSourceService(db *sqlx.DB, log zerolog.Logger) *DataSourceService {
	return &DataSourceService{
		db:  db,
		log: log.With().Str("component", "datasource").Logger(),
	}
}

// Ping checks the database connection.
func (svc *DataSourceService) Ping(ctx context.Context) error {
	return svc.db.PingContext(ctx)
}

// Create stores value with its properties. The record id is the content hash.
func (svc *DataSourceService) Create(ctx context.Context, value string, props types.StringProperties) (*types.StringRecord, error) {
	query := `
		INSERT INTO string_analyses (
			id, value, length, is_palindrome, unique_characters, word_count,
			sha256_hash, character_frequency_map
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	r := row{
		ID:                    props.SHA256Hash,
		Value:                 value,
		Length:                props.Length,
		IsPalindrome:          props.IsPalindrome,
		UniqueCharacters:      props.UniqueCharacters,
		WordCount:             props.WordCount,
		SHA256Hash:            props.SHA256Hash,
		CharacterFrequencyMap: FrequencyMap(props.CharacterFrequencyMap),
	}

	err := svc.db.QueryRowxContext(ctx, query,
		r.ID, r.Value, r.Length, r.IsPalindrome, r.UniqueCharacters, r.WordCount,
		r.SHA256Hash, r.CharacterFrequencyMap,
	).Scan(&r.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create string analysis: %w", err)
	}

	svc.log.Debug().
		Str("id", r.ID).
		Int("length", r.Length).
		Msg("Stored string analysis")

	record := r.record()
	return &record, nil
}

// GetByValue retrieves the record for value.
func (svc *DataSourceService) GetByValue(ctx context.Context, value string) (*types.StringRecord, error) {
	return svc.get(ctx, selectColumns+" WHERE value = $1", value)
}

func (svc *DataSourceService) get(ctx context.Context, query string, arg string) (*types.StringRecord, error) {
	var r row
	if err := svc.db.GetContext(ctx, &r, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get string analysis: %w", err)
	}
	record := r.record()
	return &record, nil
}

// Count returns the number of stored strings.
func (svc *DataSourceService) Count(ctx context.Context) (int, error) {
	var total int
	if err := svc.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM string_analyses`); err != nil {
		return 0, fmt.Errorf("failed to count string analyses: %w", err)
	}
	return total, nil
}

// List returns one page of the records matching filters and the total number
// of matches.
func (svc *DataSourceService) List(ctx context.Context, filters types.FilterSet, page types.Page) ([]types.StringRecord, int, error) {
	where, args := buildWhere(filters)

	var total int
	if err := svc.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM string_analyses`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count matching strings: %w", err)
	}

	query := fmt.Sprintf("%s%s ORDER BY created_at, id LIMIT $%d OFFSET $%d",
		selectColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Skip)

	rows, err := svc.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	records := make([]types.StringRecord, 0)
	for rows.Next() {
		var r row
		if err := rows.StructScan(&r); err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		records = append(records, r.record())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating over rows: %w", err)
	}

	svc.log.Debug().
		Interface("filters", filters.Applied()).
		Int("total", total).
		Int("returned", len(records)).
		Msg("Listed strings")

	return records, total, nil
}

// Delete removes the record for value.
func (svc *DataSourceService) Delete(ctx context.Context, value string) error {
	res, err := svc.db.ExecContext(ctx, `DELETE FROM string_analyses WHERE value = $1`, value)
	if err != nil {
		return fmt.Errorf("failed to delete string analysis: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildWhere translates filters into a WHERE clause with positional arguments.
func buildWhere(filters types.FilterSet) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.IsPalindrome != nil {
		clauses = append(clauses, "is_palindrome = "+arg(*filters.IsPalindrome))
	}
	if filters.MinLength != nil {
		clauses = append(clauses, "length >= "+arg(*filters.MinLength))
	}
	if filters.MaxLength != nil {
		clauses = append(clauses, "length <= "+arg(*filters.MaxLength))
	}
	if filters.WordCount != nil {
		clauses = append(clauses, "word_count = "+arg(*filters.WordCount))
	}
	if filters.ContainsCharacter != nil {
		c := *filters.ContainsCharacter
		clauses = append(clauses, fmt.Sprintf(
			"(COALESCE((character_frequency_map->>%s)::int, 0) + COALESCE((character_frequency_map->>%s)::int, 0)) > 0",
			arg(strings.ToLower(c)), arg(strings.ToUpper(c))))
	}
	if filters.ContainsText != nil {
		clauses = append(clauses, "value ILIKE '%' || "+arg(escapeLike(*filters.ContainsText))+" || '%'")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
