package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"NewsIntegrity/internal/config"
	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
)

//go:embed schema.sql
var schema string

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Open creates a pgx pool and verifies connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PostgresRepository persists articles, outlets and scoring audits in Postgres.
type PostgresRepository struct {
	db DB
}

var (
	_ ports.ArticleRepository = (*PostgresRepository)(nil)
	_ ports.OutletRepository  = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a pgx pool (or transaction-capable equivalent).
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetArticle(ctx context.Context, id uuid.UUID) (domain.Article, error) {
	query, args, err := getArticleQuery(id)
	if err != nil {
		return domain.Article{}, fmt.Errorf("build query: %w", err)
	}

	a, err := scanArticle(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

func (r *PostgresRepository) ListUnscored(ctx context.Context, limit int) ([]domain.Article, error) {
	query, args, err := listUnscoredQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryArticles(ctx, query, args)
}

func (r *PostgresRepository) ListScored(ctx context.Context, outletID uuid.UUID) ([]domain.Article, error) {
	query, args, err := listScoredQuery(outletID)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.queryArticles(ctx, query, args)
}

// SaveScore writes the article's score columns and its audit row in one
// transaction. A score that no longer needs a redraft clears the old one.
func (r *PostgresRepository) SaveScore(ctx context.Context, rec domain.ScoreRecord) error {
	violations, err := json.Marshal(domain.NewViolationList(rec.Violations))
	if err != nil {
		return fmt.Errorf("marshal violations: %w", err)
	}

	update := scoreUpdate{
		articleID:  rec.ArticleID,
		score:      rec.Score,
		violations: violations,
		scoredAt:   rec.ScoredAt,
	}
	if rec.Redraft != nil {
		diff, err := json.Marshal(rec.Redraft.Diff())
		if err != nil {
			return fmt.Errorf("marshal redraft diff: %w", err)
		}
		update.redraftHeadline = &rec.Redraft.RedraftHeadline
		update.redraftBody = &rec.Redraft.RedraftBody
		update.redraftDiff = diff
	}

	auditViolations, err := json.Marshal(domain.NewViolationList(rec.Audit.Violations))
	if err != nil {
		return fmt.Errorf("marshal audit violations: %w", err)
	}
	auditID := rec.Audit.ID
	if auditID == uuid.Nil {
		auditID = uuid.New()
	}
	processedAt := rec.Audit.ProcessedAt
	if processedAt.IsZero() {
		processedAt = rec.ScoredAt
	}

	updateSQL, updateArgs, err := saveScoreQuery(update)
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	auditSQL, auditArgs, err := insertAuditQuery(auditRow{
		id:                auditID,
		articleID:         rec.ArticleID,
		initialScore:      rec.Audit.InitialScore,
		finalScore:        rec.Audit.FinalScore,
		verificationScore: rec.Audit.VerificationScore,
		neutralityScore:   rec.Audit.NeutralityScore,
		fairnessScore:     rec.Audit.FairnessScore,
		violations:        auditViolations,
		modelUsed:         rec.Audit.ModelUsed,
		processingTimeMS:  rec.Audit.ProcessingTimeMS,
		processedAt:       processedAt,
	})
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, updateSQL, updateArgs...)
	if err != nil {
		return fmt.Errorf("update article %s: %w", rec.ArticleID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", rec.ArticleID, domain.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, auditSQL, auditArgs...); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetOutlet(ctx context.Context, id uuid.UUID) (domain.Outlet, error) {
	query, args, err := getOutletQuery(id)
	if err != nil {
		return domain.Outlet{}, fmt.Errorf("build query: %w", err)
	}

	o, err := scanOutlet(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Outlet{}, fmt.Errorf("outlet %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Outlet{}, fmt.Errorf("get outlet %s: %w", id, err)
	}
	return o, nil
}

func (r *PostgresRepository) ListRollupTargets(ctx context.Context) ([]domain.Outlet, error) {
	query, args, err := listRollupTargetsQuery()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outlets: %w", err)
	}
	defer rows.Close()

	var out []domain.Outlet
	for rows.Next() {
		o, err := scanOutlet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outlet: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateAggregate(ctx context.Context, agg domain.OutletAggregate) error {
	query, args, err := updateAggregateQuery(agg.OutletID, agg.BattingAverage, agg.TotalArticles)
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update outlet %s: %w", agg.OutletID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outlet %s: %w", agg.OutletID, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) queryArticles(ctx context.Context, query string, args []any) ([]domain.Article, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func scanArticle(row pgx.Row) (domain.Article, error) {
	var (
		a               domain.Article
		violations      []byte
		redraftHeadline *string
		redraftBody     *string
		redraftDiff     []byte
		scoredAt        *time.Time
	)
	if err := row.Scan(
		&a.ID,
		&a.OutletID,
		&a.Headline,
		&a.Body,
		&a.URL,
		&a.CategoryTag,
		&a.PublishedAt,
		&a.ScrapedAt,
		&a.Score,
		&violations,
		&redraftHeadline,
		&redraftBody,
		&redraftDiff,
		&scoredAt,
	); err != nil {
		return domain.Article{}, err
	}
	a.ScoredAt = scoredAt

	if len(violations) > 0 {
		var list domain.ViolationList
		if err := json.Unmarshal(violations, &list); err != nil {
			return domain.Article{}, fmt.Errorf("decode violations: %w", err)
		}
		a.Violations = list.Violations
	}

	if redraftHeadline != nil && redraftBody != nil {
		a.Redraft = &domain.Redraft{Headline: *redraftHeadline, Body: *redraftBody}
		if len(redraftDiff) > 0 {
			if err := json.Unmarshal(redraftDiff, &a.Redraft.Diff); err != nil {
				return domain.Article{}, fmt.Errorf("decode redraft diff: %w", err)
			}
		}
	}
	return a, nil
}

func scanOutlet(row pgx.Row) (domain.Outlet, error) {
	var o domain.Outlet
	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Domain,
		&o.IsWireService,
		&o.BattingAverage,
		&o.BiasTilt,
		&o.TotalArticles,
		&o.UpdatedAt,
	)
	return o, err
}
